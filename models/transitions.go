package models

// transitionMap lists the statuses an action may be applied from. Anything not
// listed here is rejected with ErrInvalidTransition by the aggregate.
var transitionMap = map[string][]EntryStatus{
	"call":     {StatusWaiting},
	"check_in": {StatusCalled},
	"complete": {StatusCheckedIn},
	"cancel":   {StatusWaiting, StatusCalled},
	"no_show":  {StatusCalled},
	"expire":   {StatusWaiting},
}

func validTransition(action string, from EntryStatus) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == from {
			return true
		}
	}
	return false
}
