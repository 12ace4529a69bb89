package models

import "time"

// EntryStatus is the lifecycle state of a queue entry.
type EntryStatus string

const (
	StatusWaiting   EntryStatus = "waiting"
	StatusCalled    EntryStatus = "called"
	StatusCheckedIn EntryStatus = "checked_in"
	StatusCompleted EntryStatus = "completed"
	StatusCancelled EntryStatus = "cancelled"
	StatusNoShow    EntryStatus = "no_show"
	StatusExpired   EntryStatus = "expired"
)

// IsActive reports whether the entry still holds a live position in the queue.
func (s EntryStatus) IsActive() bool {
	return s == StatusWaiting || s == StatusCalled || s == StatusCheckedIn
}

// IsTerminal reports whether no further transitions are permitted.
func (s EntryStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow || s == StatusExpired
}

// QueueEntry is one customer's participation in a queue. Entries are created by
// Queue.AddCustomer and mutated only through the transition methods below; they
// are never deleted, terminal entries stay around with their last position for
// audit.
type QueueEntry struct {
	ID            string      `json:"id"`
	QueueID       string      `json:"queue_id"`
	CustomerID    string      `json:"customer_id"`
	CustomerName  string      `json:"customer_name"`
	Position      int         `json:"position"`
	Seq           int         `json:"seq"`
	Status        EntryStatus `json:"status"`
	Token         string      `json:"token"`
	StaffID       string      `json:"staff_id,omitempty"`
	ServiceTypeID string      `json:"service_type_id,omitempty"`

	// Actual service duration in minutes, recorded on completion.
	DurationMinutes int `json:"duration_minutes,omitempty"`

	EnteredAt   time.Time  `json:"entered_at"`
	CalledAt    *time.Time `json:"called_at,omitempty"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}
