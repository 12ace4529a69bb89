package models

import (
	"crypto/rand"
	"fmt"
	"time"

	"waitline/internal/status"
)

// Queue is one location's walk-in queue. It exclusively owns its entries and is
// the only place entry state is mutated. All operations are plain in-memory
// mutations; the service layer is responsible for serializing writers and
// persisting the result.
type Queue struct {
	ID             string
	LocationID     string
	MaxSize        int
	LateCapMinutes int
	Active         bool
	TokenPrefix    string
	TokenSeq       int

	// Version is bumped by the repository on every successful save and backs
	// the optimistic concurrency check.
	Version int

	CreatedAt time.Time
	UpdatedAt time.Time

	Entries []*QueueEntry

	events []Event
}

// NewQueue creates an empty active queue for a location.
func NewQueue(id, locationID string, maxSize, lateCapMinutes int) *Queue {
	return &Queue{
		ID:             id,
		LocationID:     locationID,
		MaxSize:        maxSize,
		LateCapMinutes: lateCapMinutes,
		Active:         true,
		TokenPrefix:    "A",
		CreatedAt:      time.Now(),
	}
}

// ActiveEntries returns the live entries (waiting, called, checked in) in
// position order. Entries are stored in insertion order and positions are kept
// dense, so a single pass suffices.
func (q *Queue) ActiveEntries() []*QueueEntry {
	active := make([]*QueueEntry, 0, len(q.Entries))
	for _, e := range q.Entries {
		if e.Status.IsActive() {
			active = append(active, e)
		}
	}
	return active
}

func (q *Queue) activeCount() int {
	n := 0
	for _, e := range q.Entries {
		if e.Status.IsActive() {
			n++
		}
	}
	return n
}

// AddCustomer appends a new waiting entry at the back of the queue.
func (q *Queue) AddCustomer(customerID, name, serviceTypeID, staffID string) (*QueueEntry, error) {
	if !q.Active {
		return nil, status.ErrQueueInactive
	}
	if q.activeCount() >= q.MaxSize {
		return nil, status.ErrQueueFull
	}

	q.TokenSeq++
	now := time.Now()
	entry := &QueueEntry{
		ID:            newEntryID(),
		QueueID:       q.ID,
		CustomerID:    customerID,
		CustomerName:  name,
		Position:      q.activeCount() + 1,
		Seq:           q.TokenSeq,
		Status:        StatusWaiting,
		Token:         fmt.Sprintf("%s%03d", q.TokenPrefix, q.TokenSeq),
		ServiceTypeID: serviceTypeID,
		StaffID:       staffID,
		EnteredAt:     now,
	}
	q.Entries = append(q.Entries, entry)

	q.raise(CustomerJoinedQueueEvent{
		QueueID:    q.ID,
		EntryID:    entry.ID,
		CustomerID: entry.CustomerID,
		Token:      entry.Token,
		Position:   entry.Position,
		JoinedAt:   now,
	})
	return entry, nil
}

// CallNext calls the lowest-position waiting entry for the given staff member.
func (q *Queue) CallNext(staffID string) (*QueueEntry, error) {
	var next *QueueEntry
	for _, e := range q.Entries {
		if e.Status == StatusWaiting && (next == nil || e.Position < next.Position) {
			next = e
		}
	}
	if next == nil {
		return nil, status.ErrEmptyQueue
	}

	now := time.Now()
	next.Status = StatusCalled
	next.StaffID = staffID
	next.CalledAt = &now

	q.raise(CustomerCalledFromQueueEvent{
		QueueID:    q.ID,
		EntryID:    next.ID,
		CustomerID: next.CustomerID,
		Token:      next.Token,
		StaffID:    staffID,
		CalledAt:   now,
	})
	return next, nil
}

// CheckIn marks a called entry as arrived at the counter.
func (q *Queue) CheckIn(entryID string) (*QueueEntry, error) {
	entry, err := q.findEntry(entryID)
	if err != nil {
		return nil, err
	}
	if !validTransition("check_in", entry.Status) {
		return nil, status.ErrInvalidTransition
	}

	now := time.Now()
	entry.Status = StatusCheckedIn
	entry.CheckedInAt = &now

	q.raise(CustomerCheckedInEvent{
		QueueID:     q.ID,
		EntryID:     entry.ID,
		CustomerID:  entry.CustomerID,
		CheckedInAt: now,
	})
	return entry, nil
}

// CompleteService finishes a checked-in entry and records the actual duration.
func (q *Queue) CompleteService(entryID string, durationMinutes int, staffID string) (*QueueEntry, error) {
	entry, err := q.findEntry(entryID)
	if err != nil {
		return nil, err
	}
	if !validTransition("complete", entry.Status) {
		return nil, status.ErrInvalidTransition
	}

	now := time.Now()
	entry.Status = StatusCompleted
	entry.StaffID = staffID
	entry.DurationMinutes = durationMinutes
	entry.CompletedAt = &now
	q.resequence()

	q.raise(ServiceCompletedEvent{
		QueueID:         q.ID,
		EntryID:         entry.ID,
		CustomerID:      entry.CustomerID,
		StaffID:         staffID,
		DurationMinutes: durationMinutes,
		CompletedAt:     now,
	})
	return entry, nil
}

// Cancel withdraws a waiting or called entry.
func (q *Queue) Cancel(entryID string) (*QueueEntry, error) {
	entry, err := q.findEntry(entryID)
	if err != nil {
		return nil, err
	}
	if !validTransition("cancel", entry.Status) {
		return nil, status.ErrInvalidTransition
	}

	now := time.Now()
	entry.Status = StatusCancelled
	entry.CancelledAt = &now
	q.resequence()

	q.raise(CustomerCancelledEvent{
		QueueID:     q.ID,
		EntryID:     entry.ID,
		CustomerID:  entry.CustomerID,
		CancelledAt: now,
	})
	return entry, nil
}

// MarkNoShow records that a called customer never showed up.
func (q *Queue) MarkNoShow(entryID string) (*QueueEntry, error) {
	entry, err := q.findEntry(entryID)
	if err != nil {
		return nil, err
	}
	if !validTransition("no_show", entry.Status) {
		return nil, status.ErrInvalidTransition
	}

	entry.Status = StatusNoShow
	q.resequence()

	q.raise(CustomerNoShowEvent{
		QueueID:    q.ID,
		EntryID:    entry.ID,
		CustomerID: entry.CustomerID,
	})
	return entry, nil
}

// RemoveLateCustomers expires waiting entries that exceeded the late cap as of
// the given time and returns how many were evicted. Expired entries keep their
// last position for audit and stop counting toward capacity.
func (q *Queue) RemoveLateCustomers(asOf time.Time) int {
	if q.LateCapMinutes <= 0 {
		return 0
	}

	lateCap := time.Duration(q.LateCapMinutes) * time.Minute
	removed := 0
	for _, e := range q.Entries {
		if e.Status != StatusWaiting {
			continue
		}
		if e.EnteredAt.Add(lateCap).Before(asOf) {
			e.Status = StatusExpired
			removed++
		}
	}
	if removed == 0 {
		return 0
	}

	q.resequence()
	q.raise(LateCustomersRemovedEvent{
		QueueID:   q.ID,
		Count:     removed,
		RemovedAt: asOf,
	})
	return removed
}

// Activate opens the queue for new entries. No-op if already active.
func (q *Queue) Activate() {
	if q.Active {
		return
	}
	q.Active = true
	q.raise(QueueActivatedEvent{QueueID: q.ID})
}

// Deactivate stops the queue from accepting new entries. Existing entries keep
// flowing through their lifecycle. No-op if already inactive.
func (q *Queue) Deactivate() {
	if !q.Active {
		return
	}
	q.Active = false
	q.raise(QueueDeactivatedEvent{QueueID: q.ID})
}

// CollectEvents returns the events raised since the last collection and clears
// the buffer. The service layer dispatches them after the operation commits.
func (q *Queue) CollectEvents() []Event {
	events := q.events
	q.events = nil
	return events
}

func (q *Queue) findEntry(entryID string) (*QueueEntry, error) {
	for _, e := range q.Entries {
		if e.ID == entryID {
			return e, nil
		}
	}
	return nil, status.ErrEntryNotFound
}

// resequence reassigns dense 1-based positions to the live entries, preserving
// insertion order. Terminal entries keep the position they departed with.
func (q *Queue) resequence() {
	pos := 0
	for _, e := range q.Entries {
		if e.Status.IsActive() {
			pos++
			e.Position = pos
		}
	}
}

func (q *Queue) raise(e Event) {
	q.events = append(q.events, e)
}

// newEntryID generates a 15 character lowercase alphanumeric id, same shape as
// the record ids the storage layer produces.
func newEntryID() string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 15)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}
