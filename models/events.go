package models

import "time"

// Event is a domain event raised by a queue operation. Events are collected on
// the aggregate and dispatched by the service layer after the operation commits,
// there is no hidden event bus.
type Event interface {
	EventName() string
}

type CustomerJoinedQueueEvent struct {
	QueueID    string
	EntryID    string
	CustomerID string
	Token      string
	Position   int
	JoinedAt   time.Time
}

func (CustomerJoinedQueueEvent) EventName() string { return "customer_joined_queue" }

type CustomerCalledFromQueueEvent struct {
	QueueID    string
	EntryID    string
	CustomerID string
	Token      string
	StaffID    string
	CalledAt   time.Time
}

func (CustomerCalledFromQueueEvent) EventName() string { return "customer_called_from_queue" }

type CustomerCheckedInEvent struct {
	QueueID    string
	EntryID    string
	CustomerID string
	CheckedInAt time.Time
}

func (CustomerCheckedInEvent) EventName() string { return "customer_checked_in" }

type ServiceCompletedEvent struct {
	QueueID         string
	EntryID         string
	CustomerID      string
	StaffID         string
	DurationMinutes int
	CompletedAt     time.Time
}

func (ServiceCompletedEvent) EventName() string { return "service_completed" }

type CustomerCancelledEvent struct {
	QueueID     string
	EntryID     string
	CustomerID  string
	CancelledAt time.Time
}

func (CustomerCancelledEvent) EventName() string { return "customer_cancelled" }

type CustomerNoShowEvent struct {
	QueueID    string
	EntryID    string
	CustomerID string
}

func (CustomerNoShowEvent) EventName() string { return "customer_no_show" }

type LateCustomersRemovedEvent struct {
	QueueID   string
	Count     int
	RemovedAt time.Time
}

func (LateCustomersRemovedEvent) EventName() string { return "late_customers_removed" }

type QueueActivatedEvent struct {
	QueueID string
}

func (QueueActivatedEvent) EventName() string { return "queue_activated" }

type QueueDeactivatedEvent struct {
	QueueID string
}

func (QueueDeactivatedEvent) EventName() string { return "queue_deactivated" }
