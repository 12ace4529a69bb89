package status

import "errors"

var (
	ErrQueueFull           = errors.New("queue: queue is full")
	ErrQueueInactive       = errors.New("queue: queue is not accepting new entries")
	ErrEmptyQueue          = errors.New("queue: no waiting entries")
	ErrInvalidTransition   = errors.New("queue: invalid status transition")
	ErrEntryNotFound       = errors.New("queue: entry not found")
	ErrQueueNotFound       = errors.New("queue: queue not found")
	ErrConcurrencyConflict = errors.New("queue: concurrent modification")
	ErrLocationNotFound    = errors.New("location: location not found")
	ErrInvalidKioskKey     = errors.New("kiosk: invalid kiosk key")
)
