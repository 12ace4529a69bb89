package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"waitline/config"
	"waitline/internal/status"
	"waitline/models"
	"waitline/monitoring"
)

// maxSaveAttempts bounds the internal retry on optimistic-concurrency
// conflicts. Business-rule failures are never retried.
const maxSaveAttempts = 3

// StaffDirectory supplies the live staff availability for a location.
type StaffDirectory interface {
	ActiveAvailableCount(ctx context.Context, locationID string) (int, error)
}

// LocationDirectory supplies location facts the queue engine does not own.
type LocationDirectory interface {
	Exists(ctx context.Context, locationID string) (bool, error)
	AverageServiceMinutes(ctx context.Context, locationID string) (float64, error)
}

// Notifier consumes domain events after an operation commits. The queue engine
// never talks to a delivery provider directly.
type Notifier interface {
	Dispatch(ctx context.Context, events []models.Event)
}

// QueueService owns all mutations of queue aggregates. A per-queue mutex keeps
// at most one mutating operation per queue in flight, which is what makes
// position assignment race-free.
type QueueService struct {
	repo      QueueRepository
	staff     StaffDirectory
	locations LocationDirectory
	notifier  Notifier
	avgCache  *AverageWaitTimeCache
	monitor   *monitoring.Monitor
	config    *config.Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewQueueService(
	repo QueueRepository,
	staff StaffDirectory,
	locations LocationDirectory,
	notifier Notifier,
	avgCache *AverageWaitTimeCache,
	monitor *monitoring.Monitor,
	cfg *config.Config,
) *QueueService {
	return &QueueService{
		repo:      repo,
		staff:     staff,
		locations: locations,
		notifier:  notifier,
		avgCache:  avgCache,
		monitor:   monitor,
		config:    cfg,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *QueueService) lockFor(queueID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[queueID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[queueID] = l
	return l
}

// mutate loads the aggregate, applies op and saves, retrying a bounded number
// of times when another process raced the save. op errors surface immediately.
// Events are dispatched only after a successful commit.
func (s *QueueService) mutate(ctx context.Context, queueID string, op func(q *models.Queue) error) (*models.Queue, error) {
	lock := s.lockFor(queueID)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		q, err := s.repo.GetByID(ctx, queueID)
		if err != nil {
			return nil, err
		}

		if err := op(q); err != nil {
			return nil, err
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := s.repo.Save(ctx, q); err != nil {
			if errors.Is(err, status.ErrConcurrencyConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}

		s.notifier.Dispatch(ctx, q.CollectEvents())
		return q, nil
	}
	return nil, lastErr
}

func (s *QueueService) track(operation, locationID string, err error) {
	if s.monitor == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.monitor.TrackQueueOperation(operation, locationID, outcome)
}

// AddCustomer appends a customer to the queue and returns the created entry.
func (s *QueueService) AddCustomer(ctx context.Context, queueID, customerID, name, serviceTypeID, staffID string) (*models.QueueEntry, error) {
	var entry *models.QueueEntry
	q, err := s.mutate(ctx, queueID, func(q *models.Queue) error {
		var opErr error
		entry, opErr = q.AddCustomer(customerID, name, serviceTypeID, staffID)
		return opErr
	})
	if q != nil {
		s.track("add_customer", q.LocationID, err)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CallNext calls the lowest-position waiting customer for a staff member.
func (s *QueueService) CallNext(ctx context.Context, queueID, staffID string) (*models.QueueEntry, error) {
	var entry *models.QueueEntry
	q, err := s.mutate(ctx, queueID, func(q *models.Queue) error {
		var opErr error
		entry, opErr = q.CallNext(staffID)
		return opErr
	})
	if q != nil {
		s.track("call_next", q.LocationID, err)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// entryMutate resolves the owning queue for an entry, then runs op under that
// queue's writer lock.
func (s *QueueService) entryMutate(ctx context.Context, entryID, operation string, op func(q *models.Queue) (*models.QueueEntry, error)) (*models.QueueEntry, error) {
	owner, err := s.repo.GetByEntryID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	var entry *models.QueueEntry
	q, err := s.mutate(ctx, owner.ID, func(q *models.Queue) error {
		var opErr error
		entry, opErr = op(q)
		return opErr
	})
	if q != nil {
		s.track(operation, q.LocationID, err)
	} else {
		s.track(operation, owner.LocationID, err)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *QueueService) CheckIn(ctx context.Context, entryID string) (*models.QueueEntry, error) {
	return s.entryMutate(ctx, entryID, "check_in", func(q *models.Queue) (*models.QueueEntry, error) {
		return q.CheckIn(entryID)
	})
}

func (s *QueueService) CompleteService(ctx context.Context, entryID string, durationMinutes int, staffID string) (*models.QueueEntry, error) {
	return s.entryMutate(ctx, entryID, "complete", func(q *models.Queue) (*models.QueueEntry, error) {
		return q.CompleteService(entryID, durationMinutes, staffID)
	})
}

func (s *QueueService) Cancel(ctx context.Context, entryID string) (*models.QueueEntry, error) {
	return s.entryMutate(ctx, entryID, "cancel", func(q *models.Queue) (*models.QueueEntry, error) {
		return q.Cancel(entryID)
	})
}

func (s *QueueService) MarkNoShow(ctx context.Context, entryID string) (*models.QueueEntry, error) {
	return s.entryMutate(ctx, entryID, "no_show", func(q *models.Queue) (*models.QueueEntry, error) {
		return q.MarkNoShow(entryID)
	})
}

// RemoveLateCustomers evicts over-cap waiting entries from one queue and
// returns the eviction count.
func (s *QueueService) RemoveLateCustomers(ctx context.Context, queueID string, asOf time.Time) (int, error) {
	removed := 0
	q, err := s.mutate(ctx, queueID, func(q *models.Queue) error {
		removed = q.RemoveLateCustomers(asOf)
		return nil
	})
	if q != nil {
		s.track("remove_late", q.LocationID, err)
		if err == nil && removed > 0 && s.monitor != nil {
			s.monitor.TrackLateEvictions(q.LocationID, removed)
		}
	}
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// SweepLateCustomers runs the late-cap eviction over every active queue.
// Used by the background sweeper and the admin force-sweep endpoint.
func (s *QueueService) SweepLateCustomers(ctx context.Context) (int, error) {
	ids, err := s.repo.ListActiveIDs(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, id := range ids {
		removed, err := s.RemoveLateCustomers(ctx, id, time.Now())
		if err != nil {
			log.Printf("Error sweeping queue %s: %v", id, err)
			continue
		}
		total += removed
	}
	return total, nil
}

// SetActive toggles whether the queue accepts new entries. Idempotent.
func (s *QueueService) SetActive(ctx context.Context, queueID string, active bool) error {
	_, err := s.mutate(ctx, queueID, func(q *models.Queue) error {
		if active {
			q.Activate()
		} else {
			q.Deactivate()
		}
		return nil
	})
	return err
}

// SeedCustomer is one synthetic customer for bulk load scenarios.
type SeedCustomer struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
}

// BulkAdd inserts many customers in bounded batches. The queue lock is
// released between batches so single-entry operations are not starved.
func (s *QueueService) BulkAdd(ctx context.Context, queueID string, customers []SeedCustomer) (int, error) {
	batchSize := s.config.SeedBatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	added := 0
	for start := 0; start < len(customers); start += batchSize {
		end := start + batchSize
		if end > len(customers) {
			end = len(customers)
		}
		batch := customers[start:end]

		_, err := s.mutate(ctx, queueID, func(q *models.Queue) error {
			for _, c := range batch {
				if _, err := q.AddCustomer(c.CustomerID, c.Name, "", ""); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return added, err
		}
		added += len(batch)
	}
	return added, nil
}

// EntryWait is a single entry's estimate, ready for display.
type EntryWait struct {
	EntryID          string `json:"entry_id"`
	Token            string `json:"token"`
	Position         int    `json:"position"`
	Status           string `json:"status"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	Display          string `json:"display"`
}

// EstimateEntryWait computes the wait estimate for one entry. Read-only: it
// runs against a loaded snapshot and never blocks writers beyond the load.
func (s *QueueService) EstimateEntryWait(ctx context.Context, entryID string) (*EntryWait, error) {
	q, err := s.repo.GetByEntryID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	var target *models.QueueEntry
	for _, e := range q.Entries {
		if e.ID == entryID {
			target = e
			break
		}
	}
	if target == nil {
		return nil, status.ErrEntryNotFound
	}

	snap, err := s.Availability(ctx, q.LocationID)
	if err != nil {
		return nil, err
	}

	minutes := EstimateWait(target, q.ActiveEntries(), snap)
	if s.monitor != nil {
		s.monitor.ObserveWaitEstimate(q.LocationID, minutes)
	}

	return &EntryWait{
		EntryID:          target.ID,
		Token:            target.Token,
		Position:         target.Position,
		Status:           string(target.Status),
		EstimatedMinutes: minutes,
		Display:          FormatWait(minutes),
	}, nil
}

// Availability resolves the staff-availability snapshot for a location. The
// average service time comes from the in-memory override cache when present,
// otherwise from the location's persisted history.
func (s *QueueService) Availability(ctx context.Context, locationID string) (models.StaffAvailabilitySnapshot, error) {
	count, err := s.staff.ActiveAvailableCount(ctx, locationID)
	if err != nil {
		return models.StaffAvailabilitySnapshot{}, err
	}

	avg, ok := s.avgCache.TryGetAverage(locationID)
	if !ok {
		avg, err = s.locations.AverageServiceMinutes(ctx, locationID)
		if err != nil {
			return models.StaffAvailabilitySnapshot{}, err
		}
	}

	return models.StaffAvailabilitySnapshot{
		AvailableStaff:        count,
		AverageServiceMinutes: avg,
	}, nil
}

// ActiveQueue returns the live aggregate snapshot for a location's active
// queue. Used by the kiosk board.
func (s *QueueService) ActiveQueue(ctx context.Context, locationID string) (*models.Queue, error) {
	return s.repo.GetActiveByLocation(ctx, locationID)
}
