package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"waitline/internal/status"
	"waitline/models"
)

// QueueRepository loads and stores queue aggregates. The queue engine is
// persistence-agnostic; this interface is all it knows about storage.
type QueueRepository interface {
	GetByID(ctx context.Context, queueID string) (*models.Queue, error)
	GetByEntryID(ctx context.Context, entryID string) (*models.Queue, error)
	GetActiveByLocation(ctx context.Context, locationID string) (*models.Queue, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
	Save(ctx context.Context, q *models.Queue) error
}

// PBQueueRepository stores aggregates in the "queues" and "queue_entries"
// collections. Saves run in a transaction and are guarded by the queue's
// version column, so two writers racing on the same queue surface as
// ErrConcurrencyConflict instead of silently interleaving.
type PBQueueRepository struct {
	app core.App
}

func NewPBQueueRepository(app core.App) *PBQueueRepository {
	return &PBQueueRepository{app: app}
}

func (r *PBQueueRepository) GetByID(ctx context.Context, queueID string) (*models.Queue, error) {
	rec, err := r.app.FindRecordById("queues", queueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrQueueNotFound
		}
		return nil, fmt.Errorf("load queue %s: %w", queueID, err)
	}
	return r.hydrate(ctx, rec)
}

func (r *PBQueueRepository) GetByEntryID(ctx context.Context, entryID string) (*models.Queue, error) {
	rec, err := r.app.FindRecordById("queue_entries", entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrEntryNotFound
		}
		return nil, fmt.Errorf("load entry %s: %w", entryID, err)
	}
	return r.GetByID(ctx, rec.GetString("queue"))
}

func (r *PBQueueRepository) GetActiveByLocation(ctx context.Context, locationID string) (*models.Queue, error) {
	rec, err := r.app.FindFirstRecordByFilter(
		"queues",
		"location = {:location} && active = true",
		dbx.Params{"location": locationID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrQueueNotFound
		}
		return nil, fmt.Errorf("load active queue for location %s: %w", locationID, err)
	}
	return r.hydrate(ctx, rec)
}

func (r *PBQueueRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	recs, err := r.app.FindAllRecords("queues", dbx.HashExp{"active": true})
	if err != nil {
		return nil, fmt.Errorf("list active queues: %w", err)
	}
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.Id)
	}
	return ids, nil
}

func (r *PBQueueRepository) hydrate(ctx context.Context, rec *core.Record) (*models.Queue, error) {
	q := &models.Queue{
		ID:             rec.Id,
		LocationID:     rec.GetString("location"),
		MaxSize:        rec.GetInt("max_size"),
		LateCapMinutes: rec.GetInt("late_cap_minutes"),
		Active:         rec.GetBool("active"),
		TokenPrefix:    rec.GetString("token_prefix"),
		TokenSeq:       rec.GetInt("token_seq"),
		Version:        rec.GetInt("version"),
		CreatedAt:      rec.GetDateTime("created").Time(),
		UpdatedAt:      rec.GetDateTime("updated").Time(),
	}
	if q.TokenPrefix == "" {
		q.TokenPrefix = "A"
	}

	entryRecs, err := r.app.FindRecordsByFilter(
		"queue_entries",
		"queue = {:queue}",
		"+seq",
		0, 0,
		dbx.Params{"queue": rec.Id},
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load entries for queue %s: %w", rec.Id, err)
	}

	for _, er := range entryRecs {
		q.Entries = append(q.Entries, entryFromRecord(er))
	}
	return q, nil
}

func entryFromRecord(rec *core.Record) *models.QueueEntry {
	e := &models.QueueEntry{
		ID:              rec.Id,
		QueueID:         rec.GetString("queue"),
		CustomerID:      rec.GetString("customer_id"),
		CustomerName:    rec.GetString("customer_name"),
		Position:        rec.GetInt("position"),
		Seq:             rec.GetInt("seq"),
		Status:          models.EntryStatus(rec.GetString("status")),
		Token:           rec.GetString("token"),
		StaffID:         rec.GetString("staff_id"),
		ServiceTypeID:   rec.GetString("service_type_id"),
		DurationMinutes: rec.GetInt("duration_minutes"),
		EnteredAt:       rec.GetDateTime("entered_at").Time(),
	}
	e.CalledAt = timePtr(rec, "called_at")
	e.CheckedInAt = timePtr(rec, "checked_in_at")
	e.CompletedAt = timePtr(rec, "completed_at")
	e.CancelledAt = timePtr(rec, "cancelled_at")
	return e
}

func timePtr(rec *core.Record, field string) *time.Time {
	dt := rec.GetDateTime(field)
	if dt.IsZero() {
		return nil
	}
	t := dt.Time()
	return &t
}

// Save persists the aggregate atomically. The queue row update is guarded by
// the version it was loaded with; zero rows affected means another writer got
// there first.
func (r *PBQueueRepository) Save(ctx context.Context, q *models.Queue) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	newVersion := q.Version + 1
	err := r.app.RunInTransaction(func(txApp core.App) error {
		res, err := txApp.DB().NewQuery(
			`UPDATE queues
			 SET active = {:active}, token_seq = {:token_seq},
			     version = {:new_version}, updated = {:updated}
			 WHERE id = {:id} AND version = {:old_version}`,
		).Bind(dbx.Params{
			"active":      q.Active,
			"token_seq":   q.TokenSeq,
			"new_version": newVersion,
			"updated":     time.Now().UTC().Format("2006-01-02 15:04:05.000Z"),
			"id":          q.ID,
			"old_version": q.Version,
		}).WithContext(ctx).Execute()
		if err != nil {
			return fmt.Errorf("update queue %s: %w", q.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return status.ErrConcurrencyConflict
		}

		col, err := txApp.FindCollectionByNameOrId("queue_entries")
		if err != nil {
			return err
		}

		for _, e := range q.Entries {
			rec, err := txApp.FindRecordById("queue_entries", e.ID)
			if errors.Is(err, sql.ErrNoRows) {
				rec = core.NewRecord(col)
				rec.Id = e.ID
			} else if err != nil {
				return fmt.Errorf("load entry %s: %w", e.ID, err)
			}
			writeEntryRecord(rec, e)
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("save entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	q.Version = newVersion
	return nil
}

func writeEntryRecord(rec *core.Record, e *models.QueueEntry) {
	rec.Set("queue", e.QueueID)
	rec.Set("customer_id", e.CustomerID)
	rec.Set("customer_name", e.CustomerName)
	rec.Set("position", e.Position)
	rec.Set("seq", e.Seq)
	rec.Set("status", string(e.Status))
	rec.Set("token", e.Token)
	rec.Set("staff_id", e.StaffID)
	rec.Set("service_type_id", e.ServiceTypeID)
	rec.Set("duration_minutes", e.DurationMinutes)
	rec.Set("entered_at", e.EnteredAt)
	setTime(rec, "called_at", e.CalledAt)
	setTime(rec, "checked_in_at", e.CheckedInAt)
	setTime(rec, "completed_at", e.CompletedAt)
	setTime(rec, "cancelled_at", e.CancelledAt)
}

func setTime(rec *core.Record, field string, t *time.Time) {
	if t == nil {
		rec.Set(field, "")
		return
	}
	rec.Set(field, *t)
}
