package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"waitline/config"
	"waitline/internal/status"
	"waitline/utils"
)

// historyWindow caps how many recent completions feed the historical average.
const historyWindow = 50

// LocationService owns location facts the queue engine consumes: existence,
// the historical average service time, and the kiosk access key.
type LocationService struct {
	app core.App
	cfg *config.Config
}

func NewLocationService(app core.App, cfg *config.Config) *LocationService {
	return &LocationService{app: app, cfg: cfg}
}

func (s *LocationService) Exists(ctx context.Context, locationID string) (bool, error) {
	_, err := s.app.FindRecordById("locations", locationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("load location %s: %w", locationID, err)
	}
	return true, nil
}

// AverageServiceMinutes averages the durations of the location's recent
// completed services. Falls back to the location's configured default, then
// the process-wide default, when there is no history yet. Decimal math keeps
// the running sum exact before the final rounding.
func (s *LocationService) AverageServiceMinutes(ctx context.Context, locationID string) (float64, error) {
	var durations []int
	err := s.app.DB().NewQuery(
		`SELECT e.duration_minutes
		 FROM queue_entries e
		 JOIN queues q ON q.id = e.queue
		 WHERE q.location = {:location} AND e.status = 'completed' AND e.duration_minutes > 0
		 ORDER BY e.completed_at DESC
		 LIMIT {:limit}`,
	).Bind(dbx.Params{
		"location": locationID,
		"limit":    historyWindow,
	}).WithContext(ctx).Column(&durations)
	if err != nil {
		return 0, fmt.Errorf("load service history for location %s: %w", locationID, err)
	}

	if len(durations) == 0 {
		return s.defaultServiceMinutes(locationID), nil
	}

	sum := decimal.Zero
	for _, d := range durations {
		sum = sum.Add(decimal.NewFromInt(int64(d)))
	}
	avg, _ := sum.Div(decimal.NewFromInt(int64(len(durations)))).Round(1).Float64()
	return avg, nil
}

func (s *LocationService) defaultServiceMinutes(locationID string) float64 {
	rec, err := s.app.FindRecordById("locations", locationID)
	if err == nil {
		if minutes := rec.GetFloat("default_service_minutes"); minutes > 0 {
			return minutes
		}
	}
	return s.cfg.DefaultAvgServiceMinutes
}

// RotateKioskKey provisions a fresh kiosk access key for the location and
// returns the plaintext exactly once; only the bcrypt hash is stored.
func (s *LocationService) RotateKioskKey(ctx context.Context, locationID string) (string, error) {
	rec, err := s.app.FindRecordById("locations", locationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", status.ErrLocationNotFound
		}
		return "", fmt.Errorf("load location %s: %w", locationID, err)
	}

	key, err := utils.GenerateCode(16)
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	rec.Set("kiosk_key_hash", string(hash))
	if err := s.app.Save(rec); err != nil {
		return "", fmt.Errorf("save kiosk key for location %s: %w", locationID, err)
	}
	return key, nil
}

// VerifyKioskKey checks a kiosk's access key against the stored hash.
func (s *LocationService) VerifyKioskKey(ctx context.Context, locationID, key string) error {
	rec, err := s.app.FindRecordById("locations", locationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.ErrLocationNotFound
		}
		return fmt.Errorf("load location %s: %w", locationID, err)
	}

	hash := rec.GetString("kiosk_key_hash")
	if hash == "" {
		return status.ErrInvalidKioskKey
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) != nil {
		return status.ErrInvalidKioskKey
	}
	return nil
}
