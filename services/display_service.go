package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// BoardEntry is one row of the kiosk display.
type BoardEntry struct {
	Token            string `json:"token"`
	Name             string `json:"name"`
	Position         int    `json:"position"`
	Status           string `json:"status"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	Display          string `json:"display"`
}

// Board is the customer-facing state of one location's queue.
type Board struct {
	LocationID     string       `json:"location_id"`
	QueueID        string       `json:"queue_id"`
	AvailableStaff int          `json:"available_staff"`
	GeneratedAt    time.Time    `json:"generated_at"`
	Entries        []BoardEntry `json:"entries"`
}

// DisplayService builds kiosk boards and caches them briefly in Redis so a
// wall of kiosks polling at once does not hammer storage. Estimates go through
// the same EstimateWait the single-entry endpoint uses.
type DisplayService struct {
	Redis  *redis.Client
	queues *QueueService
	ttl    time.Duration
}

func NewDisplayService(redisClient *redis.Client, queues *QueueService, ttl time.Duration) *DisplayService {
	return &DisplayService{
		Redis:  redisClient,
		queues: queues,
		ttl:    ttl,
	}
}

func boardKey(locationID string) string {
	return fmt.Sprintf("board:%s", locationID)
}

// GetBoard returns the cached board for a location, rebuilding it on a miss.
func (s *DisplayService) GetBoard(ctx context.Context, locationID string) (*Board, error) {
	key := boardKey(locationID)

	cached, err := s.Redis.Get(ctx, key).Result()
	if err == nil {
		var board Board
		if err := json.Unmarshal([]byte(cached), &board); err == nil {
			return &board, nil
		}
		// Corrupt cache entry, fall through and rebuild.
	} else if err != redis.Nil {
		log.Printf("Error reading board cache for location %s: %v", locationID, err)
	}

	board, err := s.buildBoard(ctx, locationID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(board); err == nil {
		if err := s.Redis.Set(ctx, key, string(data), s.ttl).Err(); err != nil {
			log.Printf("Error caching board for location %s: %v", locationID, err)
		}
	}
	return board, nil
}

// InvalidateBoard drops the cached board, used after external queue edits.
func (s *DisplayService) InvalidateBoard(ctx context.Context, locationID string) {
	if err := s.Redis.Del(ctx, boardKey(locationID)).Err(); err != nil {
		log.Printf("Error invalidating board cache for location %s: %v", locationID, err)
	}
}

func (s *DisplayService) buildBoard(ctx context.Context, locationID string) (*Board, error) {
	q, err := s.queues.ActiveQueue(ctx, locationID)
	if err != nil {
		return nil, err
	}

	snap, err := s.queues.Availability(ctx, locationID)
	if err != nil {
		return nil, err
	}

	active := q.ActiveEntries()
	board := &Board{
		LocationID:     locationID,
		QueueID:        q.ID,
		AvailableStaff: snap.AvailableStaff,
		GeneratedAt:    time.Now(),
		Entries:        make([]BoardEntry, 0, len(active)),
	}

	for _, e := range active {
		minutes := EstimateWait(e, active, snap)
		board.Entries = append(board.Entries, BoardEntry{
			Token:            e.Token,
			Name:             maskName(e.CustomerName),
			Position:         e.Position,
			Status:           string(e.Status),
			EstimatedMinutes: minutes,
			Display:          FormatWait(minutes),
		})
	}
	return board, nil
}

// maskName shortens "Jane Doe" to "Jane D." for the public display.
func maskName(name string) string {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return name
	}
	return fmt.Sprintf("%s %s.", parts[0], strings.ToUpper(parts[len(parts)-1][:1]))
}
