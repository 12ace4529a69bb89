package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"

	"waitline/services"
)

type AdminHandler struct {
	app             *pocketbase.PocketBase
	queueService    *services.QueueService
	locationService *services.LocationService
	avgCache        *services.AverageWaitTimeCache
	redis           *redis.Client
}

func NewAdminHandler(
	app *pocketbase.PocketBase,
	queueService *services.QueueService,
	locationService *services.LocationService,
	avgCache *services.AverageWaitTimeCache,
	redisClient *redis.Client,
) *AdminHandler {
	return &AdminHandler{
		app:             app,
		queueService:    queueService,
		locationService: locationService,
		avgCache:        avgCache,
		redis:           redisClient,
	}
}

func (h *AdminHandler) requireSuperuser(e *core.RequestEvent) error {
	if e.Auth == nil || !e.Auth.IsSuperuser() {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}
	return nil
}

// Activate opens a queue for new entries.
func (h *AdminHandler) Activate(e *core.RequestEvent) error {
	if err := h.requireSuperuser(e); err != nil {
		return err
	}

	queueID := e.Request.PathValue("queueId")
	if err := h.queueService.SetActive(e.Request.Context(), queueID, true); err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"queue_id": queueID, "active": true})
}

// Deactivate stops a queue from accepting new entries.
func (h *AdminHandler) Deactivate(e *core.RequestEvent) error {
	if err := h.requireSuperuser(e); err != nil {
		return err
	}

	queueID := e.Request.PathValue("queueId")
	if err := h.queueService.SetActive(e.Request.Context(), queueID, false); err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"queue_id": queueID, "active": false})
}

// SetAverageWait writes the per-location override the estimator prefers over
// the persisted historical average.
func (h *AdminHandler) SetAverageWait(e *core.RequestEvent) error {
	if err := h.requireSuperuser(e); err != nil {
		return err
	}

	locationID := e.Request.PathValue("locationId")

	var req struct {
		Minutes float64 `json:"minutes"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Minutes <= 0 {
		return apis.NewBadRequestError("minutes must be positive", nil)
	}

	h.avgCache.SetAverage(locationID, req.Minutes)
	return e.JSON(http.StatusOK, map[string]any{
		"location_id": locationID,
		"minutes":     req.Minutes,
	})
}

// SweepLate forces a late-cap eviction pass on one queue.
func (h *AdminHandler) SweepLate(e *core.RequestEvent) error {
	if err := h.requireSuperuser(e); err != nil {
		return err
	}

	queueID := e.Request.PathValue("queueId")
	removed, err := h.queueService.RemoveLateCustomers(e.Request.Context(), queueID, time.Now())
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"queue_id": queueID, "removed": removed})
}

// Seed bulk-inserts synthetic customers for load scenarios.
func (h *AdminHandler) Seed(e *core.RequestEvent) error {
	if err := h.requireSuperuser(e); err != nil {
		return err
	}

	queueID := e.Request.PathValue("queueId")

	var req struct {
		Count  int    `json:"count"`
		Prefix string `json:"prefix"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Count <= 0 || req.Count > 1000 {
		return apis.NewBadRequestError("count must be between 1 and 1000", nil)
	}
	if req.Prefix == "" {
		req.Prefix = "load"
	}

	customers := make([]services.SeedCustomer, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		customers = append(customers, services.SeedCustomer{
			CustomerID: fmt.Sprintf("%s-%d", req.Prefix, i+1),
			Name:       fmt.Sprintf("%s customer %d", req.Prefix, i+1),
		})
	}

	added, err := h.queueService.BulkAdd(e.Request.Context(), queueID, customers)
	if err != nil {
		// Partial batches may have landed before the failure.
		return e.JSON(http.StatusOK, map[string]any{
			"queue_id": queueID,
			"added":    added,
			"error":    err.Error(),
		})
	}
	return e.JSON(http.StatusOK, map[string]any{"queue_id": queueID, "added": added})
}

// RotateKioskKey provisions a fresh kiosk key for a location and returns the
// plaintext once.
func (h *AdminHandler) RotateKioskKey(e *core.RequestEvent) error {
	if err := h.requireSuperuser(e); err != nil {
		return err
	}

	locationID := e.Request.PathValue("locationId")
	key, err := h.locationService.RotateKioskKey(e.Request.Context(), locationID)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"location_id": locationID, "kiosk_key": key})
}

// Dashboard reports live entry counts per location and status.
func (h *AdminHandler) Dashboard(e *core.RequestEvent) error {
	if err := h.requireSuperuser(e); err != nil {
		return err
	}

	var rows []struct {
		LocationID string `db:"location_id"`
		Status     string `db:"status"`
		Count      int    `db:"cnt"`
	}
	err := h.app.DB().NewQuery(
		`SELECT q.location AS location_id, e.status AS status, COUNT(*) AS cnt
		 FROM queue_entries e
		 JOIN queues q ON q.id = e.queue
		 WHERE e.status IN ('waiting', 'called', 'checked_in')
		 GROUP BY q.location, e.status`,
	).WithContext(e.Request.Context()).All(&rows)
	if err != nil {
		return apis.NewInternalServerError("Failed to load dashboard", err)
	}

	locations := map[string]map[string]int{}
	for _, row := range rows {
		if locations[row.LocationID] == nil {
			locations[row.LocationID] = map[string]int{}
		}
		locations[row.LocationID][row.Status] = row.Count
	}

	return e.JSON(http.StatusOK, map[string]any{
		"generated_at": time.Now(),
		"locations":    locations,
	})
}
