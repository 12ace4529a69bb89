package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"waitline/services"
)

type QueueHandler struct {
	app          *pocketbase.PocketBase
	queueService *services.QueueService
}

func NewQueueHandler(app *pocketbase.PocketBase, queueService *services.QueueService) *QueueHandler {
	return &QueueHandler{
		app:          app,
		queueService: queueService,
	}
}

// AddCustomer puts a walk-in customer at the back of the queue.
func (h *QueueHandler) AddCustomer(e *core.RequestEvent) error {
	queueID := e.Request.PathValue("queueId")

	var req struct {
		CustomerID    string `json:"customer_id"`
		CustomerName  string `json:"customer_name"`
		ServiceTypeID string `json:"service_type_id"`
		StaffID       string `json:"staff_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.CustomerName == "" {
		return apis.NewBadRequestError("customer_name is required", nil)
	}

	entry, err := h.queueService.AddCustomer(
		e.Request.Context(), queueID,
		req.CustomerID, req.CustomerName, req.ServiceTypeID, req.StaffID,
	)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, entry)
}

// CallNext calls the first waiting customer for the authenticated staff
// member (or an explicit staff_id).
func (h *QueueHandler) CallNext(e *core.RequestEvent) error {
	queueID := e.Request.PathValue("queueId")

	var req struct {
		StaffID string `json:"staff_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.StaffID == "" && e.Auth != nil {
		req.StaffID = e.Auth.Id
	}
	if req.StaffID == "" {
		return apis.NewBadRequestError("staff_id is required", nil)
	}

	entry, err := h.queueService.CallNext(e.Request.Context(), queueID, req.StaffID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, entry)
}

func (h *QueueHandler) CheckIn(e *core.RequestEvent) error {
	entryID := e.Request.PathValue("entryId")

	entry, err := h.queueService.CheckIn(e.Request.Context(), entryID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, entry)
}

func (h *QueueHandler) CompleteService(e *core.RequestEvent) error {
	entryID := e.Request.PathValue("entryId")

	var req struct {
		DurationMinutes int    `json:"duration_minutes"`
		StaffID         string `json:"staff_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.DurationMinutes < 0 {
		return apis.NewBadRequestError("duration_minutes must not be negative", nil)
	}
	if req.StaffID == "" && e.Auth != nil {
		req.StaffID = e.Auth.Id
	}

	entry, err := h.queueService.CompleteService(e.Request.Context(), entryID, req.DurationMinutes, req.StaffID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, entry)
}

func (h *QueueHandler) Cancel(e *core.RequestEvent) error {
	entryID := e.Request.PathValue("entryId")

	entry, err := h.queueService.Cancel(e.Request.Context(), entryID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, entry)
}

func (h *QueueHandler) MarkNoShow(e *core.RequestEvent) error {
	entryID := e.Request.PathValue("entryId")

	entry, err := h.queueService.MarkNoShow(e.Request.Context(), entryID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, entry)
}

// GetEntryWait returns one entry's live wait estimate.
func (h *QueueHandler) GetEntryWait(e *core.RequestEvent) error {
	entryID := e.Request.PathValue("entryId")

	wait, err := h.queueService.EstimateEntryWait(e.Request.Context(), entryID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, wait)
}
