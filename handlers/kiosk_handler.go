package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"waitline/services"
)

type KioskHandler struct {
	app             *pocketbase.PocketBase
	displayService  *services.DisplayService
	locationService *services.LocationService
}

func NewKioskHandler(app *pocketbase.PocketBase, displayService *services.DisplayService, locationService *services.LocationService) *KioskHandler {
	return &KioskHandler{
		app:             app,
		displayService:  displayService,
		locationService: locationService,
	}
}

// GetBoard returns the public display board for a location. Kiosks
// authenticate with the per-location key in the X-Kiosk-Key header.
func (h *KioskHandler) GetBoard(e *core.RequestEvent) error {
	locationID := e.Request.PathValue("locationId")

	key := e.Request.Header.Get("X-Kiosk-Key")
	if err := h.locationService.VerifyKioskKey(e.Request.Context(), locationID, key); err != nil {
		return apiError(err)
	}

	board, err := h.displayService.GetBoard(e.Request.Context(), locationID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, board)
}
