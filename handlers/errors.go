package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"

	"waitline/internal/status"
)

// apiError maps business errors to API responses. Rule violations come back
// as 4xx so callers can tell "your request was invalid" from "try again
// later"; anything unrecognized is an infrastructure failure.
func apiError(err error) error {
	switch {
	case errors.Is(err, status.ErrQueueNotFound),
		errors.Is(err, status.ErrEntryNotFound),
		errors.Is(err, status.ErrLocationNotFound):
		return apis.NewNotFoundError(err.Error(), err)
	case errors.Is(err, status.ErrQueueFull),
		errors.Is(err, status.ErrQueueInactive),
		errors.Is(err, status.ErrEmptyQueue),
		errors.Is(err, status.ErrInvalidTransition):
		return apis.NewBadRequestError(err.Error(), err)
	case errors.Is(err, status.ErrConcurrencyConflict):
		return apis.NewApiError(http.StatusConflict, "The queue was busy, please retry.", err)
	case errors.Is(err, status.ErrInvalidKioskKey):
		return apis.NewUnauthorizedError(err.Error(), err)
	default:
		return apis.NewInternalServerError("Something went wrong", err)
	}
}
