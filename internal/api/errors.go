package api

import (
	"errors"
	"net/http"
	"roulette_backend/internal/model"
	"roulette_backend/pkg/logger"
	"roulette_backend/pkg/resp"
)

// StatusFor maps a service error kind to its HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as a JSON error body.
// Infrastructure details are logged, not sent to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)

	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		logger.Error("Storage failure", "path", r.URL.Path, "error", err)
		msg = "service temporarily unavailable"
	case http.StatusInternalServerError:
		logger.Error("Unexpected error", "path", r.URL.Path, "error", err)
		msg = "internal server error"
	}

	resp.WriteError(w, status, msg)
}
