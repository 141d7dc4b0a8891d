package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/presspool/presspool/pkg/models"
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

// writeEngineError maps engine error kinds to HTTP statuses. Race outcomes
// (invite no longer pending, request already bound) are conflicts, not
// faults: the caller was simply too late.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, map[string]string{"error": "not found"}, http.StatusNotFound)
	case errors.Is(err, models.ErrInviteNotPending), errors.Is(err, models.ErrRequestAlreadyBound):
		writeJSON(w, map[string]string{"error": "too late, the request is already resolved"}, http.StatusConflict)
	case errors.Is(err, models.ErrInvalidNegotiationState):
		writeJSON(w, map[string]string{"error": "operation out of sequence"}, http.StatusConflict)
	case errors.Is(err, models.ErrInvalidInput):
		writeJSON(w, map[string]string{"error": err.Error()}, http.StatusBadRequest)
	case errors.Is(err, models.ErrEmptyCandidateSet):
		writeJSON(w, map[string]string{"error": "no speakers available for this specialization"}, http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrStoreUnavailable):
		writeJSON(w, map[string]string{"error": "temporarily unavailable, try again"}, http.StatusServiceUnavailable)
	default:
		logger.Error("engine error", slog.Any("err", err))
		writeJSON(w, map[string]string{"error": "internal error"}, http.StatusInternalServerError)
	}
}
