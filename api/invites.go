package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/presspool/presspool/internal/engine"
	"github.com/presspool/presspool/pkg/models"
)

// InvitesHandler serves the speaker side: accepting or declining invites,
// submitting answers, and listing the requests the speaker takes part in.
type InvitesHandler struct {
	engine *engine.Engine
}

func NewInvitesHandler(eng *engine.Engine) *InvitesHandler {
	return &InvitesHandler{engine: eng}
}

// Accept claims the request for the calling speaker. First acceptance wins;
// the loser of the race gets a conflict, not a fault.
func (h *InvitesHandler) Accept(w http.ResponseWriter, r *http.Request) {
	speakerID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.engine.Accept(r.Context(), id, speakerID); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, map[string]string{"status": "accepted"}, http.StatusOK)
}

// Decline marks the speaker's invite declined. Declining after the race is
// already resolved is reported as a no-op, not an error.
func (h *InvitesHandler) Decline(w http.ResponseWriter, r *http.Request) {
	speakerID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.engine.Decline(r.Context(), id, speakerID)
	switch {
	case err == nil:
		writeJSON(w, map[string]string{"status": "declined"}, http.StatusOK)
	case errors.Is(err, models.ErrInviteNotPending):
		// the race already resolved without this speaker; nothing to decline
		writeJSON(w, map[string]string{"status": "already_resolved"}, http.StatusOK)
	default:
		writeEngineError(w, err)
	}
}

type submitAnswerRequest struct {
	Text string `json:"text"`
}

// SubmitAnswer records the bound speaker's answer (or resubmission after a
// revision request).
func (h *InvitesHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	speakerID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if body.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	if err := h.engine.SubmitAnswer(r.Context(), id, speakerID, body.Text); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, map[string]string{"status": "answered"}, http.StatusOK)
}

// ListMine returns the requests the speaker participates in, with that
// speaker's invite state.
func (h *InvitesHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	speakerID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	_, srs, err := h.engine.ListRequestsFor(r.Context(), speakerID, models.RoleSpeaker)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if srs == nil {
		srs = []models.SpeakerRequest{}
	}

	writeJSON(w, srs, http.StatusOK)
}
