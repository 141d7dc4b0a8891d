package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/qri-io/jsonschema"

	"github.com/presspool/presspool/internal/engine"
	"github.com/presspool/presspool/pkg/models"
)

// RequestsHandler serves the journalist side: creating requests, listing
// them, retracting them, and driving the answer negotiation. Handlers parse
// and validate; every state decision belongs to the engine.
type RequestsHandler struct {
	engine       *engine.Engine
	intakeSchema *jsonschema.Schema
}

// NewRequestsHandler compiles the embedded intake schema once at setup.
func NewRequestsHandler(eng *engine.Engine, intakeSchema []byte) (*RequestsHandler, error) {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(intakeSchema, rs); err != nil {
		return nil, fmt.Errorf("parse intake schema: %w", err)
	}

	return &RequestsHandler{engine: eng, intakeSchema: rs}, nil
}

type createRequestRequest struct {
	SpecID     int64   `json:"spec_id"`
	Title      string  `json:"title"`
	Deadline   string  `json:"deadline"`
	Format     string  `json:"format"`
	Content    string  `json:"content"`
	SpeakerIDs []int64 `json:"speaker_ids"`
}

type createRequestResponse struct {
	ID int64 `json:"id"`
}

func (h *RequestsHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	journalistID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	keyErrs, err := h.intakeSchema.ValidateBytes(ctx, body)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(keyErrs) > 0 {
		http.Error(w, fmt.Sprintf("invalid request body: %s", keyErrs[0].Message), http.StatusBadRequest)
		return
	}

	var req createRequestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	id, err := h.engine.CreateRequest(ctx, engine.CreateRequestInput{
		JournalistID: journalistID,
		SpecID:       req.SpecID,
		Title:        req.Title,
		Deadline:     req.Deadline,
		Format:       req.Format,
		Content:      req.Content,
		SpeakerIDs:   req.SpeakerIDs,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, createRequestResponse{ID: id}, http.StatusCreated)
}

func (h *RequestsHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	journalistID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reqs, _, err := h.engine.ListRequestsFor(r.Context(), journalistID, models.RoleJournalist)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if reqs == nil {
		reqs = []models.Request{}
	}

	writeJSON(w, reqs, http.StatusOK)
}

func (h *RequestsHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.ownRequest(w, r)
	if !ok {
		return
	}

	writeJSON(w, req, http.StatusOK)
}

func (h *RequestsHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	req, ok := h.ownRequest(w, r)
	if !ok {
		return
	}

	invites, err := h.engine.ListInvites(r.Context(), req.ID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if invites == nil {
		invites = []models.Invite{}
	}

	writeJSON(w, invites, http.StatusOK)
}

// CancelRequest retracts every pending invite and, when nobody accepted yet,
// cancels the request itself. A request that is already bound keeps its
// speaker; the response echoes the status the request ended up in.
func (h *RequestsHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.ownRequest(w, r)
	if !ok {
		return
	}

	if err := h.engine.CancelRemaining(r.Context(), req.ID); err != nil {
		writeEngineError(w, err)
		return
	}

	req, err := h.engine.GetRequest(r.Context(), req.ID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, map[string]string{"status": string(req.Status)}, http.StatusOK)
}

type reviseRequest struct {
	Comment string `json:"comment"`
}

// RequestRevision sends the bound speaker's answer back with a comment.
func (h *RequestsHandler) RequestRevision(w http.ResponseWriter, r *http.Request) {
	req, ok := h.ownRequest(w, r)
	if !ok {
		return
	}

	var body reviseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if req.ChosenSpeakerID == nil {
		writeEngineError(w, models.ErrInvalidNegotiationState)
		return
	}

	if err := h.engine.RequestRevision(r.Context(), req.ID, *req.ChosenSpeakerID, body.Comment); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, map[string]string{"status": "revision_requested"}, http.StatusOK)
}

// AcceptAnswer accepts the bound speaker's answer and completes the request.
func (h *RequestsHandler) AcceptAnswer(w http.ResponseWriter, r *http.Request) {
	req, ok := h.ownRequest(w, r)
	if !ok {
		return
	}
	if req.ChosenSpeakerID == nil {
		writeEngineError(w, models.ErrInvalidNegotiationState)
		return
	}

	if err := h.engine.AcceptAnswer(r.Context(), req.ID, *req.ChosenSpeakerID); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, map[string]string{"status": "completed"}, http.StatusOK)
}

// ownRequest resolves the request in the path and enforces that it belongs to
// the calling journalist. Someone else's request reads as not found, so the
// response does not reveal whether the id exists.
func (h *RequestsHandler) ownRequest(w http.ResponseWriter, r *http.Request) (*models.Request, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	journalistID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	req, err := h.engine.GetRequest(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return nil, false
	}
	if req.JournalistID != journalistID {
		writeEngineError(w, models.ErrNotFound)
		return nil, false
	}

	return req, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
