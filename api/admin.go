package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/presspool/presspool/pkg/repository"
)

// AdminHandler covers account approval and the specialization taxonomy that
// feeds the speaker directory.
type AdminHandler struct {
	userRepo repository.UserRepo
	specRepo repository.SpecializationRepo
}

func NewAdminHandler(ur repository.UserRepo, sr repository.SpecializationRepo) *AdminHandler {
	return &AdminHandler{userRepo: ur, specRepo: sr}
}

func (h *AdminHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := h.userRepo.GetUserByID(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	if err := h.userRepo.SetUserActive(r.Context(), id, true); err != nil {
		http.Error(w, "failed to approve user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "approved"}, http.StatusOK)
}

// RejectUser removes a pending account.
func (h *AdminHandler) RejectUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.userRepo.DeleteUser(r.Context(), id); err != nil {
		http.Error(w, "failed to reject user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "rejected"}, http.StatusOK)
}

type addSpecializationRequest struct {
	Name string `json:"name"`
}

func (h *AdminHandler) AddSpecialization(w http.ResponseWriter, r *http.Request) {
	var req addSpecializationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	id, err := h.specRepo.AddSpecialization(r.Context(), req.Name)
	if err != nil {
		http.Error(w, "failed to add specialization", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"id": id, "name": req.Name}, http.StatusCreated)
}

// ListSpecializations is served to every authenticated user, not only admins.
func (h *AdminHandler) ListSpecializations(w http.ResponseWriter, r *http.Request) {
	specs, err := h.specRepo.ListSpecializations(r.Context())
	if err != nil {
		http.Error(w, "failed to list specializations", http.StatusInternalServerError)
		return
	}

	writeJSON(w, specs, http.StatusOK)
}

type assignSpecializationRequest struct {
	SpecID int64 `json:"spec_id"`
}

// AssignSpecialization tags the calling speaker with a specialization.
// Speakers with no tags at all stay generalists, eligible for everything.
func (h *AdminHandler) AssignSpecialization(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req assignSpecializationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.SpecID <= 0 {
		http.Error(w, "spec_id is required", http.StatusBadRequest)
		return
	}

	if err := h.specRepo.AssignSpecialization(r.Context(), userID, req.SpecID); err != nil {
		http.Error(w, "failed to assign specialization", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "assigned"}, http.StatusOK)
}
