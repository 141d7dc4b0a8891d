package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/presspool/presspool/pkg/models"
	"github.com/presspool/presspool/pkg/repository"
)

type AuthHandler struct {
	userRepo      repository.UserRepo
	jwtSecret     string
	tokenDuration time.Duration
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(ur repository.UserRepo, jwtSecret string, tokenDuration time.Duration) *AuthHandler {
	return &AuthHandler{userRepo: ur, jwtSecret: jwtSecret, tokenDuration: tokenDuration}
}

type signupRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	Contact     string `json:"contact"`
	Tariff      string `json:"tariff"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Signup registers a user in the pending state. An admin has to approve the
// account before signin succeeds.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}

	role := models.Role(req.Role)
	if role != models.RoleJournalist && role != models.RoleSpeaker {
		http.Error(w, "Role must be journalist or speaker", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	user := models.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		Role:         role,
		Contact:      req.Contact,
		Tariff:       req.Tariff,
		Active:       false,
		PasswordHash: string(hash),
	}

	id, err := h.userRepo.CreateUser(r.Context(), &user)
	if err != nil {
		http.Error(w, "Error creating user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"id": id, "status": "pending_approval"}, http.StatusCreated)
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}

	user, err := h.userRepo.GetUserByEmail(r.Context(), req.Email)
	if err != nil || user == nil {
		http.Error(w, "Credentials not found", http.StatusUnauthorized)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		http.Error(w, "Credentials not found", http.StatusUnauthorized)
		return
	}
	if !user.Active {
		http.Error(w, "Account pending approval", http.StatusForbidden)
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"email":   user.Email,
		"exp":     time.Now().Add(h.tokenDuration).Unix(),
	})
	tokenStr, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		http.Error(w, "Error signing token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, authResponse{Token: tokenStr}, http.StatusOK)
}

func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	// For stateless JWT, signout is client-side (just delete token)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, `{"message":"signed out"}`)
}
