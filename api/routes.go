package api

import (
	"fmt"

	"github.com/gorilla/mux"

	"github.com/presspool/presspool/internal/config"
	"github.com/presspool/presspool/internal/engine"
	"github.com/presspool/presspool/internal/repository/sqlite"
	"github.com/presspool/presspool/pkg/models"
)

// SetupRoutes wires handlers to the router. The repo serves identity and
// taxonomy lookups directly; everything touching request/invite state goes
// through the engine.
func SetupRoutes(cfg *config.Config, version, buildTime string, repo *sqlite.SQLiteRepo, eng *engine.Engine, intakeSchema []byte) (*mux.Router, error) {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, cfg.JWTSecret, cfg.TokenDuration)
	requestsHandler, err := NewRequestsHandler(eng, intakeSchema)
	if err != nil {
		return nil, fmt.Errorf("requests handler: %w", err)
	}
	invitesHandler := NewInvitesHandler(eng)
	adminHandler := NewAdminHandler(repo, repo)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	apiV1.HandleFunc("/auth/signout", authHandler.Signout).Methods("POST")
	apiV1.HandleFunc("/specializations", adminHandler.ListSpecializations).Methods("GET")

	// Journalist endpoints
	journalist := apiV1.PathPrefix("/requests").Subrouter()
	journalist.Use(RequireRole(models.RoleJournalist))
	journalist.HandleFunc("", requestsHandler.CreateRequest).Methods("POST")
	journalist.HandleFunc("", requestsHandler.ListRequests).Methods("GET")
	journalist.HandleFunc("/{id}", requestsHandler.GetRequest).Methods("GET")
	journalist.HandleFunc("/{id}/invites", requestsHandler.ListInvites).Methods("GET")
	journalist.HandleFunc("/{id}/cancel", requestsHandler.CancelRequest).Methods("POST")
	journalist.HandleFunc("/{id}/revise", requestsHandler.RequestRevision).Methods("POST")
	journalist.HandleFunc("/{id}/accept-answer", requestsHandler.AcceptAnswer).Methods("POST")

	// Speaker endpoints
	speaker := apiV1.PathPrefix("/invites").Subrouter()
	speaker.Use(RequireRole(models.RoleSpeaker))
	speaker.HandleFunc("", invitesHandler.ListMine).Methods("GET")
	speaker.HandleFunc("/{id}/accept", invitesHandler.Accept).Methods("POST")
	speaker.HandleFunc("/{id}/decline", invitesHandler.Decline).Methods("POST")
	speaker.HandleFunc("/{id}/answer", invitesHandler.SubmitAnswer).Methods("POST")
	speaker.HandleFunc("/specializations", adminHandler.AssignSpecialization).Methods("POST")

	// Admin endpoints
	admin := apiV1.PathPrefix("/admin").Subrouter()
	admin.Use(RequireRole(models.RoleAdmin))
	admin.HandleFunc("/users/{id}/approve", adminHandler.ApproveUser).Methods("POST")
	admin.HandleFunc("/users/{id}", adminHandler.RejectUser).Methods("DELETE")
	admin.HandleFunc("/specializations", adminHandler.AddSpecialization).Methods("POST")

	return r, nil
}
