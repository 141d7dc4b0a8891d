package main

import (
	"context"
	"flag"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/presspool/presspool/api"
	"github.com/presspool/presspool/db"
	"github.com/presspool/presspool/internal/config"
	idb "github.com/presspool/presspool/internal/db"
	"github.com/presspool/presspool/internal/engine"
	"github.com/presspool/presspool/internal/jobs"
	"github.com/presspool/presspool/internal/notify"
	"github.com/presspool/presspool/internal/repository/sqlite"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	api.SetLogger(logger)

	log.Printf("Starting presspool server version %s (built at %s)", version, buildTime)

	ctx := context.Background()

	// Open database connection and apply migrations
	conn, err := idb.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := idb.Migrate(ctx, conn, db.Migrations); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	repo := sqlite.New(conn, logger)

	queue := notify.NewQueue(repo)
	eng := engine.New(repo, repo, repo, queue, logger)

	var deliverer notify.Deliverer
	if cfg.Notify.WebhookURL != "" {
		deliverer = notify.NewWebhookDeliverer(cfg.Notify.WebhookURL, cfg.Notify.Timeout)
	} else {
		deliverer = notify.NewLogDeliverer(logger)
	}
	pool := jobs.NewWorkerPool(repo, map[string]jobs.Handler{
		notify.JobTypeDeliver: notify.Handler(repo, deliverer, logger),
	}, logger, cfg.Workers)
	pool.Start(ctx)

	intakeSchema, err := fs.ReadFile(db.SeedFiles, "seed/request_intake_v1.json")
	if err != nil {
		log.Fatalf("Failed to read intake schema: %v", err)
	}

	handler, err := api.SetupRoutes(cfg, version, buildTime, repo, eng, intakeSchema)
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	pool.Stop()

	// Close database connection
	if err := conn.Close(); err != nil {
		log.Printf("Error closing DB: %v", err)
	}

	log.Println("Server exited")
}
