package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/presspool/presspool/internal/config"
)

func TestValidate_InsecureJWT_FailsWhenNotDevelopment(t *testing.T) {
	os.Setenv("PRESSPOOL_ENV", "production")
	defer os.Unsetenv("PRESSPOOL_ENV")

	cfg := &config.Config{
		Addr:          ":8080",
		JWTSecret:     "supersecretkey",
		APITimeout:    5 * time.Second,
		DatabasePath:  "presspool.db",
		TokenDuration: 1 * time.Hour,
	}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for insecure JWT in non-development env")
	}
}

func TestValidate_InsecureJWT_AllowsDevelopment(t *testing.T) {
	os.Setenv("PRESSPOOL_ENV", "development")
	defer os.Unsetenv("PRESSPOOL_ENV")

	cfg := &config.Config{
		Addr:          ":8080",
		JWTSecret:     "supersecretkey",
		APITimeout:    5 * time.Second,
		DatabasePath:  "presspool.db",
		TokenDuration: 1 * time.Hour,
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected Validate to succeed in development env, got: %v", err)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	cfg := &config.Config{
		JWTSecret:     "strongsecret",
		DatabasePath:  "presspool.db",
		TokenDuration: 1 * time.Hour,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for empty addr")
	}

	cfg = &config.Config{
		Addr:          ":8080",
		JWTSecret:     "strongsecret",
		TokenDuration: 1 * time.Hour,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for empty database_path")
	}

	cfg = &config.Config{
		Addr:         ":8080",
		JWTSecret:    "strongsecret",
		DatabasePath: "presspool.db",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for non-positive token_duration")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	// Ensure environment does not interfere
	_ = os.Unsetenv("PRESSPOOL_ADDR")
	_ = os.Unsetenv("PRESSPOOL_JWT_SECRET")
	_ = os.Unsetenv("PRESSPOOL_DATABASE_PATH")
	_ = os.Unsetenv("PRESSPOOL_WORKERS")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error for empty path: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":8080")
	}
	if cfg.DatabasePath != "presspool.db" {
		t.Fatalf("unexpected DatabasePath: got %q want %q", cfg.DatabasePath, "presspool.db")
	}
	if cfg.APITimeout != 15*time.Second {
		t.Fatalf("unexpected APITimeout: got %v want %v", cfg.APITimeout, 15*time.Second)
	}
	if cfg.TokenDuration != 24*time.Hour {
		t.Fatalf("unexpected TokenDuration: got %v want %v", cfg.TokenDuration, 24*time.Hour)
	}
	if cfg.Workers != 2 {
		t.Fatalf("unexpected Workers: got %d want 2", cfg.Workers)
	}
	if cfg.Notify.Timeout != 10*time.Second {
		t.Fatalf("unexpected Notify.Timeout: got %v want %v", cfg.Notify.Timeout, 10*time.Second)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	os.Setenv("PRESSPOOL_ADDR", ":9999")
	os.Setenv("PRESSPOOL_WORKERS", "7")
	os.Setenv("PRESSPOOL_WEBHOOK_URL", "http://gateway.local/deliver")
	defer func() {
		os.Unsetenv("PRESSPOOL_ADDR")
		os.Unsetenv("PRESSPOOL_WORKERS")
		os.Unsetenv("PRESSPOOL_WEBHOOK_URL")
	}()

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("unexpected Addr: got %q", cfg.Addr)
	}
	if cfg.Workers != 7 {
		t.Fatalf("unexpected Workers: got %d", cfg.Workers)
	}
	if cfg.Notify.WebhookURL != "http://gateway.local/deliver" {
		t.Fatalf("unexpected WebhookURL: got %q", cfg.Notify.WebhookURL)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	f, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(f.Name())
	f.Close()

	content := []byte("addr: \":9090\"\njwt_secret: \"filekey\"\ntimeout: \"30s\"\ndatabase_path: \"test.db\"\ntoken_duration: \"2h\"\nworkers: 4\nnotify:\n  webhook_url: \"http://hooks.local\"\n")
	if err := os.WriteFile(f.Name(), content, 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := config.LoadConfig(f.Name())
	if err != nil {
		t.Fatalf("LoadConfig returned error for file: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":9090")
	}
	if cfg.JWTSecret != "filekey" {
		t.Fatalf("unexpected JWTSecret: got %q want %q", cfg.JWTSecret, "filekey")
	}
	if cfg.APITimeout != 30*time.Second {
		t.Fatalf("unexpected APITimeout: got %v want %v", cfg.APITimeout, 30*time.Second)
	}
	if cfg.TokenDuration != 2*time.Hour {
		t.Fatalf("unexpected TokenDuration: got %v want %v", cfg.TokenDuration, 2*time.Hour)
	}
	if cfg.Workers != 4 {
		t.Fatalf("unexpected Workers: got %d want 4", cfg.Workers)
	}
	if cfg.Notify.WebhookURL != "http://hooks.local" {
		t.Fatalf("unexpected WebhookURL: got %q", cfg.Notify.WebhookURL)
	}
}

func TestLoadConfig_BadPath(t *testing.T) {
	if _, err := config.LoadConfig("/path/that/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent path, got nil")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	f, err := os.CreateTemp("", "bad-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(f.Name())
	f.Close()

	if err := os.WriteFile(f.Name(), []byte("::: not yaml :::"), 0o600); err != nil {
		t.Fatalf("failed to write bad yaml: %v", err)
	}

	if _, err := config.LoadConfig(f.Name()); err == nil {
		t.Fatalf("expected YAML decode error, got nil")
	}
}
