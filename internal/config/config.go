package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const insecureDefaultSecret = "supersecretkey"

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	Workers       int           `yaml:"workers"`
	Notify        NotifyConfig  `yaml:"notify"`
}

type NotifyConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// LoadConfig builds the config from env defaults and, when a path is given,
// overlays the yaml file on top.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("PRESSPOOL_ADDR", ":8080"),
		JWTSecret:     getEnv("PRESSPOOL_JWT_SECRET", insecureDefaultSecret),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("PRESSPOOL_DATABASE_PATH", "presspool.db"),
		TokenDuration: 24 * time.Hour,
		Workers:       getEnvInt("PRESSPOOL_WORKERS", 2),
		Notify: NotifyConfig{
			WebhookURL: getEnv("PRESSPOOL_WEBHOOK_URL", ""),
			Timeout:    10 * time.Second,
		},
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate rejects configurations that must not reach production. The
// insecure default JWT secret is only tolerated in development.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("token_duration must be positive")
	}
	if c.JWTSecret == "" || c.JWTSecret == insecureDefaultSecret {
		if os.Getenv("PRESSPOOL_ENV") != "development" {
			return fmt.Errorf("jwt_secret must be set to a non-default value outside development")
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return def
}
