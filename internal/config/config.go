// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DevSecret is used when JWT_SECRET is unset. It is only suitable for local development.
const DevSecret = "splitgroup-dev-secret-change-me"

// Config holds the server settings.
type Config struct {
	Port        int
	DBPath      string
	JWTSecret   string
	TokenTTL    time.Duration
	MetricsPath string
}

// UsingDevSecret reports whether no JWT secret was configured.
func (c Config) UsingDevSecret() bool {
	return c.JWTSecret == DevSecret
}

// Load reads PORT, DB_PATH, JWT_SECRET, TOKEN_TTL and METRICS_PATH, applying defaults
// for anything unset.
func Load() (Config, error) {
	cfg := Config{
		Port:        8080,
		DBPath:      getEnv("DB_PATH", "./data/splitgroup.db"),
		JWTSecret:   getEnv("JWT_SECRET", DevSecret),
		TokenTTL:    24 * time.Hour,
		MetricsPath: getEnv("METRICS_PATH", "/metrics"),
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_TTL %q", v)
		}
		cfg.TokenTTL = ttl
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
