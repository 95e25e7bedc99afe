package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

const devSecret = "dev-secret-change-in-production"

type Config struct {
	Port          string
	Env           string
	DatabaseDSN   string
	SessionSecret string
	SessionTTL    time.Duration
	AppBaseURL    string
	CORSOrigins   []string
	// AdminEmails are promoted to administrator at startup if they have an account.
	AdminEmails   []string
}

func Load() Config {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		DatabaseDSN:   getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/fullcourse?parseTime=true"),
		SessionSecret: getEnv("SESSION_SECRET", devSecret),
		SessionTTL:    getDuration("SESSION_TTL", 30*24*time.Hour),
		AppBaseURL:    strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
		CORSOrigins:   strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		AdminEmails:   getList("ADMIN_EMAILS"),
	}

	if cfg.Env == "production" && cfg.SessionSecret == devSecret {
		slog.Error("SESSION_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

// Secure reports whether cookies should carry the Secure attribute.
func (c Config) Secure() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

// getList splits a comma-separated variable, dropping blanks and lowercasing entries.
func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
