package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string
	RedisAddr   string

	SessionSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	WebhookSecret string

	IdempotencyTTL     time.Duration
	WorkerPollInterval time.Duration
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "hireloop"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		RedisAddr:   redisAddr,

		SessionSecret:   os.Getenv("SESSION_SECRET"),
		AccessTokenTTL:  envDuration("ACCESS_TOKEN_TTL_SECONDS", time.Hour),
		RefreshTokenTTL: envDuration("REFRESH_TOKEN_TTL_SECONDS", 7*24*time.Hour),

		WebhookSecret: os.Getenv("VIDEO_WEBHOOK_SECRET"),

		IdempotencyTTL:     envDuration("IDEMPOTENCY_TTL_SECONDS", 24*time.Hour),
		WorkerPollInterval: envDuration("WORKER_POLL_INTERVAL_SECONDS", 5*time.Second),
	}, nil
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
