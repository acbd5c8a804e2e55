package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	session "hireloop/contexts/identity-access/session-service"
	sessionpostgres "hireloop/contexts/identity-access/session-service/adapters/postgres"
	scheduling "hireloop/contexts/scheduling/meeting-service"
	meetingpostgres "hireloop/contexts/scheduling/meeting-service/adapters/postgres"
	"hireloop/contexts/scheduling/meeting-service/application"
	"hireloop/contexts/scheduling/meeting-service/application/workers"
	"hireloop/internal/platform/cache"
	"hireloop/internal/platform/config"
	"hireloop/internal/platform/db"
	"hireloop/internal/platform/httpserver"
	"hireloop/internal/platform/messaging"
	"hireloop/internal/shared/events"
	"hireloop/internal/shared/idempotency"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	redis    *cache.Redis
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	bus      *messaging.Bus
	relay    workers.OutboxRelay
	logger   *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, errors.New("VIDEO_WEBHOOK_SECRET is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	rd, err := cache.Connect(cfg.RedisAddr)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	identity := session.NewModule(session.Dependencies{
		Users:           sessionpostgres.NewRepository(pg.DB, logger),
		Clock:           sessionpostgres.SystemClock{},
		IDGenerator:     sessionpostgres.UUIDGenerator{},
		SessionSecret:   []byte(cfg.SessionSecret),
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		Logger:          logger,
	})

	meetings := meetingpostgres.NewRepository(pg.DB, logger)
	schedulingModule := scheduling.NewModule(scheduling.Dependencies{
		Meetings:      meetings,
		Outbox:        meetings,
		WebhookLedger: meetings,
		Verifier:      application.HMACSignatureVerifier{Secret: []byte(cfg.WebhookSecret)},
		Publisher:     messaging.NewBus(logger),
		Clock:         meetingpostgres.SystemClock{},
		IDGenerator:   meetingpostgres.UUIDGenerator{},
		PollInterval:  cfg.WorkerPollInterval,
		Logger:        logger,
	})

	idem := idempotency.Cache{
		Backend: idempotency.NewRedisStore(rd.Client),
		TTL:     cfg.IdempotencyTTL,
	}

	server := httpserver.New(identity, schedulingModule, idem, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		redis:    rd,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	meetings := meetingpostgres.NewRepository(pg.DB, logger)
	bus := messaging.NewBus(logger)
	return &WorkerApp{
		postgres: pg,
		bus:      bus,
		relay: workers.OutboxRelay{
			Outbox:       meetings,
			Publisher:    bus,
			Clock:        meetingpostgres.SystemClock{},
			PollInterval: cfg.WorkerPollInterval,
			BatchSize:    100,
			Logger:       logger,
		},
		logger: logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	// Downstream audit consumer for everything the relay publishes.
	if err := w.bus.Subscribe(ctx, workers.MeetingEventsTopic, "meeting-events-audit", func(_ context.Context, envelope events.Envelope) error {
		w.logger.Info("meeting event observed",
			"event", "meeting_event_observed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
			"entity_id", envelope.EntityID,
			"correlation_id", envelope.CorrelationID,
		)
		return nil
	}); err != nil {
		return err
	}
	return w.relay.Run(ctx)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
