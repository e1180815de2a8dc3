package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	orchestrationengine "adorchestra/contexts/campaign-orchestration/orchestration-engine"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/adapters/platforms"
	postgresadapter "adorchestra/contexts/campaign-orchestration/orchestration-engine/adapters/postgres"
	workerapp "adorchestra/contexts/campaign-orchestration/orchestration-engine/application/workers"
	"adorchestra/internal/platform/config"
	"adorchestra/internal/platform/db"
	"adorchestra/internal/platform/httpserver"
	"adorchestra/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	outboxRelay   workerapp.OutboxRelay
	operations    workerapp.OperationConsumer
	scheduledSync workerapp.ScheduledSync
	pollInterval  time.Duration
	syncInterval  time.Duration
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	pg, err := connect(cfg)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := newModule(repo, logger)
	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	pg, err := connect(cfg)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := newModule(repo, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		operations: workerapp.OperationConsumer{
			Subscriber:    kafka,
			Dedup:         repo,
			Deploy:        module.Deploy,
			Sync:          module.Sync,
			Pause:         module.Pause,
			Resume:        module.Resume,
			Optimize:      module.Optimize,
			UpdateBudget:  module.UpdateBudget,
			Clock:         postgresadapter.SystemClock{},
			ConsumerGroup: cfg.OperationConsumerGroup,
			DedupTTL:      cfg.EventDedupTTL,
			Disabled:      !cfg.EnableOperationConsumer,
			Logger:        logger,
		},
		scheduledSync: workerapp.ScheduledSync{
			Orchestrations: repo,
			Sync:           module.Sync,
			BatchSize:      cfg.ScheduledSyncBatchSize,
			Concurrency:    cfg.ScheduledSyncConcurrency,
			Disabled:       !cfg.EnableScheduledSync,
			Logger:         logger,
		},
		pollInterval: cfg.WorkerPollInterval,
		syncInterval: cfg.ScheduledSyncInterval,
		logger:       logger,
	}, nil
}

func connect(cfg config.Config) (*db.Postgres, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := postgresadapter.Migrate(pg.DB); err != nil {
			_ = pg.Close()
			return nil, err
		}
	}
	return pg, nil
}

// newModule wires the orchestration engine onto one repository. Platform
// calls go through the sandbox adapters until vendor clients are registered.
func newModule(repo *postgresadapter.Repository, logger *slog.Logger) orchestrationengine.Module {
	registry, _ := platforms.NewSandboxRegistry()
	return orchestrationengine.NewModule(orchestrationengine.Dependencies{
		UnitOfWork:  repo,
		Store:       repo,
		Workflows:   repo,
		SyncLogs:    repo,
		Connections: repo,
		Templates:   repo,
		Adapters:    registry,
		Clock:       postgresadapter.SystemClock{},
		IDGenerator: postgresadapter.UUIDGenerator{},
		Logger:      logger,
	})
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.operations.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	syncTicker := time.NewTicker(w.syncInterval)
	defer syncTicker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"sync_interval", w.syncInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Warn("outbox relay cycle failed",
				"event", "bootstrap_outbox_relay_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-syncTicker.C:
			if err := w.scheduledSync.RunOnce(ctx); err != nil {
				w.logger.Warn("scheduled sync cycle failed",
					"event", "bootstrap_scheduled_sync_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		case <-ticker.C:
		}
	}
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
