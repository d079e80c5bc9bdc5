package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/clock"
	"github.com/spec-kit/counselor-presence/internal/config"
	"github.com/spec-kit/counselor-presence/internal/domain"
	"github.com/spec-kit/counselor-presence/internal/events"
	"github.com/spec-kit/counselor-presence/internal/events/broker"
	"github.com/spec-kit/counselor-presence/internal/observability"
	"github.com/spec-kit/counselor-presence/internal/persistence"
	"github.com/spec-kit/counselor-presence/internal/repository"
	"github.com/spec-kit/counselor-presence/internal/repository/memory"
	"github.com/spec-kit/counselor-presence/internal/service"
	"github.com/spec-kit/counselor-presence/internal/worker"
)

type repositories struct {
	counselors    repository.CounselorRepository
	presence      repository.PresenceRepository
	workItems     repository.WorkItemRepository
	reassignments repository.ReassignmentRepository
}

// application holds the wired service graph shared by the commands.
type application struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics

	pg    *persistence.Postgres
	redis *persistence.Redis

	dispatcher events.Dispatcher
	closeSink  func()

	presence *service.PresenceService
	capacity *service.CapacityModel
	ranker   *service.CandidateRanker
	scanner  *service.InactivityScanner
	reassign *service.ReassignmentService
	auto     *service.AutoReassigner
}

// storeFlags are shared by commands that open the store.
type storeFlags struct {
	migrationsDir string
	seedFile      string
}

func buildApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger, flags storeFlags) (*application, error) {
	app := &application{
		cfg:        cfg,
		logger:     logger,
		metrics:    observability.NewMetrics(),
		dispatcher: events.NewInMemoryDispatcher(),
		closeSink:  func() {},
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	app.pg = pg

	var repos repositories
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), flags.migrationsDir, logger); err != nil {
				pg.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		pool := pg.PoolHandle()
		repos = repositories{
			counselors:    repository.NewCounselorRepository(pool),
			presence:      repository.NewPresenceRepository(pool),
			workItems:     repository.NewWorkItemRepository(pool),
			reassignments: repository.NewReassignmentRepository(pool),
		}
	} else {
		store := memory.NewStore()
		if flags.seedFile != "" {
			if err := store.LoadSeedFile(flags.seedFile); err != nil {
				return nil, err
			}
			logger.Info("seeded in-memory store", zap.String("file", flags.seedFile))
		}
		repos = repositories{
			counselors:    store.Counselors(),
			presence:      store.Presence(),
			workItems:     store.WorkItems(),
			reassignments: store.Reassignments(),
		}
	}

	app.redis = persistence.NewRedis(cfg.Redis, logger)

	publisher, err := broker.New(cfg.Events, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("event broker: %w", err)
	}
	notifications := service.NewNotificationService(app.dispatcher, publisher, cfg.Events.Producer, logger)
	app.closeSink = worker.StartNotificationWorker(notifications, publisher, logger)

	clk := clock.Real()
	p := cfg.Presence
	app.presence = service.NewPresenceService(service.PresenceDependencies{
		CounselorRepo: repos.counselors,
		PresenceRepo:  repos.presence,
		Evaluator:     domain.NewPresenceEvaluator(p.IdleAfter, p.OfflineAfter),
		Clock:         clk,
		Gate:          service.NewActivityGate(app.redis, clk, p.DebounceWindow, logger),
		Dispatcher:    app.dispatcher,
		Logger:        logger,
		Metrics:       app.metrics,
		CreditCap:     p.ActivityCreditCap,
		Location:      p.Location(),
	})
	app.capacity = service.NewCapacityModel(service.CapacityDependencies{
		CounselorRepo: repos.counselors,
		WorkItemRepo:  repos.workItems,
		Presence:      app.presence,
	})
	app.ranker = service.NewCandidateRanker(service.RankerDependencies{
		CounselorRepo: repos.counselors,
		WorkItemRepo:  repos.workItems,
		Presence:      app.presence,
	})
	app.scanner = service.NewInactivityScanner(service.ScannerDependencies{
		CounselorRepo: repos.counselors,
		WorkItemRepo:  repos.workItems,
		Presence:      app.presence,
		Threshold:     p.ReassignThreshold,
		Logger:        logger,
		Metrics:       app.metrics,
	})
	app.reassign = service.NewReassignmentService(service.ReassignmentDependencies{
		CounselorRepo:    repos.counselors,
		WorkItemRepo:     repos.workItems,
		ReassignmentRepo: repos.reassignments,
		Presence:         app.presence,
		Dispatcher:       app.dispatcher,
		Logger:           logger,
		Metrics:          app.metrics,
	})
	if p.AutoReassign {
		app.auto = service.NewAutoReassigner(app.ranker, app.reassign, p.AutoReassignMaxItems, logger)
	}
	return app, nil
}

func (a *application) close() {
	if a.closeSink != nil {
		a.closeSink()
	}
	a.redis.Close()
	a.pg.Close()
}

// loadRuntime reads config and builds the logger. CLI commands that write
// results to stdout pass stderr as logOutput.
func loadRuntime(logOutput string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if logOutput != "" {
		cfg.Logger.Output = logOutput
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}
