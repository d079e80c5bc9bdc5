package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/activity"
	httptransport "github.com/spec-kit/counselor-presence/internal/api/http"
	"github.com/spec-kit/counselor-presence/internal/api/http/handlers"
	"github.com/spec-kit/counselor-presence/internal/api/ws"
	"github.com/spec-kit/counselor-presence/internal/auth"
	"github.com/spec-kit/counselor-presence/internal/persistence"
	"github.com/spec-kit/counselor-presence/internal/worker"
)

const shutdownGrace = 10 * time.Second

var serveStore storeFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API, the activity websocket and the scan worker",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveStore.migrationsDir, "migrations", persistence.DefaultMigrationsDir, "Directory of SQL migrations")
	serveCmd.Flags().StringVar(&serveStore.seedFile, "seed", "", "YAML fixture loaded into the in-memory store when no DSN is set")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime("")
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	app, err := buildApplication(ctx, cfg, logger, serveStore)
	if err != nil {
		return err
	}
	defer app.close()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	api := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(api, logger, app.metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(api, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": app.pg,
			"redis":    app.redis,
		}, app.metrics),
		Presence:       handlers.NewPresenceHandler(app.presence, app.capacity),
		Alerts:         handlers.NewAlertsHandler(app.scanner, app.presence),
		WorkItems:      handlers.NewWorkItemsHandler(app.reassign, app.ranker),
		AuthMiddleware: authMiddleware,
	})

	p := cfg.Presence
	mux := http.NewServeMux()
	mux.Handle("/ws/activity", ws.NewActivityHandler(authMiddleware, app.presence, logger,
		activity.WithThresholds(p.IdleAfter, p.OfflineAfter),
		activity.WithDebounce(p.DebounceWindow),
		activity.WithHeartbeat(p.HeartbeatInterval),
	))
	activitySrv := &http.Server{
		Addr:              cfg.App.ActivityAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	opts := []worker.ScanOption{
		worker.WithScanInterval(p.ScanInterval),
		worker.WithDispatcher(app.dispatcher),
	}
	if app.auto != nil {
		opts = append(opts, worker.WithAutoReassign(app.auto))
	}
	scanWorker := worker.NewScanWorker(app.scanner, logger, opts...)
	go scanWorker.Start(ctx)

	go func() {
		if err := api.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	go func() {
		logger.Info("activity listener started", zap.String("addr", activitySrv.Addr))
		if err := activitySrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("activity listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	scanWorker.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := activitySrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("activity listener shutdown", zap.Error(err))
	}
	if err := api.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("api shutdown", zap.Error(err))
	}
	return nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
