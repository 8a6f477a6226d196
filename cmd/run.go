package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/plsync/internal/router"
	"github.com/desertthunder/plsync/internal/scheduler"
	"github.com/desertthunder/plsync/internal/server"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/sessions"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/desertthunder/plsync/internal/storage"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Run wires the coordinator together and serves until interrupted.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)
	cfg := r.config

	if cfg.Account.PrimaryID == "" {
		return fmt.Errorf("%w: account.primary_id is required", shared.ErrInvalidConfig)
	}

	db, err := shared.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	store := storage.NewSQLiteStore(db, r.logger)
	defer store.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := sessions.NewRegistry(cfg.Account.PrimaryID, r.logger)
	telemetry := services.NewLogTelemetry(r.logger)
	queries := services.NewQueryService(cfg.Backend.QueryURL, r.httpClient)
	caches := services.NewCacheSet(queries, telemetry, r.logger)
	sink := services.NewSyncClient(cfg.Backend.SyncURL, r.httpClient, cfg.Backend.RateLimit, r.logger)

	var token *oauth2.Token
	if cfg.Credentials.RefreshToken != "" {
		token = &oauth2.Token{RefreshToken: cfg.Credentials.RefreshToken}
	}
	auth := services.NewAuthService(
		cfg.Credentials.ClientID, cfg.Credentials.ClientSecret, cfg.Credentials.TokenURL,
		token, cfg.Backend.SyncURL, r.httpClient, r.logger,
	)

	sched := scheduler.New(store, sink, registry, caches, r.logger)

	// Read once at startup; later changes apply on restart.
	onboardingDismissed, err := store.OnboardingDismissed()
	if err != nil {
		r.logger.Warn("failed to read onboarding flag", "err", err)
	}

	dispatcher := router.NewMessageRouter(router.MessageRouterOpts{
		Sessions:            registry,
		Scheduler:           sched,
		Sink:                sink,
		Query:               queries,
		Auth:                auth,
		Caches:              caches,
		Surfaces:            services.NewLogSurfaces(r.logger),
		Telemetry:           telemetry,
		Logger:              r.logger,
		Debug:               cfg.Backend.Debug,
		OnboardingDismissed: onboardingDismissed,
	})

	changeRouter := router.NewChangeRouter(sink, r.logger)
	go changeRouter.Watch(ctx, store.WatchPlaylists(ctx))

	statusFn := func() server.Status {
		lastSync, _ := store.LastSyncAt()
		intervalMs, _ := store.SyncInterval()
		return server.Status{
			State:      sched.State().String(),
			Started:    sched.Started(),
			LastSyncAt: lastSync,
			IntervalMs: intervalMs,
			Sessions:   registry.All(),
		}
	}

	mux := server.NewBasicRouter()
	mux.Use(server.Logging(r.logger))
	mux.Handler(server.NewMessageHandler(dispatcher, r.logger))
	mux.Handler(server.NewStatusHandler(statusFn, r.logger))
	mux.Handler(server.NewIntervalHandler(store, r.logger))
	mux.Handler(&server.HealthHandler{})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("shutdown error", "err", err)
		}
	}()

	r.logger.Info("coordinator listening", "addr", srv.Addr, "account", cfg.Account.PrimaryID)

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
