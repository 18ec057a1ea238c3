package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"zervos/internal/api"
	"zervos/internal/booking"
	"zervos/internal/cache"
	"zervos/internal/config"
	"zervos/internal/db"
	"zervos/internal/events"
	"zervos/internal/legacy"
	"zervos/internal/metrics"
	"zervos/internal/pos"
	"zervos/internal/pricing"
	"zervos/internal/workflow"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("ZERVOS_CONFIG_PATH"))
	if err != nil {
		bootstrap := newLogger(os.Stderr, "console", "info")
		bootstrap.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(os.Stdout, cfg.Log.Format, cfg.Log.Level)

	database, err := db.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}

	bus := events.NewBus(&logger)

	var availability *cache.AvailabilityCache
	if rdb != nil && cfg.CacheTTL() > 0 {
		availability = cache.New(rdb, cfg.CacheTTL(), &logger)
		availability.Attach(bus)
	}

	if cfg.WorkspacesPath != "" {
		watcher := config.NewWorkspaceWatcher(cfg.WorkspacesPath, cfg.WorkspacesWatchInterval(), func(ctx context.Context, wc *config.WorkspacesConfig) error {
			syncCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			ids, err := database.SyncWorkspacesFromConfig(syncCtx, wc)
			if err != nil {
				return err
			}
			for _, id := range ids {
				bus.Notify(events.SettingsUpdated, id)
			}
			logger.Info().Int("workspaces", len(ids)).Msg("workspaces synced from config")
			return nil
		}, &logger)
		if err := watcher.Start(ctx); err != nil {
			logger.Fatal().Err(err).Str("path", cfg.WorkspacesPath).Msg("load workspaces config")
		}
	}

	backup := db.NewBackupService(database, db.BackupConfig{
		Enabled:       cfg.Backup.Enabled,
		Interval:      time.Duration(cfg.Backup.IntervalHours) * time.Hour,
		StoragePath:   cfg.Backup.Path,
		RetentionDays: cfg.Backup.RetentionDays,
	}, &logger)
	go backup.Start(ctx)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	var forwarder booking.Forwarder
	if cfg.Booking.WebhookURL != "" {
		forwarder = booking.NewHTTPForwarder(cfg.Booking.WebhookURL, cfg.WebhookTimeout())
	}
	engine := booking.NewEngine(database, availability, cfg.Booking.DefaultSlotMinutes, cfg.Booking.MaxRangeDays, &logger)
	bookings := booking.NewService(database, engine, bus, forwarder, &logger)

	var registers pos.Store = pos.NewMemoryStore()
	if rdb != nil {
		registers = pos.NewRedisStore(rdb, cfg.RegisterTTL())
	}
	calc := pricing.NewCalculator(cfg.POS.TaxPercent)

	checks := []api.ReadyCheck{{Name: "db", Check: database.Ping}}
	if rdb != nil {
		checks = append(checks, api.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	server := api.NewServer(api.Deps{
		Store:     database,
		Engine:    engine,
		Bookings:  bookings,
		POS:       pos.NewService(registers, database, calc, cfg.POS.LoyaltyTiers, bus, &logger),
		Workflows: workflow.NewService(database, bus, &logger),
		Importer:  legacy.NewImporter(database, calc, bus, &logger),
		Bus:       bus,
		Checks:    checks,
	}, api.Options{
		BodyLimitBytes:     cfg.HTTP.BodyLimitBytes,
		TrustForwardedFor:  cfg.HTTP.TrustForwardedFor,
		RateLimitPerMinute: cfg.Booking.RateLimitPerMinute,
		RateLimitBurst:     cfg.Booking.RateLimitBurst,
	}, &logger)

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error().Err(err).Msg("http shutdown")
		}
	}()

	logger.Info().Str("address", cfg.HTTP.Address).Msg("Zervos API started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("http server error")
	}

	bookings.Wait()
	logger.Info().Msg("Zervos API stopped")
}

func newLogger(out io.Writer, format, level string) zerolog.Logger {
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
