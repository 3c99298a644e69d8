package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/stargazer-events/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/stargazer-events/internal/adapter/kafka"
	"github.com/couchcryptid/stargazer-events/internal/adapter/mail"
	"github.com/couchcryptid/stargazer-events/internal/adapter/mapbox"
	"github.com/couchcryptid/stargazer-events/internal/adapter/memory"
	mongoadapter "github.com/couchcryptid/stargazer-events/internal/adapter/mongo"
	redisadapter "github.com/couchcryptid/stargazer-events/internal/adapter/redis"
	"github.com/couchcryptid/stargazer-events/internal/config"
	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/couchcryptid/stargazer-events/internal/events"
	"github.com/couchcryptid/stargazer-events/internal/notify"
	"github.com/couchcryptid/stargazer-events/internal/observability"
	"github.com/couchcryptid/stargazer-events/internal/scheduler"
	"github.com/couchcryptid/stargazer-events/internal/settings"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		slog.Error("stargazer exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []func(context.Context) error
	var checks readiness

	// Persistence.
	var eventRepo domain.EventRepository
	var userRepo domain.UserRepository
	switch cfg.StoreBackend {
	case config.BackendMemory:
		eventRepo = memory.NewEventRepository()
		userRepo = memory.NewUserRepository()
		logger.Warn("using in-memory store, data is lost on restart")
	default:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		store, err := mongoadapter.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase, logger)
		cancel()
		if err != nil {
			return err
		}
		closers = append(closers, store.Close)
		if err := store.EnsureIndexes(ctx); err != nil {
			return err
		}
		eventRepo, userRepo = store.Events(), store.Users()
		checks = append(checks, store)
	}

	// Seed lock and event feed.
	opts := []events.Option{
		events.WithTimeout(cfg.StoreTimeout),
		events.WithLockTTL(cfg.SeedLockTTL),
		events.WithClock(clock),
	}
	if cfg.RedisAddr != "" {
		lock := redisadapter.NewLock(cfg.RedisAddr, logger)
		closers = append(closers, func(context.Context) error { return lock.Close() })
		checks = append(checks, lock)
		opts = append(opts, events.WithSeedLock(lock))
		logger.Info("redis seed lock enabled", "addr", cfg.RedisAddr)
	}
	if len(cfg.KafkaBrokers) > 0 {
		writer := kafkaadapter.NewWriter(cfg, logger)
		closers = append(closers, func(context.Context) error { return writer.Close() })
		opts = append(opts, events.WithPublisher(writer))
		logger.Info("kafka event feed enabled", "topic", cfg.KafkaEventsTopic)
	} else {
		opts = append(opts, events.WithPublisher(kafkaadapter.Discard{}))
	}
	eventSvc := events.NewService(eventRepo, domain.NewGenerator(clock), logger, metrics, opts...)

	// Geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}
	settingsSvc := settings.NewService(userRepo, eventSvc, geocoder, clock, logger, cfg.StoreTimeout)

	// Notifications.
	var mailer domain.Mailer
	if cfg.MailEnabled() {
		mailer = mail.NewSMTPMailer(cfg, logger)
	} else {
		mailer = mail.NewLogMailer(logger)
		logger.Warn("SMTP_HOST not set, notifications are logged instead of sent")
	}
	dispatcher := notify.NewDispatcher(mailer, logger, metrics, cfg.MailTimeout, cfg.MailRetries)
	notifySvc := notify.NewService(settingsSvc, eventSvc, domain.NewPolicy(clock), dispatcher, cfg.NotifyNearbyRadiusKM, logger, metrics)

	sched := scheduler.New(eventSvc, notifySvc, clock, logger, metrics, cfg.SweepInterval, cfg.NotifyInterval)
	checks = append(checks, sched)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Events:     eventSvc,
		Settings:   settingsSvc,
		Notifier:   notifySvc,
		Ready:      checks,
		JWTSecret:  []byte(cfg.AuthJWTSecret),
		AdminToken: cfg.AdminToken,
	}, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-schedDone:
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not stop before shutdown timeout")
	}
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](shutdownCtx); err != nil {
			logger.Error("close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// readiness is ready when every dependency is.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
