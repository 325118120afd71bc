package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"areabutler_backend/internal/adapters/storage"
	"areabutler_backend/internal/crm/propstackapi"
	"areabutler_backend/internal/email"
	"areabutler_backend/internal/events"
	"areabutler_backend/internal/notification"
	"areabutler_backend/internal/realestate"
	realestatedomain "areabutler_backend/internal/realestate/domain"
	"areabutler_backend/internal/scheduler"
	"areabutler_backend/internal/snapshot"
	"areabutler_backend/platform/config"
	"areabutler_backend/platform/db"
	"areabutler_backend/platform/logger"
	"areabutler_backend/platform/secrets"
	"areabutler_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	notificationModule := notification.New(email.NewSender(cfg), log)
	notificationModule.RegisterHandlers(eventBus)

	val := validator.New()

	box, err := secrets.NewBox(cfg.GetCRMSecretKey())
	if err != nil {
		panic("failed to initialize secrets box: " + err.Error())
	}
	resolver, err := realestatedomain.DefaultStatusResolver()
	if err != nil {
		panic("failed to load status rules: " + err.Error())
	}

	// Worker-side import wiring (no HTTP handlers required).
	realEstateModule := realestate.NewModule(pool, eventBus, resolver, box, val, log)
	realEstateModule.Service().SetUnitSource(propstackapi.New(cfg, log))

	var storageSvc storage.StorageService
	if cfg.IsMinIOEnabled() {
		minio, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		storageSvc = minio
	}
	snapshotModule := snapshot.NewModule(pool, snapshot.Deps{Storage: storageSvc}, cfg, eventBus, val, log)

	cleanupInterval := getDurationEnv("EXPORT_CLEANUP_INTERVAL", time.Hour)
	retention := time.Duration(getPositiveIntEnv("EXPORT_RETENTION_DAYS", 7)) * 24 * time.Hour
	exportCleanup := scheduler.NewExportCleanup(snapshotModule.Service(), log, cleanupInterval, retention)
	go exportCleanup.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, realEstateModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

func getPositiveIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
