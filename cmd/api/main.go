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

	"areabutler_backend/internal/adapters"
	"areabutler_backend/internal/adapters/storage"
	"areabutler_backend/internal/crm/propstackapi"
	"areabutler_backend/internal/description"
	"areabutler_backend/internal/email"
	"areabutler_backend/internal/events"
	apphttp "areabutler_backend/internal/http"
	"areabutler_backend/internal/http/router"
	"areabutler_backend/internal/maps"
	"areabutler_backend/internal/notification"
	"areabutler_backend/internal/realestate"
	realestatedomain "areabutler_backend/internal/realestate/domain"
	realestatetransport "areabutler_backend/internal/realestate/transport"
	"areabutler_backend/internal/scheduler"
	"areabutler_backend/internal/snapshot"
	snapshottransport "areabutler_backend/internal/snapshot/transport"
	"areabutler_backend/internal/webhook"
	"areabutler_backend/platform/ai/openai"
	"areabutler_backend/platform/config"
	"areabutler_backend/platform/db"
	"areabutler_backend/platform/logger"
	"areabutler_backend/platform/secrets"
	"areabutler_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	// Shared validator instance for dependency injection
	val := validator.New()
	if err := realestatetransport.RegisterValidators(val); err != nil {
		panic("failed to register real-estate validators: " + err.Error())
	}
	if err := snapshottransport.RegisterValidators(val); err != nil {
		panic("failed to register snapshot validators: " + err.Error())
	}

	box, err := secrets.NewBox(cfg.GetCRMSecretKey())
	if err != nil {
		panic("failed to initialize secrets box: " + err.Error())
	}

	resolver, err := realestatedomain.DefaultStatusResolver()
	if err != nil {
		panic("failed to load status rules: " + err.Error())
	}

	cache := initRedisCache(ctx, cfg, log)
	if cache != nil {
		defer func() { _ = cache.Close() }()
	}

	storageSvc := initStorage(ctx, cfg, log)

	syncQueue, closeQueue := initSyncQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(email.NewSender(cfg), log)
	notificationModule.RegisterHandlers(eventBus)

	realEstateModule := realestate.NewModule(pool, eventBus, resolver, box, val, log)
	realEstateModule.Service().SetUnitSource(propstackapi.New(cfg, log))
	if syncQueue != nil {
		realEstateModule.Service().SetSyncQueue(syncQueue)
	}

	mapsModule := maps.NewModule(maps.NewService(cfg, cache, log))

	snapshotModule := snapshot.NewModule(pool, snapshot.Deps{
		Listings: realEstateModule.Service(),
		Geocoder: mapsModule.Service(),
		Storage:  storageSvc,
	}, cfg, eventBus, val, log)

	descriptionModule := description.NewModule(
		description.NewService(snapshotModule.Service(), initDescriptionGenerator(cfg, log), log),
		val,
	)

	// Anti-Corruption Layer: the webhook only sees its ListingImporter port
	webhookModule := webhook.NewModule(pool, adapters.NewWebhookListingImporter(realEstateModule.Service()), val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  pool,
		Metrics: true,
		Modules: []apphttp.Module{
			realEstateModule,
			snapshotModule,
			descriptionModule,
			mapsModule,
			webhookModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initStorage returns nil when MinIO is not configured; exports are then
// returned inline.
func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.StorageService {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; exports are served inline")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketSnapshotExports()
	if err := withRetry(ctx, log, "ensure snapshot-exports bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "snapshotExportsBucket", bucket)
	return storageSvc
}

// initRedisCache returns nil when REDIS_URL is unset; geocoding then always
// goes upstream.
func initRedisCache(ctx context.Context, cfg config.SchedulerConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; geocode cache disabled")
		return nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL; geocode cache disabled", "error", err)
		return nil
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis not reachable; geocode cache may fail until it is", "error", err)
	}
	return client
}

func initSyncQueue(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; background CRM sync disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initDescriptionGenerator(cfg config.OpenAIConfig, log *logger.Logger) description.TextGenerator {
	if !cfg.IsOpenAIEnabled() {
		log.Warn("OPENAI_API_KEY not configured; description generation disabled")
		return nil
	}

	generator, err := description.NewGenerator(openai.NewModel(openai.Config{
		APIKey:  cfg.GetOpenAIAPIKey(),
		BaseURL: cfg.GetOpenAIBaseURL(),
		Model:   cfg.GetOpenAIModel(),
	}))
	if err != nil {
		log.Error("failed to initialize description generator", "error", err)
		return nil
	}
	return generator
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
