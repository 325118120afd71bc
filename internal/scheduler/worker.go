package scheduler

import (
	"context"
	"errors"
	"fmt"

	"areabutler_backend/internal/crm/propstackapi"
	realestatesvc "areabutler_backend/internal/realestate/service"
	"areabutler_backend/platform/apperr"
	"areabutler_backend/platform/config"
	"areabutler_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// PropstackSyncer runs a full import for one user.
type PropstackSyncer interface {
	SyncPropstack(ctx context.Context, userID uuid.UUID, userEmail string) (realestatesvc.ImportResult, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	syncer PropstackSyncer
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, syncer PropstackSyncer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		syncer: syncer,
		log:    log,
	}
	w.mux.HandleFunc(TaskPropstackSync, w.handlePropstackSync)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handlePropstackSync(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePropstackSyncPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	result, err := w.syncer.SyncPropstack(ctx, userID, payload.UserEmail)
	if err != nil {
		if permanentSyncError(err) {
			w.log.Warn("propstack sync dropped", "error", err, "userId", userID)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	w.log.Info("propstack sync finished",
		"userId", userID,
		"created", result.Created,
		"updated", result.Updated,
		"failed", len(result.FailedIDs),
	)
	return nil
}

// permanentSyncError reports failures a retry cannot fix.
func permanentSyncError(err error) bool {
	if errors.Is(err, propstackapi.ErrUnauthorized) {
		return true
	}
	return apperr.Is(err, apperr.KindNotFound) || apperr.Is(err, apperr.KindInternal)
}
