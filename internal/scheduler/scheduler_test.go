package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"areabutler_backend/internal/crm/propstackapi"
	realestatesvc "areabutler_backend/internal/realestate/service"
	"areabutler_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type fakeSyncer struct {
	calls  int
	userID uuid.UUID
	email  string
	err    error
}

func (f *fakeSyncer) SyncPropstack(_ context.Context, userID uuid.UUID, userEmail string) (realestatesvc.ImportResult, error) {
	f.calls++
	f.userID = userID
	f.email = userEmail
	return realestatesvc.ImportResult{Created: 2}, f.err
}

func TestHandlePropstackSyncRunsImport(t *testing.T) {
	syncer := &fakeSyncer{}
	w := &Worker{syncer: syncer, log: logger.Discard()}
	userID := uuid.New()

	task, err := NewPropstackSyncTask(PropstackSyncPayload{UserID: userID.String(), UserEmail: "makler@example.de"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := w.handlePropstackSync(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if syncer.calls != 1 || syncer.userID != userID || syncer.email != "makler@example.de" {
		t.Fatalf("unexpected sync call %+v", syncer)
	}
}

func TestHandlePropstackSyncSkipsRetryForPermanentErrors(t *testing.T) {
	w := &Worker{syncer: &fakeSyncer{err: propstackapi.ErrUnauthorized}, log: logger.Discard()}
	task, _ := NewPropstackSyncTask(PropstackSyncPayload{UserID: uuid.NewString()})

	if err := w.handlePropstackSync(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected skip retry, got %v", err)
	}

	bad := asynq.NewTask(TaskPropstackSync, []byte(`{"userId":"nope"}`))
	if err := w.handlePropstackSync(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected skip retry for malformed payload, got %v", err)
	}
}

func TestHandlePropstackSyncRetriesTransientErrors(t *testing.T) {
	transient := errors.New("upstream error: status 502")
	w := &Worker{syncer: &fakeSyncer{err: transient}, log: logger.Discard()}
	task, _ := NewPropstackSyncTask(PropstackSyncPayload{UserID: uuid.NewString()})

	err := w.handlePropstackSync(context.Background(), task)
	if !errors.Is(err, transient) || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

type fakePruner struct {
	before time.Time
}

func (f *fakePruner) PruneExports(_ context.Context, before time.Time) (int, error) {
	f.before = before
	return 3, nil
}

func TestExportCleanupUsesRetention(t *testing.T) {
	pruner := &fakePruner{}
	cleanup := NewExportCleanup(pruner, logger.Discard(), 0, 48*time.Hour)
	if cleanup.interval != defaultExportCleanupInterval {
		t.Fatalf("expected default interval, got %v", cleanup.interval)
	}

	cleanup.cleanup(context.Background())

	age := time.Since(pruner.before)
	if age < 47*time.Hour || age > 49*time.Hour {
		t.Fatalf("unexpected cutoff age %v", age)
	}
}
