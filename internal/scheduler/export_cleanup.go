package scheduler

import (
	"context"
	"time"

	"areabutler_backend/platform/logger"
)

const (
	defaultExportCleanupInterval = time.Hour
	defaultExportRetention       = 7 * 24 * time.Hour
)

// ExportPruner deletes rendered export files created before a cutoff.
type ExportPruner interface {
	PruneExports(ctx context.Context, before time.Time) (int, error)
}

// ExportCleanup periodically removes old rendered snapshot exports.
type ExportCleanup struct {
	pruner    ExportPruner
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
}

func NewExportCleanup(pruner ExportPruner, log *logger.Logger, interval, retention time.Duration) *ExportCleanup {
	if interval <= 0 {
		interval = defaultExportCleanupInterval
	}
	if retention <= 0 {
		retention = defaultExportRetention
	}

	return &ExportCleanup{
		pruner:    pruner,
		log:       log,
		interval:  interval,
		retention: retention,
	}
}

func (c *ExportCleanup) Run(ctx context.Context) {
	if c == nil || c.pruner == nil {
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *ExportCleanup) cleanup(ctx context.Context) {
	deleted, err := c.pruner.PruneExports(ctx, time.Now().Add(-c.retention))
	if err != nil {
		c.log.Warn("snapshot export cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		c.log.Info("snapshot export cleanup deleted exports", "deleted", deleted)
	}
}
