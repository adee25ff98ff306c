package store

import (
	"context"
	"log/slog"
	"time"
)

const retentionWorkerInterval = time.Hour

// StartRetentionWorker runs a background goroutine that periodically removes
// archived turns older than retention.
func StartRetentionWorker(ctx context.Context, archive Archive, retention, interval time.Duration) {
	if interval <= 0 {
		interval = retentionWorkerInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Retention worker started", "interval", interval, "retention", retention)

		for {
			select {
			case <-ticker.C:
				cleanupArchive(ctx, archive, retention)
			case <-ctx.Done():
				slog.Info("Retention worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func cleanupArchive(ctx context.Context, archive Archive, retention time.Duration) {
	deleted, err := archive.CleanupOlderThan(ctx, retention)
	if err != nil {
		slog.Error("Retention worker failed to remove old turns", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("Retention worker removed old turns", "count", deleted)
	}
}
