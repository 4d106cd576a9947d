package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// AuditCleaner deletes audit entries created before a cutoff.
type AuditCleaner interface {
	Cleanup(ctx context.Context, before time.Time) (int64, error)
}

// AuditCleanupWorker enforces the audit log retention window.
type AuditCleanupWorker struct {
	cleaner         AuditCleaner
	retention       time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

func NewAuditCleanupWorker(cleaner AuditCleaner, retention, cleanupInterval time.Duration) *AuditCleanupWorker {
	return &AuditCleanupWorker{
		cleaner:         cleaner,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		now:             time.Now,
	}
}

// Start runs one cleanup immediately, then one per interval until ctx ends.
// A non-positive retention disables the worker.
func (w *AuditCleanupWorker) Start(ctx context.Context) {
	if w.retention <= 0 || w.cleanupInterval <= 0 {
		log.Info().Msg("audit cleanup disabled")
		return
	}

	w.runOnce(ctx)

	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *AuditCleanupWorker) runOnce(ctx context.Context) {
	cutoff := w.now().Add(-w.retention)
	rows, err := w.cleaner.Cleanup(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Time("cutoff", cutoff).Msg("failed to clean up audit logs")
		}
		return
	}
	log.Info().Int64("rows", rows).Time("cutoff", cutoff).Msg("cleaned up audit logs")
}
