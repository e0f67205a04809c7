package worker

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"socialnet/internal/metrics"
)

// ObjectDeleter removes one stored object by key.
type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Handler deletes the keys of a cleanup job one by one.
// Failures are logged and counted, never returned: the database delete has already committed.
type Handler struct {
	deleter    ObjectDeleter
	keyTimeout time.Duration
	log        *zap.Logger
}

func NewHandler(deleter ObjectDeleter, keyTimeout time.Duration, log *zap.Logger) *Handler {
	if keyTimeout <= 0 {
		keyTimeout = DefaultKeyTimeout
	}
	return &Handler{
		deleter:    deleter,
		keyTimeout: keyTimeout,
		log:        log,
	}
}

// Handle processes a job and reports how many keys failed.
func (h *Handler) Handle(ctx context.Context, job CleanupJob) int {
	startTime := time.Now()
	failed := 0

	keys := lo.Uniq(lo.Compact(job.Keys))
	for _, key := range keys {
		if err := h.deleteOne(ctx, key); err != nil {
			failed++
			metrics.MediaCleanup.WithLabelValues(metrics.ResultError).Inc()
			h.log.Error("media cleanup failed",
				zap.String("key", key),
				zap.String("reason", job.Reason),
				zap.Error(err))
			continue
		}
		metrics.MediaCleanup.WithLabelValues(metrics.ResultOK).Inc()
	}

	h.log.Info("media cleanup done",
		zap.String("reason", job.Reason),
		zap.Int("keys", len(keys)),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(startTime)))

	return failed
}

func (h *Handler) deleteOne(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, h.keyTimeout)
	defer cancel()
	return h.deleter.Delete(ctx, key)
}
