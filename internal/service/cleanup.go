package service

import (
	"github.com/samber/lo"

	"socialnet/internal/worker"
)

// MediaCleaner accepts storage keys orphaned by a committed delete.
type MediaCleaner interface {
	Enqueue(job worker.CleanupJob)
}

const (
	reasonUserDeleted     = "user_deleted"
	reasonPostDeleted     = "post_deleted"
	reasonImageReplaced   = "image_replaced"
	reasonUploadAbandoned = "upload_abandoned"
)

// enqueueCleanup drops empty keys and skips the job when nothing is left.
func enqueueCleanup(cleaner MediaCleaner, reason string, keys ...string) {
	keys = lo.Compact(keys)
	if cleaner == nil || len(keys) == 0 {
		return
	}
	cleaner.Enqueue(worker.CleanupJob{Keys: keys, Reason: reason})
}
