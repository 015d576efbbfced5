package jobs

import (
	"context"
	"log"
	"time"

	media "liftly.app/liftly/internal/modules/media/service"
)

// MediaCleanupJob drops uploads that were never attached to a post within
// the grace window.
type MediaCleanupJob struct {
	mediaService media.MediaService
	schedule     string
	grace        time.Duration
}

func NewMediaCleanupJob(mediaService media.MediaService, schedule string) *MediaCleanupJob {
	if schedule == "" {
		schedule = "0 5 * * *"
	}
	return &MediaCleanupJob{
		mediaService: mediaService,
		schedule:     schedule,
		grace:        24 * time.Hour,
	}
}

func (j *MediaCleanupJob) Name() string     { return "media-cleanup" }
func (j *MediaCleanupJob) Schedule() string { return j.schedule }

func (j *MediaCleanupJob) Run(ctx context.Context) error {
	removed, err := j.mediaService.CleanupOrphans(ctx, j.grace)
	if err != nil {
		return err
	}
	log.Printf("[media-cleanup] removed %d orphaned uploads", removed)
	return nil
}
