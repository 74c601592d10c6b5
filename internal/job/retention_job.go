package job

import (
	"context"

	"github.com/xxxsen/plotline/internal/service"
)

// RetentionJob applies the snapshot thinning policy across all plots. Runs
// on a long cadence (daily by default), independent of the hot-log purge.
type RetentionJob struct {
	retention *service.RetentionService
}

func NewRetentionJob(retention *service.RetentionService) *RetentionJob {
	return &RetentionJob{retention: retention}
}

func (j *RetentionJob) Name() string {
	return "snapshot_retention"
}

func (j *RetentionJob) Run(ctx context.Context) error {
	_, err := j.retention.Thin(ctx, "")
	return err
}
