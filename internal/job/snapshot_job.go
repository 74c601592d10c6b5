package job

import (
	"context"

	"github.com/xxxsen/plotline/internal/service"
)

// SnapshotJob runs the short-interval batch materialization: every tick,
// capture each plot touched since the previous tick. Many rapid edits inside
// one interval collapse into a single snapshot.
type SnapshotJob struct {
	snapshots *service.SnapshotService
}

func NewSnapshotJob(snapshots *service.SnapshotService) *SnapshotJob {
	return &SnapshotJob{snapshots: snapshots}
}

func (j *SnapshotJob) Name() string {
	return "snapshot_batch"
}

func (j *SnapshotJob) Run(ctx context.Context) error {
	_, err := j.snapshots.RunBatch(ctx)
	return err
}
