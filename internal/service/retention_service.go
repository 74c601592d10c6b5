package service

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/plotline/internal/model"
	"github.com/xxxsen/plotline/internal/pkg/timeutil"
	"github.com/xxxsen/plotline/internal/repo"
)

const (
	hourBucketLayout = "2006-01-02-15"
	dayBucketLayout  = "2006-01-02"
)

// RetentionService thins snapshot density as snapshots age:
// under 7 days untouched, 7-30 days at most one per hour, 30+ days at most
// one per day. The newest snapshot in each bucket survives.
type RetentionService struct {
	snapshots *repo.SnapshotRepo
}

func NewRetentionService(snapshots *repo.SnapshotRepo) *RetentionService {
	return &RetentionService{snapshots: snapshots}
}

// Thin applies the retention policy. An empty plotID means every plot that
// has snapshots; each plot is processed independently so one plot's failure
// cannot touch another's records.
func (s *RetentionService) Thin(ctx context.Context, plotID string) (int64, error) {
	plotIDs := []string{plotID}
	if plotID == "" {
		ids, err := s.snapshots.ListPlotIDs(ctx)
		if err != nil {
			return 0, err
		}
		plotIDs = ids
	}

	now := timeutil.NowUnix()
	sevenDaysAgo := now - 7*24*3600
	thirtyDaysAgo := now - 30*24*3600

	logger := logutil.GetLogger(ctx)
	var totalDeleted int64
	for _, pid := range plotIDs {
		select {
		case <-ctx.Done():
			return totalDeleted, ctx.Err()
		default:
		}
		deleted, err := s.thinRange(ctx, pid, sevenDaysAgo, &thirtyDaysAgo, hourBucketLayout)
		if err != nil {
			logger.Error("thinning failed", zap.String("plot_id", pid), zap.Error(err))
			continue
		}
		totalDeleted += deleted
		deleted, err = s.thinRange(ctx, pid, thirtyDaysAgo, nil, dayBucketLayout)
		if err != nil {
			logger.Error("thinning failed", zap.String("plot_id", pid), zap.Error(err))
			continue
		}
		totalDeleted += deleted
	}
	if totalDeleted > 0 {
		logger.Info("snapshot thinning finished", zap.Int64("deleted", totalDeleted), zap.Int("plots", len(plotIDs)))
	}
	return totalDeleted, nil
}

func (s *RetentionService) thinRange(ctx context.Context, plotID string, olderThan int64, newerThan *int64, bucketLayout string) (int64, error) {
	snapshots, err := s.snapshots.ListRange(ctx, plotID, olderThan, newerThan)
	if err != nil {
		return 0, err
	}
	deleteIDs := PlanThinning(snapshots, bucketLayout)
	if len(deleteIDs) == 0 {
		return 0, nil
	}
	return s.snapshots.DeleteByIDs(ctx, deleteIDs)
}

// PlanThinning walks a newest-first snapshot list and marks for deletion
// every snapshot whose time bucket already has a survivor. Because the walk
// is newest-first, the first snapshot seen per bucket is the most recent one.
func PlanThinning(snapshots []model.ColdSnapshot, bucketLayout string) []string {
	seen := make(map[string]struct{})
	deleteIDs := make([]string, 0)
	for _, snap := range snapshots {
		bucket := time.Unix(snap.Ctime, 0).UTC().Format(bucketLayout)
		if _, ok := seen[bucket]; ok {
			deleteIDs = append(deleteIDs, snap.ID)
			continue
		}
		seen[bucket] = struct{}{}
	}
	return deleteIDs
}
