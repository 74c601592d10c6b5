package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/plotline/internal/model"
)

func snapAt(id string, ts int64) model.ColdSnapshot {
	return model.ColdSnapshot{ID: id, PlotID: "plot-1", Ctime: ts}
}

func TestPlanThinningKeepsNewestPerHourBucket(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC).Unix()
	// five snapshots inside the same hour, newest first
	snapshots := []model.ColdSnapshot{
		snapAt("s5", base+50*60),
		snapAt("s4", base+40*60),
		snapAt("s3", base+30*60),
		snapAt("s2", base+20*60),
		snapAt("s1", base+10*60),
	}
	deleted := PlanThinning(snapshots, hourBucketLayout)
	require.Equal(t, []string{"s4", "s3", "s2", "s1"}, deleted)
}

func TestPlanThinningDistinctBucketsSurvive(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).Unix()
	snapshots := []model.ColdSnapshot{
		snapAt("h3", base+2*3600),
		snapAt("h2", base+3600),
		snapAt("h1", base),
	}
	require.Empty(t, PlanThinning(snapshots, hourBucketLayout))

	// same three collapse to one survivor under the daily policy
	deleted := PlanThinning(snapshots, dayBucketLayout)
	require.Equal(t, []string{"h2", "h1"}, deleted)
}

func TestPlanThinningEmptyInput(t *testing.T) {
	require.Empty(t, PlanThinning(nil, hourBucketLayout))
}

func TestPlanThinningBucketBoundary(t *testing.T) {
	// 10:59:59 and 11:00:00 land in different hour buckets
	edge := time.Date(2026, 8, 1, 10, 59, 59, 0, time.UTC).Unix()
	snapshots := []model.ColdSnapshot{
		snapAt("after", edge+1),
		snapAt("before", edge),
	}
	require.Empty(t, PlanThinning(snapshots, hourBucketLayout))
}
