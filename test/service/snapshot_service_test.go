package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/plotline/internal/repo"
	"github.com/xxxsen/plotline/internal/service"
	"github.com/xxxsen/plotline/test/testutil"
)

func TestCaptureSkipsOversizedPayload(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	_, plotID, _ := testutil.SeedPlot(t, conn)
	plots := repo.NewPlotRepo(conn)
	snaps := repo.NewSnapshotRepo(conn)
	svc := service.NewSnapshotService(plots, repo.NewSectionRepo(conn), snaps, 10, 0)

	plot, err := plots.GetByID(context.Background(), plotID)
	require.NoError(t, err)
	snapshot, err := svc.Capture(context.Background(), plot)
	require.NoError(t, err)
	require.Nil(t, snapshot)

	total, err := snaps.CountByPlot(context.Background(), plotID)
	require.NoError(t, err)
	require.Equal(t, 0, total)
}

func TestListSnapshotsNewestFirst(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	_, plotID, _ := testutil.SeedPlot(t, conn)
	first := captureSnapshot(t, conn, plotID)
	second := captureSnapshot(t, conn, plotID)

	svc := service.NewSnapshotService(repo.NewPlotRepo(conn), repo.NewSectionRepo(conn), repo.NewSnapshotRepo(conn), 0, 0)
	items, total, err := svc.ListSnapshots(context.Background(), plotID, 20, 0)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, items, 2)
	ids := []string{items[0].ID, items[1].ID}
	require.Contains(t, ids, first.ID)
	require.Contains(t, ids, second.ID)
}

func TestGetDiffAcrossRollbackVersions(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	userID, plotID, _ := testutil.SeedPlot(t, conn)
	snapshot := captureSnapshot(t, conn, plotID) // version 0

	rollback := newRollbackService(t, conn)
	ctx := context.Background()
	_, sections, err := rollback.Rollback(ctx, plotID, snapshot.ID, userID, nil, "")
	require.NoError(t, err)
	require.Len(t, sections, 1)
	restoredID := sections[0].ID

	_, err = conn.Exec("UPDATE sections SET content = $1 WHERE id = $2",
		`{"type":"doc","content":[{"type":"text","text":"rewritten"}]}`, restoredID)
	require.NoError(t, err)
	captureSnapshot(t, conn, plotID) // version 1, carries restoredID

	history := newHistoryService(t, conn)
	diff, err := history.GetDiff(ctx, restoredID, 0, 1)
	require.NoError(t, err)
	require.Equal(t, 0, diff.FromVersion)
	require.Equal(t, 1, diff.ToVersion)
	// restoredID does not exist in the version-0 snapshot, so the whole
	// rewritten text shows up as additions against an empty baseline
	require.Empty(t, diff.Deletions)
	require.Len(t, diff.Additions, 1)
	require.Equal(t, "rewritten", diff.Additions[0].Text)
}

func TestRetentionThinsSinglePlot(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	_, plotID, _ := testutil.SeedPlot(t, conn)
	snaps := repo.NewSnapshotRepo(conn)

	// recent snapshots are inside the 7-day grace window and must survive
	captureSnapshot(t, conn, plotID)
	captureSnapshot(t, conn, plotID)

	retention := service.NewRetentionService(snaps)
	deleted, err := retention.Thin(context.Background(), plotID)
	require.NoError(t, err)
	require.Equal(t, int64(0), deleted)

	total, err := snaps.CountByPlot(context.Background(), plotID)
	require.NoError(t, err)
	require.Equal(t, 2, total)
}
