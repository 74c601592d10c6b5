package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/plotline/internal/model"
	appErr "github.com/xxxsen/plotline/internal/pkg/errors"
	"github.com/xxxsen/plotline/internal/repo"
	"github.com/xxxsen/plotline/internal/service"
	"github.com/xxxsen/plotline/test/testutil"
)

func newRollbackService(t *testing.T, conn *sql.DB) *service.RollbackService {
	t.Helper()
	users := repo.NewUserRepo(conn)
	resolver, err := service.NewUserResolver(users, 16)
	require.NoError(t, err)
	return service.NewRollbackService(
		conn,
		repo.NewPlotRepo(conn),
		repo.NewSectionRepo(conn),
		repo.NewSnapshotRepo(conn),
		repo.NewRollbackLogRepo(conn),
		resolver,
	)
}

func captureSnapshot(t *testing.T, conn *sql.DB, plotID string) *model.ColdSnapshot {
	t.Helper()
	plots := repo.NewPlotRepo(conn)
	sections := repo.NewSectionRepo(conn)
	snaps := repo.NewSnapshotRepo(conn)
	svc := service.NewSnapshotService(plots, sections, snaps, 0, 0)

	plot, err := plots.GetByID(context.Background(), plotID)
	require.NoError(t, err)
	snapshot, err := svc.Capture(context.Background(), plot)
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	return snapshot
}

func TestRollbackRestoresSnapshotState(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	userID, plotID, sectionID := testutil.SeedPlot(t, conn)
	snapshot := captureSnapshot(t, conn, plotID)
	rollback := newRollbackService(t, conn)
	ctx := context.Background()

	// vandalize the live state after the capture so the restore has real
	// work to do
	_, err := conn.Exec("UPDATE plots SET title = 'vandalized' WHERE id = $1", plotID)
	require.NoError(t, err)
	_, err = conn.Exec("UPDATE sections SET title = 'vandalized section', content = '{}' WHERE id = $1", sectionID)
	require.NoError(t, err)

	expected := 0
	plot, sections, err := rollback.Rollback(ctx, plotID, snapshot.ID, userID, &expected, "undo vandalism")
	require.NoError(t, err)
	require.Equal(t, 1, plot.Version)
	require.Equal(t, "seed plot", plot.Title)
	require.Len(t, sections, 1)
	require.Equal(t, "seed section", sections[0].Title)
	require.Contains(t, sections[0].Content, "initial")
	// restored sections get fresh identities
	require.NotEqual(t, sectionID, sections[0].ID)

	items, total, err := rollback.ListLogs(ctx, plotID, userID, 20, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.NotNil(t, items[0].SnapshotID)
	require.Equal(t, snapshot.ID, *items[0].SnapshotID)
	require.Equal(t, snapshot.Version, items[0].SnapshotVersion)
	require.Equal(t, "undo vandalism", items[0].Reason)
	require.Equal(t, "Test Author", items[0].User.DisplayName)
}

func TestRollbackVersionConflict(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	userID, plotID, _ := testutil.SeedPlot(t, conn)
	snapshot := captureSnapshot(t, conn, plotID)
	rollback := newRollbackService(t, conn)
	ctx := context.Background()

	stale := 7
	_, _, err := rollback.Rollback(ctx, plotID, snapshot.ID, userID, &stale, "")
	require.ErrorIs(t, err, appErr.ErrVersionConflict)

	// nothing changed
	plot, err := repo.NewPlotRepo(conn).GetByID(ctx, plotID)
	require.NoError(t, err)
	require.Equal(t, 0, plot.Version)
	_, total, err := rollback.ListLogs(ctx, plotID, userID, 20, 0)
	require.NoError(t, err)
	require.Equal(t, 0, total)
}

func TestRollbackPausedPlot(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	userID, plotID, _ := testutil.SeedPlot(t, conn)
	snapshot := captureSnapshot(t, conn, plotID)

	_, err := conn.Exec("UPDATE plots SET is_paused = 1 WHERE id = $1", plotID)
	require.NoError(t, err)

	rollback := newRollbackService(t, conn)
	_, _, err = rollback.Rollback(context.Background(), plotID, snapshot.ID, userID, nil, "")
	require.ErrorIs(t, err, appErr.ErrForbidden)
}

func TestRollbackSnapshotFromAnotherPlot(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	userID, plotID, _ := testutil.SeedPlot(t, conn)
	_, otherPlotID, _ := testutil.SeedPlot(t, conn)
	otherSnapshot := captureSnapshot(t, conn, otherPlotID)

	rollback := newRollbackService(t, conn)
	_, _, err := rollback.Rollback(context.Background(), plotID, otherSnapshot.ID, userID, nil, "")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestThinnedSnapshotNullsAuditReference(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	userID, plotID, _ := testutil.SeedPlot(t, conn)
	snapshot := captureSnapshot(t, conn, plotID)
	rollback := newRollbackService(t, conn)
	ctx := context.Background()

	_, _, err := rollback.Rollback(ctx, plotID, snapshot.ID, userID, nil, "restore")
	require.NoError(t, err)

	snaps := repo.NewSnapshotRepo(conn)
	deleted, err := snaps.DeleteByIDs(ctx, []string{snapshot.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	items, _, err := rollback.ListLogs(ctx, plotID, userID, 20, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Nil(t, items[0].SnapshotID)
	require.Equal(t, snapshot.Version, items[0].SnapshotVersion)
}

func TestListLogsOwnerOnly(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	ownerID, plotID, _ := testutil.SeedPlot(t, conn)
	otherUserID, _, _ := testutil.SeedPlot(t, conn)
	rollback := newRollbackService(t, conn)
	ctx := context.Background()

	_, _, err := rollback.ListLogs(ctx, plotID, otherUserID, 20, 0)
	require.ErrorIs(t, err, appErr.ErrForbidden)

	_, total, err := rollback.ListLogs(ctx, plotID, ownerID, 20, 0)
	require.NoError(t, err)
	require.Equal(t, 0, total)
}
