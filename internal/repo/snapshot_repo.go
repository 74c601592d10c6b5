package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/plotline/internal/model"
	"github.com/xxxsen/plotline/internal/pkg/dbutil"
	appErr "github.com/xxxsen/plotline/internal/pkg/errors"
)

type SnapshotRepo struct {
	db *sql.DB
}

func NewSnapshotRepo(db *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

var snapshotColumns = []string{"id", "plot_id", "content", "version", "ctime"}

func scanSnapshots(rows *sql.Rows) ([]model.ColdSnapshot, error) {
	snapshots := make([]model.ColdSnapshot, 0)
	for rows.Next() {
		var s model.ColdSnapshot
		if err := rows.Scan(&s.ID, &s.PlotID, &s.Content, &s.Version, &s.Ctime); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

func (r *SnapshotRepo) Create(ctx context.Context, snapshot *model.ColdSnapshot) error {
	data := map[string]interface{}{
		"id":      snapshot.ID,
		"plot_id": snapshot.PlotID,
		"content": snapshot.Content,
		"version": snapshot.Version,
		"ctime":   snapshot.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("cold_snapshots", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SnapshotRepo) ListByPlot(ctx context.Context, plotID string, limit, offset uint) ([]model.ColdSnapshot, error) {
	where := map[string]interface{}{
		"plot_id":  plotID,
		"_orderby": "ctime desc",
		"_limit":   []uint{offset, limit},
	}
	sqlStr, args, err := builder.BuildSelect("cold_snapshots", where, snapshotColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanSnapshots(rows)
}

func (r *SnapshotRepo) CountByPlot(ctx context.Context, plotID string) (int, error) {
	sqlStr := `SELECT COUNT(*) FROM cold_snapshots WHERE plot_id = $1`
	rows, err := r.db.QueryContext(ctx, sqlStr, plotID)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()
	var total int
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return 0, err
		}
	}
	return total, rows.Err()
}

// GetByID is scoped to the plot: a snapshot id belonging to a different plot
// reads as not found.
func (r *SnapshotRepo) GetByID(ctx context.Context, q dbutil.Queryer, plotID, snapshotID string) (*model.ColdSnapshot, error) {
	if q == nil {
		q = r.db
	}
	sqlStr := `SELECT id, plot_id, content, version, ctime FROM cold_snapshots WHERE id = $1 AND plot_id = $2`
	rows, err := q.QueryContext(ctx, sqlStr, snapshotID, plotID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var s model.ColdSnapshot
	if err := rows.Scan(&s.ID, &s.PlotID, &s.Content, &s.Version, &s.Ctime); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetLatestByVersion resolves a plot version number to its most recent
// snapshot. Multiple snapshots can carry the same plot version between
// rollbacks; the newest capture wins.
func (r *SnapshotRepo) GetLatestByVersion(ctx context.Context, plotID string, version int) (*model.ColdSnapshot, error) {
	where := map[string]interface{}{
		"plot_id":  plotID,
		"version":  version,
		"_orderby": "ctime desc",
		"_limit":   []uint{0, 1},
	}
	sqlStr, args, err := builder.BuildSelect("cold_snapshots", where, snapshotColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var s model.ColdSnapshot
	if err := rows.Scan(&s.ID, &s.PlotID, &s.Content, &s.Version, &s.Ctime); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SnapshotRepo) ListPlotIDs(ctx context.Context) ([]string, error) {
	sqlStr := `SELECT DISTINCT plot_id FROM cold_snapshots`
	rows, err := r.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListRange returns a plot's snapshots with ctime in [newerThan, olderThan),
// newest first. A nil newerThan means no lower bound.
func (r *SnapshotRepo) ListRange(ctx context.Context, plotID string, olderThan int64, newerThan *int64) ([]model.ColdSnapshot, error) {
	where := map[string]interface{}{
		"plot_id":  plotID,
		"ctime <":  olderThan,
		"_orderby": "ctime desc",
	}
	if newerThan != nil {
		where["ctime >="] = *newerThan
	}
	sqlStr, args, err := builder.BuildSelect("cold_snapshots", where, snapshotColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanSnapshots(rows)
}

func (r *SnapshotRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	where := map[string]interface{}{
		"id in": ids,
	}
	sqlStr, args, err := builder.BuildDelete("cold_snapshots", where)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
