package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/plotline/internal/model"
	"github.com/xxxsen/plotline/internal/pkg/dbutil"
)

type RollbackLogRepo struct {
	db *sql.DB
}

func NewRollbackLogRepo(db *sql.DB) *RollbackLogRepo {
	return &RollbackLogRepo{db: db}
}

func (r *RollbackLogRepo) CreateTx(ctx context.Context, tx *sql.Tx, entry *model.RollbackLog) error {
	data := map[string]interface{}{
		"id":               entry.ID,
		"plot_id":          entry.PlotID,
		"snapshot_id":      entry.SnapshotID,
		"snapshot_version": entry.SnapshotVersion,
		"user_id":          entry.UserID,
		"reason":           entry.Reason,
		"ctime":            entry.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("rollback_logs", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = tx.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *RollbackLogRepo) ListByPlot(ctx context.Context, plotID string, limit, offset uint) ([]model.RollbackLog, error) {
	where := map[string]interface{}{
		"plot_id":  plotID,
		"_orderby": "ctime desc",
		"_limit":   []uint{offset, limit},
	}
	sqlStr, args, err := builder.BuildSelect("rollback_logs", where, []string{"id", "plot_id", "snapshot_id", "snapshot_version", "user_id", "reason", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	entries := make([]model.RollbackLog, 0)
	for rows.Next() {
		var e model.RollbackLog
		var snapshotID sql.NullString
		if err := rows.Scan(&e.ID, &e.PlotID, &snapshotID, &e.SnapshotVersion, &e.UserID, &e.Reason, &e.Ctime); err != nil {
			return nil, err
		}
		if snapshotID.Valid {
			e.SnapshotID = &snapshotID.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *RollbackLogRepo) CountByPlot(ctx context.Context, plotID string) (int, error) {
	sqlStr := `SELECT COUNT(*) FROM rollback_logs WHERE plot_id = $1`
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
