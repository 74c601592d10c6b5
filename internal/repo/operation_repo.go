package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/plotline/internal/model"
	"github.com/xxxsen/plotline/internal/pkg/dbutil"
)

type OperationRepo struct {
	db *sql.DB
}

func NewOperationRepo(db *sql.DB) *OperationRepo {
	return &OperationRepo{db: db}
}

var operationColumns = []string{"id", "section_id", "operation_type", "payload", "user_id", "version", "ctime"}

func (r *OperationRepo) CreateTx(ctx context.Context, tx *sql.Tx, op *model.HotOperation) error {
	data := map[string]interface{}{
		"id":             op.ID,
		"section_id":     op.SectionID,
		"operation_type": op.OperationType,
		"payload":        op.Payload,
		"user_id":        op.UserID,
		"version":        op.Version,
		"ctime":          op.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("hot_operations", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = tx.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListRecent returns operations at or after the cutoff, newest first.
// Operations past the TTL stay invisible here even before the purge job
// physically removes them.
func (r *OperationRepo) ListRecent(ctx context.Context, sectionID string, cutoff int64, limit, offset uint) ([]model.HotOperation, error) {
	where := map[string]interface{}{
		"section_id": sectionID,
		"ctime >=":   cutoff,
		"_orderby":   "ctime desc",
		"_limit":     []uint{offset, limit},
	}
	sqlStr, args, err := builder.BuildSelect("hot_operations", where, operationColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	ops := make([]model.HotOperation, 0)
	for rows.Next() {
		var op model.HotOperation
		if err := rows.Scan(&op.ID, &op.SectionID, &op.OperationType, &op.Payload, &op.UserID, &op.Version, &op.Ctime); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func (r *OperationRepo) CountRecent(ctx context.Context, sectionID string, cutoff int64) (int, error) {
	sqlStr := `SELECT COUNT(*) FROM hot_operations WHERE section_id = $1 AND ctime >= $2`
	rows, err := r.db.QueryContext(ctx, sqlStr, sectionID, cutoff)
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

// DeleteBefore removes operations older than the cutoff and reports how many
// went away. Calling it again with nothing newly expired deletes zero rows.
func (r *OperationRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	sqlStr := `DELETE FROM hot_operations WHERE ctime < $1`
	result, err := r.db.ExecContext(ctx, sqlStr, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
