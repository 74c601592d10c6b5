package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/plotline/internal/model"
	"github.com/xxxsen/plotline/internal/pkg/dbutil"
	appErr "github.com/xxxsen/plotline/internal/pkg/errors"
)

type PlotRepo struct {
	db *sql.DB
}

func NewPlotRepo(db *sql.DB) *PlotRepo {
	return &PlotRepo{db: db}
}

var plotColumns = []string{"id", "owner_id", "title", "description", "tags", "is_paused", "pause_reason", "version", "thumbnail_url", "ctime", "mtime"}

func scanPlot(rows *sql.Rows) (*model.Plot, error) {
	var p model.Plot
	var tags string
	if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &tags, &p.IsPaused, &p.PauseReason, &p.Version, &p.ThumbnailURL, &p.Ctime, &p.Mtime); err != nil {
		return nil, err
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			return nil, err
		}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

func (r *PlotRepo) Create(ctx context.Context, plot *model.Plot) error {
	tags, err := json.Marshal(plot.Tags)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":            plot.ID,
		"owner_id":      plot.OwnerID,
		"title":         plot.Title,
		"description":   plot.Description,
		"tags":          string(tags),
		"is_paused":     plot.IsPaused,
		"pause_reason":  plot.PauseReason,
		"version":       plot.Version,
		"thumbnail_url": plot.ThumbnailURL,
		"ctime":         plot.Ctime,
		"mtime":         plot.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("plots", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *PlotRepo) GetByID(ctx context.Context, plotID string) (*model.Plot, error) {
	where := map[string]interface{}{
		"id": plotID,
	}
	sqlStr, args, err := builder.BuildSelect("plots", where, plotColumns)
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
	return scanPlot(rows)
}

// GetByIDForUpdateTx loads the plot under an exclusive row lock. Two
// concurrent rollbacks of the same plot serialize here.
func (r *PlotRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, plotID string) (*model.Plot, error) {
	sqlStr := `
		SELECT id, owner_id, title, description, tags, is_paused, pause_reason, version, thumbnail_url, ctime, mtime
		FROM plots
		WHERE id = $1
		FOR UPDATE
	`
	rows, err := tx.QueryContext(ctx, sqlStr, plotID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanPlot(rows)
}

// ListUpdatedSince returns plots whose mtime is at or after the cutoff,
// i.e. plots touched since the last snapshot tick.
func (r *PlotRepo) ListUpdatedSince(ctx context.Context, since int64) ([]model.Plot, error) {
	where := map[string]interface{}{
		"mtime >=": since,
	}
	sqlStr, args, err := builder.BuildSelect("plots", where, plotColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	plots := make([]model.Plot, 0)
	for rows.Next() {
		p, err := scanPlot(rows)
		if err != nil {
			return nil, err
		}
		plots = append(plots, *p)
	}
	return plots, rows.Err()
}

// OverwriteMetadataTx applies the snapshot's plot metadata. Only fields
// present in the snapshot payload are written; nil pointers leave the live
// value untouched.
func (r *PlotRepo) OverwriteMetadataTx(ctx context.Context, tx *sql.Tx, plotID string, meta model.SnapshotPlotMeta, mtime int64) error {
	update := map[string]interface{}{
		"mtime": mtime,
	}
	if meta.Title != nil {
		update["title"] = *meta.Title
	}
	if meta.Description != nil {
		update["description"] = *meta.Description
	}
	if meta.Tags != nil {
		tags, err := json.Marshal(*meta.Tags)
		if err != nil {
			return err
		}
		update["tags"] = string(tags)
	}
	where := map[string]interface{}{
		"id": plotID,
	}
	sqlStr, args, err := builder.BuildUpdate("plots", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := tx.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// IncrementVersionTx bumps the rollback counter by exactly one and returns
// the new value.
func (r *PlotRepo) IncrementVersionTx(ctx context.Context, tx *sql.Tx, plotID string) (int, error) {
	sqlStr := `UPDATE plots SET version = version + 1 WHERE id = $1 RETURNING version`
	rows, err := tx.QueryContext(ctx, sqlStr, plotID)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return 0, appErr.ErrNotFound
	}
	var version int
	if err := rows.Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func (r *PlotRepo) TouchMtimeTx(ctx context.Context, tx *sql.Tx, plotID string, mtime int64) error {
	sqlStr := `UPDATE plots SET mtime = $2 WHERE id = $1`
	_, err := tx.ExecContext(ctx, sqlStr, plotID, mtime)
	return err
}
