package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/plotline/internal/model"
	"github.com/xxxsen/plotline/internal/pkg/dbutil"
	appErr "github.com/xxxsen/plotline/internal/pkg/errors"
)

type SectionRepo struct {
	db *sql.DB
}

func NewSectionRepo(db *sql.DB) *SectionRepo {
	return &SectionRepo{db: db}
}

var sectionColumns = []string{"id", "plot_id", "title", "content", "order_index", "version", "ctime", "mtime"}

func sectionData(s *model.Section) map[string]interface{} {
	return map[string]interface{}{
		"id":          s.ID,
		"plot_id":     s.PlotID,
		"title":       s.Title,
		"content":     s.Content,
		"order_index": s.OrderIndex,
		"version":     s.Version,
		"ctime":       s.Ctime,
		"mtime":       s.Mtime,
	}
}

func (r *SectionRepo) Create(ctx context.Context, section *model.Section) error {
	sqlStr, args, err := builder.BuildInsert("sections", []map[string]interface{}{sectionData(section)})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SectionRepo) CreateTx(ctx context.Context, tx *sql.Tx, section *model.Section) error {
	sqlStr, args, err := builder.BuildInsert("sections", []map[string]interface{}{sectionData(section)})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = tx.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SectionRepo) GetByID(ctx context.Context, sectionID string) (*model.Section, error) {
	where := map[string]interface{}{
		"id": sectionID,
	}
	sqlStr, args, err := builder.BuildSelect("sections", where, sectionColumns)
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
	var s model.Section
	if err := rows.Scan(&s.ID, &s.PlotID, &s.Title, &s.Content, &s.OrderIndex, &s.Version, &s.Ctime, &s.Mtime); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SectionRepo) ListByPlot(ctx context.Context, plotID string) ([]model.Section, error) {
	where := map[string]interface{}{
		"plot_id":  plotID,
		"_orderby": "order_index asc",
	}
	sqlStr, args, err := builder.BuildSelect("sections", where, sectionColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	sections := make([]model.Section, 0)
	for rows.Next() {
		var s model.Section
		if err := rows.Scan(&s.ID, &s.PlotID, &s.Title, &s.Content, &s.OrderIndex, &s.Version, &s.Ctime, &s.Mtime); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// IncrementVersionTx is the serialization point for concurrent edits to the
// same section: a single UPDATE ... RETURNING, never read-then-write.
func (r *SectionRepo) IncrementVersionTx(ctx context.Context, tx *sql.Tx, sectionID string, mtime int64) (int, error) {
	sqlStr := `UPDATE sections SET version = version + 1, mtime = $2 WHERE id = $1 RETURNING version`
	rows, err := tx.QueryContext(ctx, sqlStr, sectionID, mtime)
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

func (r *SectionRepo) DeleteByPlotTx(ctx context.Context, tx *sql.Tx, plotID string) error {
	sqlStr := `DELETE FROM sections WHERE plot_id = $1`
	_, err := tx.ExecContext(ctx, sqlStr, plotID)
	return err
}
