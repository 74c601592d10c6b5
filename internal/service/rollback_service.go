package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/plotline/internal/model"
	appErr "github.com/xxxsen/plotline/internal/pkg/errors"
	"github.com/xxxsen/plotline/internal/pkg/timeutil"
	"github.com/xxxsen/plotline/internal/repo"
)

// RollbackService restores a plot to a prior snapshot under optimistic
// concurrency control and records the immutable audit trail. It is the only
// component allowed to mutate a plot's version or replace its sections.
type RollbackService struct {
	db       *sql.DB
	plots    *repo.PlotRepo
	sections *repo.SectionRepo
	snaps    *repo.SnapshotRepo
	logs     *repo.RollbackLogRepo
	resolver *UserResolver
}

func NewRollbackService(db *sql.DB, plots *repo.PlotRepo, sections *repo.SectionRepo, snaps *repo.SnapshotRepo, logs *repo.RollbackLogRepo, resolver *UserResolver) *RollbackService {
	return &RollbackService{db: db, plots: plots, sections: sections, snaps: snaps, logs: logs, resolver: resolver}
}

type RollbackLogItem struct {
	ID              string          `json:"id"`
	PlotID          string          `json:"plotId"`
	SnapshotID      *string         `json:"snapshotId"`
	SnapshotVersion int             `json:"snapshotVersion"`
	User            model.UserBrief `json:"user"`
	Reason          string          `json:"reason,omitempty"`
	Ctime           int64           `json:"createdAt"`
}

// Rollback runs the whole restore in one transaction:
// lock the plot row, check the editorial hold, load the snapshot (scoped to
// the plot), check the caller's expected version, overwrite metadata fields
// present in the snapshot, replace every section with a fresh identity, bump
// the rollback counter, and append the audit record. Any failure before
// commit rolls the whole thing back.
func (s *RollbackService) Rollback(ctx context.Context, plotID, snapshotID, actorID string, expectedVersion *int, reason string) (*model.Plot, []model.Section, error) {
	now := timeutil.NowUnix()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	plot, err := s.plots.GetByIDForUpdateTx(ctx, tx, plotID)
	if err != nil {
		return nil, nil, err
	}
	if plot.IsPaused != 0 {
		return nil, nil, appErr.ErrForbidden
	}
	snapshot, err := s.snaps.GetByID(ctx, tx, plotID, snapshotID)
	if err != nil {
		return nil, nil, err
	}
	if expectedVersion != nil && *expectedVersion != plot.Version {
		return nil, nil, appErr.ErrVersionConflict
	}

	var content model.SnapshotContent
	if err := json.Unmarshal([]byte(snapshot.Content), &content); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot content: %w", err)
	}

	if err := s.plots.OverwriteMetadataTx(ctx, tx, plotID, content.Plot, now); err != nil {
		return nil, nil, err
	}
	if err := s.sections.DeleteByPlotTx(ctx, tx, plotID); err != nil {
		return nil, nil, err
	}
	for _, sec := range content.Sections {
		version := sec.Version
		if version <= 0 {
			version = 1
		}
		restored := &model.Section{
			// Never reuse historical section ids: a restored section is a
			// new artifact, and stale references to the old ids must dangle
			// instead of silently pointing at it.
			ID:         newID(),
			PlotID:     plotID,
			Title:      sec.Title,
			Content:    rawContentString(sec.Content),
			OrderIndex: sec.OrderIndex,
			Version:    version,
			Ctime:      now,
			Mtime:      now,
		}
		if err := s.sections.CreateTx(ctx, tx, restored); err != nil {
			return nil, nil, err
		}
	}
	newVersion, err := s.plots.IncrementVersionTx(ctx, tx, plotID)
	if err != nil {
		return nil, nil, err
	}
	entry := &model.RollbackLog{
		ID:              newID(),
		PlotID:          plotID,
		SnapshotID:      &snapshot.ID,
		SnapshotVersion: snapshot.Version,
		UserID:          actorID,
		Reason:          reason,
		Ctime:           now,
	}
	if err := s.logs.CreateTx(ctx, tx, entry); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	logutil.GetLogger(ctx).Info("plot rolled back",
		zap.String("plot_id", plotID),
		zap.String("snapshot_id", snapshotID),
		zap.Int("snapshot_version", snapshot.Version),
		zap.Int("new_version", newVersion),
		zap.String("actor", actorID))

	restoredPlot, err := s.plots.GetByID(ctx, plotID)
	if err != nil {
		return nil, nil, err
	}
	restoredSections, err := s.sections.ListByPlot(ctx, plotID)
	if err != nil {
		return nil, nil, err
	}
	return restoredPlot, restoredSections, nil
}

func rawContentString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	return string(raw)
}

// ListLogs returns the rollback audit trail, newest first, with resolved
// actor briefs. Only the plot's owner may read it.
func (s *RollbackService) ListLogs(ctx context.Context, plotID, actorID string, limit, offset uint) ([]RollbackLogItem, int, error) {
	plot, err := s.plots.GetByID(ctx, plotID)
	if err != nil {
		return nil, 0, err
	}
	if plot.OwnerID != actorID {
		return nil, 0, appErr.ErrForbidden
	}
	total, err := s.logs.CountByPlot(ctx, plotID)
	if err != nil {
		return nil, 0, err
	}
	entries, err := s.logs.ListByPlot(ctx, plotID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	userIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		userIDs = append(userIDs, e.UserID)
	}
	briefs, err := s.resolver.Resolve(ctx, userIDs)
	if err != nil {
		return nil, 0, err
	}
	items := make([]RollbackLogItem, 0, len(entries))
	for _, e := range entries {
		brief, ok := briefs[e.UserID]
		if !ok {
			brief = model.UserBrief{ID: e.UserID, DisplayName: "Unknown"}
		}
		items = append(items, RollbackLogItem{
			ID:              e.ID,
			PlotID:          e.PlotID,
			SnapshotID:      e.SnapshotID,
			SnapshotVersion: e.SnapshotVersion,
			User:            brief,
			Reason:          e.Reason,
			Ctime:           e.Ctime,
		})
	}
	return items, total, nil
}
