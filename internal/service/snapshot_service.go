package service

import (
	"context"
	"encoding/json"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/plotline/internal/model"
	"github.com/xxxsen/plotline/internal/pkg/timeutil"
	"github.com/xxxsen/plotline/internal/repo"
)

// SnapshotService owns the cold tier: periodic full-plot materialization and
// the snapshot listing/preview reads.
type SnapshotService struct {
	plots           *repo.PlotRepo
	sections        *repo.SectionRepo
	snapshots       *repo.SnapshotRepo
	maxBytes        int
	intervalMinutes int
}

func NewSnapshotService(plots *repo.PlotRepo, sections *repo.SectionRepo, snapshots *repo.SnapshotRepo, maxBytes, intervalMinutes int) *SnapshotService {
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	if intervalMinutes <= 0 {
		intervalMinutes = 5
	}
	return &SnapshotService{
		plots:           plots,
		sections:        sections,
		snapshots:       snapshots,
		maxBytes:        maxBytes,
		intervalMinutes: intervalMinutes,
	}
}

// BuildSnapshotContent assembles the self-describing full-plot payload:
// plot metadata plus every section in display order.
func BuildSnapshotContent(plot *model.Plot, sections []model.Section) model.SnapshotContent {
	title := plot.Title
	description := plot.Description
	tags := plot.Tags
	if tags == nil {
		tags = []string{}
	}
	content := model.SnapshotContent{
		Plot: model.SnapshotPlotMeta{
			Title:       &title,
			Description: &description,
			Tags:        &tags,
		},
		Sections: make([]model.SnapshotSection, 0, len(sections)),
	}
	for _, sec := range sections {
		raw := json.RawMessage(`null`)
		if sec.Content != "" {
			raw = json.RawMessage(sec.Content)
		}
		content.Sections = append(content.Sections, model.SnapshotSection{
			ID:         sec.ID,
			Title:      sec.Title,
			Content:    raw,
			OrderIndex: sec.OrderIndex,
			Version:    sec.Version,
		})
	}
	return content
}

// Capture materializes one plot. A serialized payload over the size cap is
// skipped with a warning and a nil snapshot: backpressure, not an error. The
// plot stays eligible on the next tick.
func (s *SnapshotService) Capture(ctx context.Context, plot *model.Plot) (*model.ColdSnapshot, error) {
	sections, err := s.sections.ListByPlot(ctx, plot.ID)
	if err != nil {
		return nil, err
	}
	content := BuildSnapshotContent(plot, sections)
	serialized, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	if len(serialized) > s.maxBytes {
		logutil.GetLogger(ctx).Warn("snapshot exceeds size cap, skipping",
			zap.String("plot_id", plot.ID),
			zap.Int("size", len(serialized)),
			zap.Int("max", s.maxBytes))
		return nil, nil
	}
	snapshot := &model.ColdSnapshot{
		ID:      newID(),
		PlotID:  plot.ID,
		Content: string(serialized),
		Version: plot.Version,
		Ctime:   timeutil.NowUnix(),
	}
	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// RunBatch captures every plot touched since the last tick. One plot's
// failure is logged and does not abort the rest of the batch.
func (s *SnapshotService) RunBatch(ctx context.Context) (int, error) {
	cutoff := timeutil.NowUnix() - int64(s.intervalMinutes)*60
	plots, err := s.plots.ListUpdatedSince(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	logger := logutil.GetLogger(ctx)
	created := 0
	for i := range plots {
		select {
		case <-ctx.Done():
			return created, ctx.Err()
		default:
		}
		snapshot, err := s.Capture(ctx, &plots[i])
		if err != nil {
			logger.Error("snapshot capture failed", zap.String("plot_id", plots[i].ID), zap.Error(err))
			continue
		}
		if snapshot != nil {
			created++
		}
	}
	if created > 0 {
		logger.Info("snapshot batch finished", zap.Int("created", created), zap.Int("candidates", len(plots)))
	}
	return created, nil
}

func (s *SnapshotService) ListSnapshots(ctx context.Context, plotID string, limit, offset uint) ([]model.ColdSnapshot, int, error) {
	if _, err := s.plots.GetByID(ctx, plotID); err != nil {
		return nil, 0, err
	}
	total, err := s.snapshots.CountByPlot(ctx, plotID)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.snapshots.ListByPlot(ctx, plotID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *SnapshotService) GetSnapshotDetail(ctx context.Context, plotID, snapshotID string) (*model.ColdSnapshot, error) {
	return s.snapshots.GetByID(ctx, nil, plotID, snapshotID)
}
