package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/plotline/internal/model"
	"github.com/xxxsen/plotline/internal/pkg/timeutil"
	"github.com/xxxsen/plotline/internal/repo"
)

// HistoryService owns the hot tier: the append-only operation log with its
// 72h retention window, and the diff entry point over cold snapshots.
type HistoryService struct {
	db         *sql.DB
	plots      *repo.PlotRepo
	sections   *repo.SectionRepo
	operations *repo.OperationRepo
	snapshots  *repo.SnapshotRepo
	users      *repo.UserRepo
	resolver   *UserResolver
	ttlHours   int
}

func NewHistoryService(db *sql.DB, plots *repo.PlotRepo, sections *repo.SectionRepo, operations *repo.OperationRepo, snapshots *repo.SnapshotRepo, users *repo.UserRepo, resolver *UserResolver, ttlHours int) *HistoryService {
	if ttlHours <= 0 {
		ttlHours = 72
	}
	return &HistoryService{
		db:         db,
		plots:      plots,
		sections:   sections,
		operations: operations,
		snapshots:  snapshots,
		users:      users,
		resolver:   resolver,
		ttlHours:   ttlHours,
	}
}

type HistoryItem struct {
	ID            string          `json:"id"`
	SectionID     string          `json:"sectionId"`
	OperationType string          `json:"operationType"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	User          model.UserBrief `json:"user"`
	Version       int             `json:"version"`
	Ctime         int64           `json:"createdAt"`
}

func (s *HistoryService) cutoff() int64 {
	return timeutil.NowUnix() - int64(s.ttlHours)*3600
}

// RecordOperation appends one edit event. The section's version bump is a
// single UPDATE ... RETURNING inside the transaction, so concurrent edits to
// the same section serialize on the row while edits to different sections
// proceed independently. The owning plot's mtime is touched so the next
// snapshot tick picks it up.
func (s *HistoryService) RecordOperation(ctx context.Context, sectionID, userID, operationType, payload string) (*model.HotOperation, error) {
	section, err := s.sections.GetByID(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	now := timeutil.NowUnix()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	version, err := s.sections.IncrementVersionTx(ctx, tx, sectionID, now)
	if err != nil {
		return nil, err
	}
	op := &model.HotOperation{
		ID:            newID(),
		SectionID:     sectionID,
		OperationType: operationType,
		Payload:       payload,
		UserID:        userID,
		Version:       version,
		Ctime:         now,
	}
	if err := s.operations.CreateTx(ctx, tx, op); err != nil {
		return nil, err
	}
	if err := s.plots.TouchMtimeTx(ctx, tx, section.PlotID, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return op, nil
}

// GetHistory lists operations inside the TTL window, newest first. Authors
// are batch-resolved; an author whose account is gone shows up as Unknown.
func (s *HistoryService) GetHistory(ctx context.Context, sectionID string, limit, offset uint) ([]HistoryItem, int, error) {
	if _, err := s.sections.GetByID(ctx, sectionID); err != nil {
		return nil, 0, err
	}
	cutoff := s.cutoff()
	total, err := s.operations.CountRecent(ctx, sectionID, cutoff)
	if err != nil {
		return nil, 0, err
	}
	ops, err := s.operations.ListRecent(ctx, sectionID, cutoff, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	userIDs := make([]string, 0, len(ops))
	for _, op := range ops {
		userIDs = append(userIDs, op.UserID)
	}
	briefs, err := s.resolver.Resolve(ctx, userIDs)
	if err != nil {
		return nil, 0, err
	}

	items := make([]HistoryItem, 0, len(ops))
	for _, op := range ops {
		brief, ok := briefs[op.UserID]
		if !ok {
			brief = model.UserBrief{ID: op.UserID, DisplayName: "Unknown"}
		}
		item := HistoryItem{
			ID:            op.ID,
			SectionID:     op.SectionID,
			OperationType: op.OperationType,
			User:          brief,
			Version:       op.Version,
			Ctime:         op.Ctime,
		}
		if op.Payload != "" {
			item.Payload = json.RawMessage(op.Payload)
		}
		items = append(items, item)
	}
	return items, total, nil
}

// PurgeExpired physically deletes operations past the TTL. Idempotent.
func (s *HistoryService) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := s.operations.DeleteBefore(ctx, s.cutoff())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logutil.GetLogger(ctx).Info("purged expired operations", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}

// GetDiff compares a section's content between the snapshots carrying the two
// plot version numbers. A section id missing from one snapshot (e.g. after a
// rollback replaced all section identities) diffs against the empty string.
func (s *HistoryService) GetDiff(ctx context.Context, sectionID string, fromVersion, toVersion int) (*DiffResult, error) {
	section, err := s.sections.GetByID(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	fromSnap, err := s.snapshots.GetLatestByVersion(ctx, section.PlotID, fromVersion)
	if err != nil {
		return nil, err
	}
	toSnap, err := s.snapshots.GetLatestByVersion(ctx, section.PlotID, toVersion)
	if err != nil {
		return nil, err
	}

	fromText := ExtractText(sectionContentFromSnapshot(fromSnap, sectionID))
	toText := ExtractText(sectionContentFromSnapshot(toSnap, sectionID))
	additions, deletions := ComputeDiff(fromText, toText)
	return &DiffResult{
		FromVersion: fromVersion,
		ToVersion:   toVersion,
		Additions:   additions,
		Deletions:   deletions,
	}, nil
}

func sectionContentFromSnapshot(snapshot *model.ColdSnapshot, sectionID string) string {
	var content model.SnapshotContent
	if err := json.Unmarshal([]byte(snapshot.Content), &content); err != nil {
		return ""
	}
	for _, sec := range content.Sections {
		if sec.ID == sectionID {
			return string(sec.Content)
		}
	}
	return ""
}
