package model

// RollbackLog is the append-only audit record of one rollback. SnapshotID is
// a weak reference: it is nulled when the snapshot is thinned away, while the
// denormalized SnapshotVersion keeps the entry meaningful.
type RollbackLog struct {
	ID              string  `json:"id"`
	PlotID          string  `json:"plot_id"`
	SnapshotID      *string `json:"snapshot_id"`
	SnapshotVersion int     `json:"snapshot_version"`
	UserID          string  `json:"user_id"`
	Reason          string  `json:"reason"`
	Ctime           int64   `json:"ctime"`
}
