package model

import "encoding/json"

// ColdSnapshot is one materialized full-plot state. Content holds the
// serialized SnapshotContent; Version is the plot's version at capture time.
type ColdSnapshot struct {
	ID      string `json:"id"`
	PlotID  string `json:"plot_id"`
	Content string `json:"content"`
	Version int    `json:"version"`
	Ctime   int64  `json:"ctime"`
}

type SnapshotContent struct {
	Plot     SnapshotPlotMeta  `json:"plot"`
	Sections []SnapshotSection `json:"sections"`
}

// SnapshotPlotMeta uses pointer fields so rollback can distinguish "field
// absent from this snapshot, leave the live value alone" (nil) from a value
// that was captured. Capture always sets every field; older snapshots written
// before a field existed simply decode it as nil.
type SnapshotPlotMeta struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

type SnapshotSection struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Content    json.RawMessage `json:"content"`
	OrderIndex int             `json:"orderIndex"`
	Version    int             `json:"version"`
}
