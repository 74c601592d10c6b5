package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/plotline/internal/pkg/response"
	"github.com/xxxsen/plotline/internal/service"
)

type SnapshotHandler struct {
	snapshots *service.SnapshotService
}

func NewSnapshotHandler(snapshots *service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshots: snapshots}
}

// snapshotListItem is the list-view projection: everything but the payload.
// The full content only ships from the detail endpoint.
type snapshotListItem struct {
	ID      string `json:"id"`
	PlotID  string `json:"plotId"`
	Version int    `json:"version"`
	Size    int    `json:"size"`
	Ctime   int64  `json:"createdAt"`
}

func (h *SnapshotHandler) List(c *gin.Context) {
	limit, offset := parsePaging(c, 20, 100)
	snapshots, total, err := h.snapshots.ListSnapshots(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	items := make([]snapshotListItem, 0, len(snapshots))
	for _, snap := range snapshots {
		items = append(items, snapshotListItem{
			ID:      snap.ID,
			PlotID:  snap.PlotID,
			Version: snap.Version,
			Size:    len(snap.Content),
			Ctime:   snap.Ctime,
		})
	}
	response.Success(c, gin.H{
		"items": items,
		"total": total,
	})
}

func (h *SnapshotHandler) Get(c *gin.Context) {
	snapshot, err := h.snapshots.GetSnapshotDetail(c.Request.Context(), c.Param("id"), c.Param("sid"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"id":        snapshot.ID,
		"plotId":    snapshot.PlotID,
		"version":   snapshot.Version,
		"createdAt": snapshot.Ctime,
		"content":   json.RawMessage(snapshot.Content),
	})
}
