package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/plotline/internal/pkg/errcode"
	"github.com/xxxsen/plotline/internal/pkg/response"
	"github.com/xxxsen/plotline/internal/service"
)

type RollbackHandler struct {
	rollback *service.RollbackService
}

func NewRollbackHandler(rollback *service.RollbackService) *RollbackHandler {
	return &RollbackHandler{rollback: rollback}
}

type rollbackRequest struct {
	ExpectedVersion *int   `json:"expectedVersion,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

func (h *RollbackHandler) Rollback(c *gin.Context) {
	var req rollbackRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, errcode.ErrInvalid, "invalid request body")
			return
		}
	}
	plot, sections, err := h.rollback.Rollback(c.Request.Context(), c.Param("id"), c.Param("sid"), getUserID(c), req.ExpectedVersion, req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"plot":     plot,
		"sections": sections,
	})
}

func (h *RollbackHandler) ListLogs(c *gin.Context) {
	limit, offset := parsePaging(c, 20, 100)
	items, total, err := h.rollback.ListLogs(c.Request.Context(), c.Param("id"), getUserID(c), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"items": items,
		"total": total,
	})
}
