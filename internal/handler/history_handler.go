package handler

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/plotline/internal/pkg/errcode"
	"github.com/xxxsen/plotline/internal/pkg/response"
	"github.com/xxxsen/plotline/internal/service"
)

type HistoryHandler struct {
	history *service.HistoryService
}

func NewHistoryHandler(history *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

type recordOperationRequest struct {
	OperationType string          `json:"operationType" binding:"required"`
	Position      *int            `json:"position,omitempty"`
	Content       json.RawMessage `json:"content,omitempty"`
	Length        *int            `json:"length,omitempty"`
}

func (h *HistoryHandler) Record(c *gin.Context) {
	var req recordOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"position": req.Position,
		"content":  req.Content,
		"length":   req.Length,
	})
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid payload")
		return
	}
	op, err := h.history.RecordOperation(c.Request.Context(), c.Param("id"), getUserID(c), req.OperationType, string(payload))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, op)
}

func (h *HistoryHandler) List(c *gin.Context) {
	limit, offset := parsePaging(c, 50, 100)
	items, total, err := h.history.GetHistory(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"items": items,
		"total": total,
	})
}

func (h *HistoryHandler) Diff(c *gin.Context) {
	fromVersion, err := strconv.Atoi(c.Param("from"))
	if err != nil || fromVersion < 0 {
		response.Error(c, errcode.ErrInvalid, "invalid from version")
		return
	}
	toVersion, err := strconv.Atoi(c.Param("to"))
	if err != nil || toVersion < 0 {
		response.Error(c, errcode.ErrInvalid, "invalid to version")
		return
	}
	diff, err := h.history.GetDiff(c.Request.Context(), c.Param("id"), fromVersion, toVersion)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, diff)
}
