package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/plotline/internal/pkg/errcode"
	appErr "github.com/xxxsen/plotline/internal/pkg/errors"
	"github.com/xxxsen/plotline/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get("user_id")
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err))
	switch {
	case appErr.IsNotFound(err):
		response.Error(c, errcode.ErrNotFound, "not found")
	case appErr.IsForbidden(err):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case appErr.IsVersionConflict(err):
		response.Error(c, errcode.ErrVersionConflict, "version conflict")
	case err == appErr.ErrInvalid:
		response.Error(c, errcode.ErrInvalid, "invalid request")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

// parsePaging reads limit/offset query params, clamping the limit into
// [1, maxLimit] and falling back to defaultLimit when absent or malformed.
func parsePaging(c *gin.Context, defaultLimit, maxLimit uint) (uint, uint) {
	limit := defaultLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 32); err == nil && v > 0 {
			limit = uint(v)
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := uint(0)
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 32); err == nil {
			offset = uint(v)
		}
	}
	return limit, offset
}
