package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/plotline/internal/pkg/errcode"
	"github.com/xxxsen/plotline/internal/pkg/response"
)

// Identity trusts the upstream gateway to have authenticated the caller and
// to forward the resolved user id. This service performs no authentication
// of its own.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-Id")
		if userID == "" {
			response.Error(c, errcode.ErrUnauthorized, "missing user identity")
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}
