package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/plotline/internal/middleware"
)

type RouterDeps struct {
	History   *HistoryHandler
	Snapshots *SnapshotHandler
	Rollback  *RollbackHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authed := api.Group("")
	authed.Use(middleware.Identity())

	authed.POST("/sections/:id/operations", deps.History.Record)
	authed.GET("/sections/:id/history", deps.History.List)
	authed.GET("/sections/:id/diff/:from/:to", deps.History.Diff)

	authed.GET("/plots/:id/snapshots", deps.Snapshots.List)
	authed.GET("/plots/:id/snapshots/:sid", deps.Snapshots.Get)

	authed.POST("/plots/:id/rollback/:sid", deps.Rollback.Rollback)
	authed.GET("/plots/:id/rollback-logs", deps.Rollback.ListLogs)
}
