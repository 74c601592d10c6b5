package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/plotline/internal/config"
	"github.com/xxxsen/plotline/internal/db"
	"github.com/xxxsen/plotline/internal/handler"
	"github.com/xxxsen/plotline/internal/job"
	"github.com/xxxsen/plotline/internal/middleware"
	"github.com/xxxsen/plotline/internal/repo"
	"github.com/xxxsen/plotline/internal/schedule"
	"github.com/xxxsen/plotline/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "plotline",
		Short: "plot history and recovery server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run plotline server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.Int("operation_ttl_hours", cfg.History.OperationTTLHours),
		zap.Int("snapshot_interval_minutes", cfg.History.SnapshotIntervalMinutes),
	)

	userRepo := repo.NewUserRepo(conn)
	plotRepo := repo.NewPlotRepo(conn)
	sectionRepo := repo.NewSectionRepo(conn)
	operationRepo := repo.NewOperationRepo(conn)
	snapshotRepo := repo.NewSnapshotRepo(conn)
	rollbackLogRepo := repo.NewRollbackLogRepo(conn)

	resolver, err := service.NewUserResolver(userRepo, cfg.UserCacheCap)
	if err != nil {
		return fmt.Errorf("init user resolver: %w", err)
	}
	historyService := service.NewHistoryService(conn, plotRepo, sectionRepo, operationRepo, snapshotRepo, userRepo, resolver, cfg.History.OperationTTLHours)
	snapshotService := service.NewSnapshotService(plotRepo, sectionRepo, snapshotRepo, cfg.History.SnapshotMaxBytes, cfg.History.SnapshotIntervalMinutes)
	retentionService := service.NewRetentionService(snapshotRepo)
	rollbackService := service.NewRollbackService(conn, plotRepo, sectionRepo, snapshotRepo, rollbackLogRepo, resolver)

	deps := handler.RouterDeps{
		History:   handler.NewHistoryHandler(historyService),
		Snapshots: handler.NewSnapshotHandler(snapshotService),
		Rollback:  handler.NewRollbackHandler(rollbackService),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewSnapshotJob(snapshotService), fmt.Sprintf("*/%d * * * *", cfg.History.SnapshotIntervalMinutes)); err != nil {
		return fmt.Errorf("schedule snapshot job: %w", err)
	}
	if err := scheduler.AddJob(job.NewRetentionJob(retentionService), cfg.History.RetentionCron); err != nil {
		return fmt.Errorf("schedule retention job: %w", err)
	}
	if err := scheduler.AddJob(job.NewOperationTTLJob(historyService), cfg.History.PurgeCron); err != nil {
		return fmt.Errorf("schedule ttl job: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	scheduler.Stop()
	return nil
}
