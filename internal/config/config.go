package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port         int              `json:"port"`
	LogConfig    logger.LogConfig `json:"log_config"`
	Database     DatabaseConfig   `json:"database"`
	History      HistoryConfig    `json:"history"`
	CORSOrigins  []string         `json:"cors_origins"`
	UserCacheCap int              `json:"user_cache_cap"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type HistoryConfig struct {
	OperationTTLHours       int    `json:"operation_ttl_hours"`
	SnapshotIntervalMinutes int    `json:"snapshot_interval_minutes"`
	SnapshotMaxBytes        int    `json:"snapshot_max_bytes"`
	RetentionCron           string `json:"retention_cron"`
	PurgeCron               string `json:"purge_cron"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.History.OperationTTLHours == 0 {
		cfg.History.OperationTTLHours = 72
	}
	if cfg.History.SnapshotIntervalMinutes == 0 {
		cfg.History.SnapshotIntervalMinutes = 5
	}
	if cfg.History.SnapshotMaxBytes == 0 {
		cfg.History.SnapshotMaxBytes = 10 * 1024 * 1024
	}
	if cfg.History.RetentionCron == "" {
		cfg.History.RetentionCron = "0 3 * * *"
	}
	if cfg.History.PurgeCron == "" {
		cfg.History.PurgeCron = "0 */6 * * *"
	}
	return &cfg, nil
}
