package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	LogDir       string
	JWTSecret    string

	// Access-log ingestion
	AccessLogPath   string
	OffsetStatePath string
	IngestBatchSize int
	IngestSchedule  string // cron spec for the background importer; empty disables it

	// Squid config rendering
	SquidRulesPath     string
	SquidReloadCommand string

	// Optional one-time admin provisioning. Both must be set to take effect.
	AdminEmail    string
	AdminPassword string
}

// Load reads env vars and falls back to defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment:        getEnv("VIGIA_ENV", "development"),
		HTTPPort:           getEnv("VIGIA_HTTP_PORT", "8080"),
		DatabasePath:       getEnv("VIGIA_DB_PATH", filepath.Join("data", "vigia.db")),
		LogDir:             getEnv("VIGIA_LOG_DIR", filepath.Join("data", "logs")),
		JWTSecret:          getEnv("VIGIA_JWT_SECRET", ""),
		AccessLogPath:      getEnv("VIGIA_ACCESS_LOG", "/var/log/squid/access.log"),
		OffsetStatePath:    getEnv("VIGIA_OFFSET_STATE", filepath.Join("data", "accesslog.offset")),
		IngestBatchSize:    getEnvInt("VIGIA_INGEST_BATCH", 5000),
		IngestSchedule:     getEnv("VIGIA_INGEST_SCHEDULE", "@every 1m"),
		SquidRulesPath:     getEnv("VIGIA_SQUID_RULES_PATH", filepath.Join("generated", "vigia_rules.conf")),
		SquidReloadCommand: getEnv("VIGIA_SQUID_RELOAD_CMD", ""),
		AdminEmail:         getEnv("VIGIA_ADMIN_EMAIL", ""),
		AdminPassword:      getEnv("VIGIA_ADMIN_PASSWORD", ""),
	}

	if cfg.IngestBatchSize <= 0 {
		return Config{}, fmt.Errorf("VIGIA_INGEST_BATCH must be a positive integer")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}

	return fallback
}
