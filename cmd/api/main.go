package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/robfig/cron/v3"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/config"
	"github.com/vigiaproxy/vigia/internal/database"
	"github.com/vigiaproxy/vigia/internal/logger"
	"github.com/vigiaproxy/vigia/internal/models"
	"github.com/vigiaproxy/vigia/internal/server"
	"github.com/vigiaproxy/vigia/internal/services"
	"github.com/vigiaproxy/vigia/internal/squid"
	"github.com/vigiaproxy/vigia/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		log.Fatalf("ensure log directory: %v", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "vigia.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	logger.Init(cfg.Environment == "development", io.MultiWriter(os.Stdout, rotator))

	logger.WithFields(map[string]interface{}{"version": version.Full()}).
		Infof("starting %s", version.Name)

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	srv, err := server.New(db, &cfg)
	if err != nil {
		log.Fatalf("setup server: %v", err)
	}

	if err := services.NewAuthService(db, cfg.JWTSecret).
		EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("provision admin account: %v", err)
	}

	scheduler, err := startIngestion(db, cfg)
	if err != nil {
		log.Fatalf("schedule ingestion: %v", err)
	}
	if scheduler != nil {
		defer scheduler.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log().Infof("listening on :%s", cfg.HTTPPort)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
	logger.Log().Info("shutdown complete")
}

// startIngestion runs the access-log importer on the configured cron
// schedule. A tick that arrives while the previous pass is still working is
// skipped rather than queued; the next tick resumes from the same offset
// anyway. An empty schedule disables background ingestion entirely.
func startIngestion(db *gorm.DB, cfg config.Config) (*cron.Cron, error) {
	if cfg.IngestSchedule == "" {
		logger.Log().Info("background ingestion disabled")
		return nil, nil
	}

	importer := squid.NewImporter(db, cfg.AccessLogPath, cfg.OffsetStatePath, cfg.IngestBatchSize)
	notifications := services.NewNotificationService(db)

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := scheduler.AddFunc(cfg.IngestSchedule, func() {
		result, err := importer.Run()
		if err != nil {
			logger.Log().WithError(err).Error("scheduled ingestion failed")
			return
		}
		if result.Inserted > 0 || result.Skipped > 0 {
			logger.WithFields(map[string]interface{}{
				"inserted": result.Inserted,
				"skipped":  result.Skipped,
				"denied":   result.Denied,
				"offset":   result.Offset,
			}).Info("ingestion pass complete")
		}
		if result.Denied > 0 {
			message := fmt.Sprintf("%d denied requests recorded in the last ingestion pass.", result.Denied)
			notifications.Create(models.NotificationTypeWarning, "Denied requests ingested", message)
			notifications.SendExternal("deny", "Denied requests ingested", message)
		}
	})
	if err != nil {
		return nil, err
	}

	scheduler.Start()
	logger.WithFields(map[string]interface{}{"schedule": cfg.IngestSchedule}).
		Info("background ingestion scheduled")
	return scheduler, nil
}
