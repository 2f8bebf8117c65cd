package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/vigiaproxy/vigia/internal/config"
	"github.com/vigiaproxy/vigia/internal/database"
	"github.com/vigiaproxy/vigia/internal/logger"
	"github.com/vigiaproxy/vigia/internal/models"
	"github.com/vigiaproxy/vigia/internal/squid"
)

// One-shot access-log ingestion, suitable for cron or manual runs alongside
// (not concurrently with) the API server's own scheduler.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logfile := flag.String("logfile", cfg.AccessLogPath, "path to the squid access log")
	statefile := flag.String("statefile", cfg.OffsetStatePath, "path to the byte-offset state file")
	limit := flag.Int("limit", cfg.IngestBatchSize, "maximum lines to consume in this run")
	flag.Parse()

	if *limit <= 0 {
		log.Fatal("limit must be a positive integer")
	}

	logger.Init(cfg.Environment == "development", os.Stderr)

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	if err := db.AutoMigrate(&models.HTTPMethod{}, &models.URL{}, &models.Request{}); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	result, err := squid.NewImporter(db, *logfile, *statefile, *limit).Run()
	if err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}

	if result.Reset {
		fmt.Println("access log rotated; restarted from the beginning")
	}
	fmt.Printf("inserted %d, skipped %d, denied %d, offset now %d\n",
		result.Inserted, result.Skipped, result.Denied, result.Offset)
}
