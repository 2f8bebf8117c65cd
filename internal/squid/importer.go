package squid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/logger"
	"github.com/vigiaproxy/vigia/internal/metrics"
	"github.com/vigiaproxy/vigia/internal/models"
)

// Importer tails an access log into the events store. It resumes from a
// durable byte offset, reads a bounded batch, and persists the batch plus
// reference rows in one transaction before advancing the offset, which gives
// at-least-once delivery across crashes.
//
// One importer per (logfile, statefile) pair at a time; concurrent runs would
// race on the offset. The caller owns that mutual exclusion.
type Importer struct {
	db        *gorm.DB
	logfile   string
	statefile string
	limit     int
}

// ImportResult reports what a single run did.
type ImportResult struct {
	Inserted int   `json:"inserted"`
	Skipped  int   `json:"skipped"`
	Denied   int   `json:"denied"`
	Offset   int64 `json:"offset"`
	Reset    bool  `json:"reset"`
}

// NewImporter creates an importer. limit bounds how many lines one run
// consumes.
func NewImporter(db *gorm.DB, logfile, statefile string, limit int) *Importer {
	return &Importer{db: db, logfile: logfile, statefile: statefile, limit: limit}
}

// Run executes one ingestion pass. Environment failures (missing or
// unreadable logfile) abort before any durable state changes, so a retry is
// always safe. Malformed lines are counted and skipped.
func (im *Importer) Run() (ImportResult, error) {
	res := ImportResult{}

	offset := im.loadOffset()

	info, err := os.Stat(im.logfile)
	if err != nil {
		return res, fmt.Errorf("stat access log %s: %w", im.logfile, err)
	}

	// A size below the stored offset means the log was rotated or truncated
	// underneath us; start over instead of seeking past end-of-file.
	if info.Size() < offset {
		logger.WithFields(map[string]interface{}{
			"offset": offset,
			"size":   info.Size(),
		}).Warn("access log shrank below stored offset, resetting to start")
		offset = 0
		res.Reset = true
	}

	lines, newOffset, err := im.readBatch(offset)
	if err != nil {
		return res, err
	}
	res.Offset = offset

	if len(lines) == 0 {
		return res, nil
	}

	err = im.db.Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			parsed, parseErr := ParseLine(line)
			if parseErr != nil {
				res.Skipped++
				continue
			}

			if insertErr := insertRequest(tx, parsed); insertErr != nil {
				return insertErr
			}
			res.Inserted++
			if Classify(parsed.StatusTag).Verdict == models.VerdictDeny {
				res.Denied++
			}
		}
		return nil
	})
	// The counts describe committed work only; a rollback leaves none.
	if err != nil {
		res.Inserted = 0
		res.Skipped = 0
		res.Denied = 0
		return res, fmt.Errorf("persist batch: %w", err)
	}

	// The offset only moves after the batch committed. A crash between the
	// commit and this write re-imports the same window on the next run.
	if err := im.storeOffset(newOffset); err != nil {
		return res, fmt.Errorf("store offset: %w", err)
	}
	res.Offset = newOffset

	metrics.AddIngestedLines(res.Inserted)
	metrics.AddSkippedLines(res.Skipped)
	metrics.AddDeniedEvents(res.Denied)

	return res, nil
}

// readBatch reads up to limit lines starting at offset and returns them with
// the byte position after the last line consumed.
func (im *Importer) readBatch(offset int64) ([]string, int64, error) {
	f, err := os.Open(im.logfile)
	if err != nil {
		return nil, 0, fmt.Errorf("open access log %s: %w", im.logfile, err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek to offset %d: %w", offset, err)
	}

	reader := bufio.NewReader(f)
	var lines []string
	pos := offset

	for len(lines) < im.limit {
		line, readErr := reader.ReadString('\n')
		if line != "" {
			pos += int64(len(line))
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, 0, fmt.Errorf("read access log: %w", readErr)
		}
	}

	return lines, pos, nil
}

// insertRequest resolves the method and URL lookups (creating them on first
// sight) and appends one event row.
func insertRequest(tx *gorm.DB, parsed *ParsedLine) error {
	cls := Classify(parsed.StatusTag)

	method := models.HTTPMethod{Method: strings.ToUpper(parsed.Method)}
	if err := tx.Where("method = ?", method.Method).FirstOrCreate(&method).Error; err != nil {
		return fmt.Errorf("resolve http method %s: %w", method.Method, err)
	}

	urlRow := models.URL{
		Scheme: parsed.URL.Scheme,
		Host:   parsed.URL.Host,
		Port:   parsed.URL.Port,
		Path:   parsed.URL.Path,
		Query:  parsed.URL.Query,
	}
	if err := tx.Where(
		"scheme = ? AND host = ? AND port = ? AND path = ? AND query = ?",
		urlRow.Scheme, urlRow.Host, urlRow.Port, urlRow.Path, urlRow.Query,
	).FirstOrCreate(&urlRow).Error; err != nil {
		return fmt.Errorf("resolve url %s: %w", parsed.RawURL, err)
	}

	request := models.Request{
		Timestamp:   parsed.Timestamp,
		ClientIP:    parsed.ClientIP,
		MethodID:    &method.ID,
		URLID:       &urlRow.ID,
		DestPort:    parsed.URL.Port,
		HTTPStatus:  parsed.StatusCode,
		BytesOut:    parsed.Bytes,
		ElapsedMs:   parsed.ElapsedMs,
		CacheStatus: cls.CacheStatus,
		Verdict:     cls.Verdict,
		BlockReason: cls.BlockReason,
	}
	if err := tx.Create(&request).Error; err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// loadOffset reads the stored byte offset; absent or corrupt state restarts
// from the beginning.
func (im *Importer) loadOffset() int64 {
	data, err := os.ReadFile(im.statefile)
	if err != nil {
		return 0
	}
	offset, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

func (im *Importer) storeOffset(offset int64) error {
	if dir := filepath.Dir(im.statefile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(im.statefile, []byte(strconv.FormatInt(offset, 10)), 0o644)
}
