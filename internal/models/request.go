package models

import (
	"time"

	"gorm.io/gorm"
)

// Verdict is the recorded allow/deny outcome for a processed request.
type Verdict string

const (
	VerdictAllow Verdict = "ALLOW"
	VerdictDeny  Verdict = "DENY"
)

// CacheStatus classifies the proxy cache behavior for a request.
type CacheStatus string

const (
	CacheHit         CacheStatus = "HIT"
	CacheMiss        CacheStatus = "MISS"
	CacheBypass      CacheStatus = "BYPASS"
	CacheExpired     CacheStatus = "EXPIRED"
	CacheRevalidated CacheStatus = "REVALIDATED"
)

// Request is one parsed access-log line. Rows are created only by the
// importer and are never edited afterwards; soft delete exists solely for
// audit corrections.
type Request struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Timestamp   time.Time      `json:"timestamp" gorm:"index"`
	ClientIP    string         `json:"client_ip" gorm:"index"`
	MethodID    *uint          `json:"method_id,omitempty"`
	Method      *HTTPMethod    `json:"method,omitempty"`
	URLID       *uint          `json:"url_id,omitempty"`
	URL         *URL           `json:"url,omitempty"`
	DestPort    int            `json:"dest_port"`
	HTTPStatus  *int           `json:"http_status,omitempty"`
	BytesIn     int64          `json:"bytes_in"`
	BytesOut    int64          `json:"bytes_out"`
	ElapsedMs   int            `json:"elapsed_ms"`
	CacheStatus CacheStatus    `json:"cache_status,omitempty"`
	Verdict     Verdict        `json:"verdict" gorm:"index"`
	BlockReason string         `json:"block_reason"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
