package models

import (
	"time"

	"gorm.io/gorm"
)

// NetProtocol is the transport protocol of a network service.
type NetProtocol string

const (
	ProtocolTCP NetProtocol = "TCP"
	ProtocolUDP NetProtocol = "UDP"
)

// Zone is a named network segment rules can match against.
type Zone struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"uniqueIndex:uniq_zone_name,where:deleted_at IS NULL"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// URLCategory groups URLs for category-based filtering.
type URLCategory struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"uniqueIndex:uniq_url_category_name,where:deleted_at IS NULL"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// URL is a decomposed request target. The five-part natural key mirrors what
// the access-log importer extracts from each request line.
type URL struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Scheme     string         `json:"scheme" gorm:"uniqueIndex:uniq_url_parts,where:deleted_at IS NULL"`
	Host       string         `json:"host" gorm:"uniqueIndex:uniq_url_parts,where:deleted_at IS NULL;index"`
	Port       int            `json:"port" gorm:"uniqueIndex:uniq_url_parts,where:deleted_at IS NULL"`
	Path       string         `json:"path" gorm:"uniqueIndex:uniq_url_parts,where:deleted_at IS NULL"`
	Query      string         `json:"query" gorm:"uniqueIndex:uniq_url_parts,where:deleted_at IS NULL"`
	CategoryID *uint          `json:"category_id,omitempty"`
	Category   *URLCategory   `json:"category,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// Service is a network service identified by protocol and port.
type Service struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name"`
	Protocol  NetProtocol    `json:"protocol" gorm:"uniqueIndex:uniq_service_proto_port,where:deleted_at IS NULL"`
	Port      int            `json:"port" gorm:"uniqueIndex:uniq_service_proto_port,where:deleted_at IS NULL"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// HTTPMethod is a lookup row for request methods, stored uppercase.
type HTTPMethod struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Method    string         `json:"method" gorm:"uniqueIndex:uniq_http_method,where:deleted_at IS NULL"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
