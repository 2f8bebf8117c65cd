package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/models"
)

// EventService is the read side of the events store populated by the
// importer. Event rows are immutable; the only write this service offers is
// a soft delete for audit corrections.
type EventService struct {
	db *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

// EventFilter narrows event listings. Zero values mean "no filter".
type EventFilter struct {
	Verdict  models.Verdict
	ClientIP string
	Since    time.Time
	Limit    int
}

// List returns events newest first, applying the filter.
func (s *EventService) List(filter EventFilter) ([]models.Request, error) {
	query := s.db.Preload("Method").Preload("URL").Order("timestamp desc")

	if filter.Verdict != "" {
		query = query.Where("verdict = ?", filter.Verdict)
	}
	if filter.ClientIP != "" {
		query = query.Where("client_ip = ?", filter.ClientIP)
	}
	if !filter.Since.IsZero() {
		query = query.Where("timestamp >= ?", filter.Since)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	var events []models.Request
	return events, query.Limit(limit).Find(&events).Error
}

// Summary is the dashboard aggregate over a time window.
type Summary struct {
	Total   int64 `json:"total"`
	Denied  int64 `json:"denied"`
	Allowed int64 `json:"allowed"`
}

// Summarize counts events since the given instant.
func (s *EventService) Summarize(since time.Time) (Summary, error) {
	var summary Summary

	base := s.db.Model(&models.Request{})
	if !since.IsZero() {
		base = base.Where("timestamp >= ?", since)
	}

	if err := base.Session(&gorm.Session{}).Count(&summary.Total).Error; err != nil {
		return summary, err
	}
	if err := base.Session(&gorm.Session{}).Where("verdict = ?", models.VerdictDeny).Count(&summary.Denied).Error; err != nil {
		return summary, err
	}
	summary.Allowed = summary.Total - summary.Denied

	return summary, nil
}

// Redact soft-deletes an event row for audit corrections.
func (s *EventService) Redact(id uint) error {
	result := s.db.Delete(&models.Request{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReferenceNotFound
	}
	return nil
}
