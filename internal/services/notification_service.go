package services

import (
	"fmt"

	"github.com/containrrr/shoutrrr"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/logger"
	"github.com/vigiaproxy/vigia/internal/models"
)

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Internal notifications (DB)

func (s *NotificationService) Create(nType models.NotificationType, title, message string) (*models.Notification, error) {
	notification := &models.Notification{
		Type:    nType,
		Title:   title,
		Message: message,
		Read:    false,
	}
	result := s.db.Create(notification)
	return notification, result.Error
}

func (s *NotificationService) List(unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.db.Order("created_at desc")
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	return notifications, query.Find(&notifications).Error
}

func (s *NotificationService) MarkAsRead(id uint) error {
	return s.db.Model(&models.Notification{}).Where("id = ?", id).Update("read", true).Error
}

func (s *NotificationService) MarkAllAsRead() error {
	return s.db.Model(&models.Notification{}).Where("read = ?", false).Update("read", true).Error
}

// Providers

func (s *NotificationService) CreateProvider(provider *models.NotificationProvider) error {
	return s.db.Create(provider).Error
}

func (s *NotificationService) ListProviders() ([]models.NotificationProvider, error) {
	var providers []models.NotificationProvider
	return providers, s.db.Order("name asc").Find(&providers).Error
}

func (s *NotificationService) DeleteProvider(id uint) error {
	result := s.db.Delete(&models.NotificationProvider{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReferenceNotFound
	}
	return nil
}

// External notifications (shoutrrr)

// SendExternal fans a message out to every enabled provider that opted into
// the event type ("deny" or "config"). Delivery is best effort and async;
// failures are logged, never surfaced to the caller.
func (s *NotificationService) SendExternal(eventType, title, message string) {
	var providers []models.NotificationProvider
	if err := s.db.Where("enabled = ?", true).Find(&providers).Error; err != nil {
		logger.Log().WithError(err).Error("fetch notification providers")
		return
	}

	for _, provider := range providers {
		shouldSend := false
		switch eventType {
		case "deny":
			shouldSend = provider.NotifyDenies
		case "config":
			shouldSend = provider.NotifyConfig
		default:
			shouldSend = true
		}
		if !shouldSend {
			continue
		}

		go func(p models.NotificationProvider) {
			msg := fmt.Sprintf("%s\n\n%s", title, message)
			if err := shoutrrr.Send(p.URL, msg); err != nil {
				logger.WithFields(map[string]interface{}{"provider": p.Name}).
					WithError(err).Error("send external notification")
			}
		}(provider)
	}
}
