package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/models"
)

var (
	ErrReferenceNotFound = errors.New("reference entry not found")
	ErrReferenceExists   = errors.New("an entry with this key already exists")
	ErrInvalidProtocol   = errors.New("protocol must be TCP or UDP")
	ErrInvalidPort       = errors.New("port must be between 1 and 65535")
)

// ReferenceService manages the lookup tables rules point at: zones, URL
// categories, URLs, services and HTTP methods. All of them soft-delete.
type ReferenceService struct {
	db *gorm.DB
}

func NewReferenceService(db *gorm.DB) *ReferenceService {
	return &ReferenceService{db: db}
}

// Zones

func (s *ReferenceService) CreateZone(zone *models.Zone) error {
	if strings.TrimSpace(zone.Name) == "" {
		return errors.New("zone name is required")
	}
	return translateUnique(s.db.Create(zone).Error)
}

func (s *ReferenceService) ListZones() ([]models.Zone, error) {
	var zones []models.Zone
	return zones, s.db.Order("name asc").Find(&zones).Error
}

func (s *ReferenceService) UpdateZone(id uint, updates *models.Zone) error {
	var zone models.Zone
	if err := s.first(&zone, id); err != nil {
		return err
	}
	zone.Name = updates.Name
	zone.Description = updates.Description
	if strings.TrimSpace(zone.Name) == "" {
		return errors.New("zone name is required")
	}
	return translateUnique(s.db.Save(&zone).Error)
}

func (s *ReferenceService) DeleteZone(id uint) error {
	return s.softDelete(&models.Zone{}, id)
}

// URL categories

func (s *ReferenceService) CreateCategory(category *models.URLCategory) error {
	if strings.TrimSpace(category.Name) == "" {
		return errors.New("category name is required")
	}
	return translateUnique(s.db.Create(category).Error)
}

func (s *ReferenceService) ListCategories() ([]models.URLCategory, error) {
	var categories []models.URLCategory
	return categories, s.db.Order("name asc").Find(&categories).Error
}

func (s *ReferenceService) UpdateCategory(id uint, updates *models.URLCategory) error {
	var category models.URLCategory
	if err := s.first(&category, id); err != nil {
		return err
	}
	category.Name = updates.Name
	category.Description = updates.Description
	if strings.TrimSpace(category.Name) == "" {
		return errors.New("category name is required")
	}
	return translateUnique(s.db.Save(&category).Error)
}

func (s *ReferenceService) DeleteCategory(id uint) error {
	return s.softDelete(&models.URLCategory{}, id)
}

// URLs

func (s *ReferenceService) CreateURL(u *models.URL) error {
	if err := normalizeURLRow(u); err != nil {
		return err
	}
	return translateUnique(s.db.Create(u).Error)
}

func (s *ReferenceService) ListURLs() ([]models.URL, error) {
	var urls []models.URL
	return urls, s.db.Preload("Category").Order("host asc, path asc").Find(&urls).Error
}

func (s *ReferenceService) UpdateURL(id uint, updates *models.URL) error {
	var u models.URL
	if err := s.first(&u, id); err != nil {
		return err
	}
	u.Scheme = updates.Scheme
	u.Host = updates.Host
	u.Port = updates.Port
	u.Path = updates.Path
	u.Query = updates.Query
	u.CategoryID = updates.CategoryID
	if err := normalizeURLRow(&u); err != nil {
		return err
	}
	return translateUnique(s.db.Save(&u).Error)
}

func (s *ReferenceService) DeleteURL(id uint) error {
	return s.softDelete(&models.URL{}, id)
}

// Services

func (s *ReferenceService) CreateService(svc *models.Service) error {
	if err := validateService(svc); err != nil {
		return err
	}
	return translateUnique(s.db.Create(svc).Error)
}

func (s *ReferenceService) ListServices() ([]models.Service, error) {
	var services []models.Service
	return services, s.db.Order("name asc, port asc").Find(&services).Error
}

func (s *ReferenceService) UpdateService(id uint, updates *models.Service) error {
	var svc models.Service
	if err := s.first(&svc, id); err != nil {
		return err
	}
	svc.Name = updates.Name
	svc.Protocol = updates.Protocol
	svc.Port = updates.Port
	if err := validateService(&svc); err != nil {
		return err
	}
	return translateUnique(s.db.Save(&svc).Error)
}

func (s *ReferenceService) DeleteService(id uint) error {
	return s.softDelete(&models.Service{}, id)
}

// HTTP methods

// CreateMethod stores an HTTP method, normalized to uppercase.
func (s *ReferenceService) CreateMethod(method *models.HTTPMethod) error {
	method.Method = strings.ToUpper(strings.TrimSpace(method.Method))
	if method.Method == "" {
		return errors.New("method is required")
	}
	return translateUnique(s.db.Create(method).Error)
}

func (s *ReferenceService) ListMethods() ([]models.HTTPMethod, error) {
	var methods []models.HTTPMethod
	return methods, s.db.Order("method asc").Find(&methods).Error
}

func (s *ReferenceService) DeleteMethod(id uint) error {
	return s.softDelete(&models.HTTPMethod{}, id)
}

// helpers

func (s *ReferenceService) first(dest interface{}, id uint) error {
	if err := s.db.First(dest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReferenceNotFound
		}
		return err
	}
	return nil
}

func (s *ReferenceService) softDelete(model interface{}, id uint) error {
	result := s.db.Delete(model, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReferenceNotFound
	}
	return nil
}

func normalizeURLRow(u *models.URL) error {
	u.Host = strings.ToLower(strings.TrimSpace(u.Host))
	if u.Host == "" {
		return errors.New("host is required")
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Port == 0 {
		if u.Scheme == "https" {
			u.Port = 443
		} else {
			u.Port = 80
		}
	}
	if u.Port < 1 || u.Port > 65535 {
		return ErrInvalidPort
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return nil
}

func validateService(svc *models.Service) error {
	if strings.TrimSpace(svc.Name) == "" {
		return errors.New("service name is required")
	}
	if svc.Protocol != models.ProtocolTCP && svc.Protocol != models.ProtocolUDP {
		return ErrInvalidProtocol
	}
	if svc.Port < 1 || svc.Port > 65535 {
		return ErrInvalidPort
	}
	return nil
}

func translateUnique(err error) error {
	if isUniqueViolation(err) {
		return ErrReferenceExists
	}
	return err
}
