package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/models"
)

var (
	ErrPolicyNotFound  = errors.New("policy not found")
	ErrPolicyNameTaken = errors.New("a policy with this name already exists")
)

type PolicyService struct {
	db *gorm.DB
}

func NewPolicyService(db *gorm.DB) *PolicyService {
	return &PolicyService{db: db}
}

// Create stores a new policy after validating its name.
func (s *PolicyService) Create(policy *models.Policy) error {
	if err := s.validate(policy); err != nil {
		return err
	}

	policy.UUID = uuid.New().String()
	if err := s.db.Create(policy).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrPolicyNameTaken
		}
		return err
	}
	return nil
}

// GetByID retrieves a live policy by ID.
func (s *PolicyService) GetByID(id uint) (*models.Policy, error) {
	var policy models.Policy
	if err := s.db.First(&policy, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPolicyNotFound
		}
		return nil, err
	}
	return &policy, nil
}

// List retrieves live policies ordered by name.
func (s *PolicyService) List() ([]models.Policy, error) {
	var policies []models.Policy
	if err := s.db.Order("name asc").Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

// ListAll retrieves every policy including soft-deleted rows. The separate
// method keeps the live/deleted distinction visible at each call site.
func (s *PolicyService) ListAll() ([]models.Policy, error) {
	var policies []models.Policy
	if err := s.db.Unscoped().Order("name asc").Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

// Update applies changes to an existing live policy.
func (s *PolicyService) Update(id uint, updates *models.Policy) error {
	policy, err := s.GetByID(id)
	if err != nil {
		return err
	}

	policy.Name = updates.Name
	policy.Type = updates.Type
	policy.Enabled = updates.Enabled

	if err := s.validate(policy); err != nil {
		return err
	}

	if err := s.db.Save(policy).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrPolicyNameTaken
		}
		return err
	}
	return nil
}

// Delete soft-deletes a policy and its rules. Policies are never hard-deleted
// in the normal flow.
func (s *PolicyService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Policy{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPolicyNotFound
		}
		return tx.Where("policy_id = ?", id).Delete(&models.Rule{}).Error
	})
}

func (s *PolicyService) validate(policy *models.Policy) error {
	if strings.TrimSpace(policy.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

// isUniqueViolation recognizes sqlite unique-index conflicts so callers can
// translate them into user-actionable errors.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
