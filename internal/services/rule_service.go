package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/metrics"
	"github.com/vigiaproxy/vigia/internal/models"
	"github.com/vigiaproxy/vigia/internal/rules"
)

var (
	ErrRuleNotFound  = errors.New("rule not found")
	ErrInvalidAction = errors.New("invalid rule action")
	// ErrDuplicatePriority is distinct from generic storage failures so the
	// UI can suggest the fix: change the priority or edit the existing rule.
	ErrDuplicatePriority = errors.New("a live rule with this policy and priority already exists; change the priority or edit the existing rule")
)

type RuleService struct {
	db *gorm.DB
}

func NewRuleService(db *gorm.DB) *RuleService {
	return &RuleService{db: db}
}

// Create validates and stores a new rule. The condition document is checked
// fail-closed before anything touches storage; the (policy, priority)
// uniqueness among live rules is enforced by the partial unique index, which
// makes concurrent conflicting creates resolve to one winner and one
// ErrDuplicatePriority.
func (s *RuleService) Create(rule *models.Rule) error {
	cond, err := s.validate(rule)
	if err != nil {
		metrics.IncRuleWriteRejected()
		return err
	}

	if _, err := NewPolicyService(s.db).GetByID(rule.PolicyID); err != nil {
		return err
	}

	if rule.Note == "" {
		rule.Note = cond.Note
	}
	rule.UUID = uuid.New().String()

	if err := s.db.Create(rule).Error; err != nil {
		if isUniqueViolation(err) {
			metrics.IncRuleWriteRejected()
			return ErrDuplicatePriority
		}
		return err
	}
	return nil
}

// GetByID retrieves a live rule by ID.
func (s *RuleService) GetByID(id uint) (*models.Rule, error) {
	var rule models.Rule
	if err := s.db.First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// Update validates and applies changes to an existing live rule.
func (s *RuleService) Update(id uint, updates *models.Rule) error {
	rule, err := s.GetByID(id)
	if err != nil {
		return err
	}

	rule.PolicyID = updates.PolicyID
	rule.Priority = updates.Priority
	rule.Action = updates.Action
	rule.Enabled = updates.Enabled
	rule.Condition = updates.Condition
	rule.Note = updates.Note

	cond, err := s.validate(rule)
	if err != nil {
		metrics.IncRuleWriteRejected()
		return err
	}
	if rule.Note == "" {
		rule.Note = cond.Note
	}

	if err := s.db.Save(rule).Error; err != nil {
		if isUniqueViolation(err) {
			metrics.IncRuleWriteRejected()
			return ErrDuplicatePriority
		}
		return err
	}
	return nil
}

// ListActive returns the live, enabled rules of a policy ordered by priority
// ascending. This is the sequence the config renderer consumes.
func (s *RuleService) ListActive(policyID uint) ([]models.Rule, error) {
	var ruleRows []models.Rule
	err := s.db.Where("policy_id = ? AND enabled = ?", policyID, true).
		Order("priority asc").Find(&ruleRows).Error
	if err != nil {
		return nil, err
	}
	return ruleRows, nil
}

// List returns all live rules ordered by (policy, priority).
func (s *RuleService) List() ([]models.Rule, error) {
	var ruleRows []models.Rule
	if err := s.db.Order("policy_id asc, priority asc").Find(&ruleRows).Error; err != nil {
		return nil, err
	}
	return ruleRows, nil
}

// ListAll returns every rule including soft-deleted ones, for audit views.
func (s *RuleService) ListAll() ([]models.Rule, error) {
	var ruleRows []models.Rule
	if err := s.db.Unscoped().Order("policy_id asc, priority asc").Find(&ruleRows).Error; err != nil {
		return nil, err
	}
	return ruleRows, nil
}

// Toggle flips the enabled flag and returns the new state.
func (s *RuleService) Toggle(id uint) (bool, error) {
	rule, err := s.GetByID(id)
	if err != nil {
		return false, err
	}
	rule.Enabled = !rule.Enabled
	if err := s.db.Model(rule).Update("enabled", rule.Enabled).Error; err != nil {
		return false, err
	}
	return rule.Enabled, nil
}

// Delete soft-deletes a rule, freeing its (policy, priority) slot.
func (s *RuleService) Delete(id uint) error {
	result := s.db.Delete(&models.Rule{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// validate runs the write-path checks: action enum, justification note,
// condition document schema. Failures are terminal rejections of the write.
func (s *RuleService) validate(rule *models.Rule) (*rules.Condition, error) {
	if !rule.Action.Valid() {
		return nil, ErrInvalidAction
	}

	cond, err := rules.Parse([]byte(rule.Condition))
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(rule.Note) == "" && strings.TrimSpace(cond.Note) == "" {
		return nil, errors.New("a justification note is required")
	}

	return cond, nil
}
