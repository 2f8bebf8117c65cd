package models

import (
	"time"

	"gorm.io/gorm"
)

// RuleAction is the outcome a rule prescribes for matching traffic.
type RuleAction string

const (
	ActionAllow   RuleAction = "ALLOW"
	ActionDeny    RuleAction = "DENY"
	ActionAlert   RuleAction = "ALERT"
	ActionLogOnly RuleAction = "LOG_ONLY"
)

// Valid reports whether the action is one of the known enum values.
func (a RuleAction) Valid() bool {
	switch a {
	case ActionAllow, ActionDeny, ActionAlert, ActionLogOnly:
		return true
	}
	return false
}

// Policy is a named, enabled/disabled container for an ordered set of rules.
// Policies are soft-deleted; the name must be unique among live rows.
type Policy struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UUID      string         `json:"uuid" gorm:"uniqueIndex"`
	Name      string         `json:"name" gorm:"uniqueIndex:uniq_policy_name,where:deleted_at IS NULL"`
	Type      string         `json:"type"`
	Enabled   bool           `json:"enabled" gorm:"default:true"`
	Rules     []Rule         `json:"rules,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Rule maps one prioritized condition onto an action within a policy.
// The condition column stores the raw JSON document exactly as submitted so
// it round-trips byte-for-byte; validation happens in the write path, never
// against the stored bytes.
type Rule struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UUID      string         `json:"uuid" gorm:"uniqueIndex"`
	PolicyID  uint           `json:"policy_id" gorm:"uniqueIndex:uniq_rule_policy_priority,where:deleted_at IS NULL"`
	Policy    *Policy        `json:"policy,omitempty"`
	Priority  int            `json:"priority" gorm:"uniqueIndex:uniq_rule_policy_priority,where:deleted_at IS NULL"`
	Action    RuleAction     `json:"action"`
	Enabled   bool           `json:"enabled" gorm:"default:true"`
	Condition string         `json:"condition" gorm:"type:text"`
	Note      string         `json:"note" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
