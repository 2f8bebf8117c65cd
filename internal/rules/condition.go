// Package rules holds the condition document schema shared by the rule write
// path and the squid config renderer, together with its validator and the
// weekly schedule evaluator.
package rules

import (
	"encoding/json"

	"github.com/vigiaproxy/vigia/internal/models"
)

// SchemaVersion is the only condition document version this build accepts.
// Unknown versions are rejected outright rather than best-effort parsed.
const SchemaVersion = 1

// Condition is the typed form of a rule's condition document.
type Condition struct {
	Version int       `json:"version"`
	Note    string    `json:"note"`
	Match   Match     `json:"match"`
	Time    *TimeSpec `json:"time,omitempty"`
}

// Match carries the per-category criteria. At least one category must be
// populated; empty slices carry no meaning and fail validation.
type Match struct {
	Zones         []uint       `json:"zones,omitempty"`
	URLCategories []uint       `json:"url_categories,omitempty"`
	URLs          []string     `json:"urls,omitempty"`
	HTTPMethods   []string     `json:"http_methods,omitempty"`
	Services      []ServiceRef `json:"services,omitempty"`
}

// ServiceRef names a network service by protocol and port.
type ServiceRef struct {
	Protocol models.NetProtocol `json:"protocol"`
	Port     int                `json:"port"`
}

// Empty reports whether no match category is populated.
func (m Match) Empty() bool {
	return len(m.Zones) == 0 &&
		len(m.URLCategories) == 0 &&
		len(m.URLs) == 0 &&
		len(m.HTTPMethods) == 0 &&
		len(m.Services) == 0
}

// Parse validates raw document bytes and returns the typed condition.
// The input is never modified; callers that persist the document should store
// the raw bytes they were given, not a re-marshalled copy.
func Parse(raw []byte) (*Condition, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}

	var cond Condition
	if err := json.Unmarshal(raw, &cond); err != nil {
		// Validate accepted the document, so this only fires on exotic
		// type mismatches it models as field errors already.
		return nil, err
	}
	return &cond, nil
}
