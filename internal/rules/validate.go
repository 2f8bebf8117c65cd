package rules

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Failure codes for condition validation. Every distinct failure class the
// write path needs to distinguish has its own code.
const (
	CodeTypeError          = "TYPE_ERROR"
	CodeUnsupportedVersion = "UNSUPPORTED_VERSION"
	CodeMissingNote        = "MISSING_NOTE"
	CodeMissingMatch       = "MISSING_MATCH"
	CodeUnknownMatchKey    = "UNKNOWN_MATCH_KEY"
	CodeEmptyMatch         = "EMPTY_MATCH"
	CodeMatchShapeError    = "MATCH_SHAPE_ERROR"
	CodeInvalidDays        = "INVALID_DAYS"
	CodeInvalidTimeFormat  = "INVALID_TIME_FORMAT"
	CodeInvalidTimeRange   = "INVALID_TIME_RANGE"
	CodeMissingTZ          = "MISSING_TZ"
)

// FieldError is a single field-qualified validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates field errors. The message concatenates one
// sentence per field so it can be shown to an operator as-is.
type ValidationError []FieldError

func (e ValidationError) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, " ")
}

// Has reports whether any field error carries the given code.
func (e ValidationError) Has(code string) bool {
	for _, fe := range e {
		if fe.Code == code {
			return true
		}
	}
	return false
}

var matchKeys = map[string]struct{}{
	"zones":          {},
	"url_categories": {},
	"urls":           {},
	"http_methods":   {},
	"services":       {},
}

// Validate checks a raw condition document against the version-1 schema.
// It returns nil when the document is valid, or a ValidationError listing
// every failure found. The input bytes are never mutated.
func Validate(raw []byte) error {
	var errs ValidationError

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ValidationError{{
			Field:   "condition",
			Code:    CodeTypeError,
			Message: "condition must be a JSON object.",
		}}
	}

	for key := range doc {
		switch key {
		case "version", "note", "match", "time":
		default:
			errs = append(errs, FieldError{
				Field:   key,
				Code:    CodeTypeError,
				Message: fmt.Sprintf("unexpected top-level key %q.", key),
			})
		}
	}

	var version int
	if rawVersion, ok := doc["version"]; !ok || json.Unmarshal(rawVersion, &version) != nil || version != SchemaVersion {
		errs = append(errs, FieldError{
			Field:   "version",
			Code:    CodeUnsupportedVersion,
			Message: fmt.Sprintf("version must be %d.", SchemaVersion),
		})
	}

	var note string
	if rawNote, ok := doc["note"]; !ok || json.Unmarshal(rawNote, &note) != nil || strings.TrimSpace(note) == "" {
		errs = append(errs, FieldError{
			Field:   "note",
			Code:    CodeMissingNote,
			Message: "note is required and must be a non-empty string.",
		})
	}

	errs = append(errs, validateMatch(doc["match"])...)

	if rawTime, ok := doc["time"]; ok && !isJSONNull(rawTime) {
		errs = append(errs, validateTime(rawTime)...)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateMatch(raw json.RawMessage) ValidationError {
	if raw == nil {
		return ValidationError{{
			Field:   "match",
			Code:    CodeMissingMatch,
			Message: "match is required.",
		}}
	}

	var match map[string]json.RawMessage
	if err := json.Unmarshal(raw, &match); err != nil {
		return ValidationError{{
			Field:   "match",
			Code:    CodeMissingMatch,
			Message: "match must be a JSON object.",
		}}
	}

	var errs ValidationError

	var unknown []string
	for key := range match {
		if _, ok := matchKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		errs = append(errs, FieldError{
			Field:   "match",
			Code:    CodeUnknownMatchKey,
			Message: fmt.Sprintf("unknown match keys: %s.", strings.Join(unknown, ", ")),
		})
	}

	populated := 0

	checkIDList := func(key string) {
		raw, ok := match[key]
		if !ok {
			return
		}
		var ids []uint
		if err := json.Unmarshal(raw, &ids); err != nil {
			errs = append(errs, FieldError{
				Field:   "match." + key,
				Code:    CodeMatchShapeError,
				Message: fmt.Sprintf("%s must be a list of numeric identifiers.", key),
			})
			return
		}
		if len(ids) > 0 {
			populated++
		}
	}

	checkStringList := func(key string) {
		raw, ok := match[key]
		if !ok {
			return
		}
		var vals []string
		if err := json.Unmarshal(raw, &vals); err != nil {
			errs = append(errs, FieldError{
				Field:   "match." + key,
				Code:    CodeMatchShapeError,
				Message: fmt.Sprintf("%s must be a list of strings.", key),
			})
			return
		}
		if len(vals) > 0 {
			populated++
		}
	}

	checkIDList("zones")
	checkIDList("url_categories")
	checkStringList("urls")
	checkStringList("http_methods")

	if rawServices, ok := match["services"]; ok {
		var services []ServiceRef
		if err := json.Unmarshal(rawServices, &services); err != nil {
			errs = append(errs, FieldError{
				Field:   "match.services",
				Code:    CodeMatchShapeError,
				Message: "services must be a list of {protocol, port} objects.",
			})
		} else {
			for i, svc := range services {
				if svc.Protocol != "TCP" && svc.Protocol != "UDP" {
					errs = append(errs, FieldError{
						Field:   fmt.Sprintf("match.services[%d].protocol", i),
						Code:    CodeMatchShapeError,
						Message: "protocol must be TCP or UDP.",
					})
				}
				if svc.Port < 1 || svc.Port > 65535 {
					errs = append(errs, FieldError{
						Field:   fmt.Sprintf("match.services[%d].port", i),
						Code:    CodeMatchShapeError,
						Message: "port must be between 1 and 65535.",
					})
				}
			}
			if len(services) > 0 {
				populated++
			}
		}
	}

	if len(errs) == 0 && populated == 0 {
		errs = append(errs, FieldError{
			Field:   "match",
			Code:    CodeEmptyMatch,
			Message: "at least one match criterion must be set.",
		})
	}

	return errs
}

func validateTime(raw json.RawMessage) ValidationError {
	var spec TimeSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return ValidationError{{
			Field:   "time",
			Code:    CodeInvalidTimeFormat,
			Message: "time must be an object with days, start, end and tz.",
		}}
	}

	// A fully empty block means "no restriction" and is allowed; partial
	// blocks are not.
	if spec.IsZero() {
		return nil
	}

	var errs ValidationError

	if len(spec.Days) == 0 {
		errs = append(errs, FieldError{
			Field:   "time.days",
			Code:    CodeInvalidDays,
			Message: "days must be a non-empty list of weekday codes.",
		})
	} else {
		for _, day := range spec.Days {
			if _, ok := weekdayCodes[day]; !ok {
				errs = append(errs, FieldError{
					Field:   "time.days",
					Code:    CodeInvalidDays,
					Message: fmt.Sprintf("unknown weekday code %q.", day),
				})
			}
		}
	}

	startOK := validClock(spec.Start)
	endOK := validClock(spec.End)
	if !startOK {
		errs = append(errs, FieldError{
			Field:   "time.start",
			Code:    CodeInvalidTimeFormat,
			Message: "start must be a 24-hour HH:MM string.",
		})
	}
	if !endOK {
		errs = append(errs, FieldError{
			Field:   "time.end",
			Code:    CodeInvalidTimeFormat,
			Message: "end must be a 24-hour HH:MM string.",
		})
	}
	if startOK && endOK && spec.Start >= spec.End {
		errs = append(errs, FieldError{
			Field:   "time",
			Code:    CodeInvalidTimeRange,
			Message: "start must be strictly before end; overnight windows are not supported.",
		})
	}

	if strings.TrimSpace(spec.TZ) == "" {
		errs = append(errs, FieldError{
			Field:   "time.tz",
			Code:    CodeMissingTZ,
			Message: "tz must name an IANA timezone.",
		})
	}

	return errs
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
