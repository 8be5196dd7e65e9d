// Package scan detects PII, classification markings and CUI markings in
// free-form text before it is persisted or sent to an external AI provider.
//
// The package is a set of pure functions over an immutable rule registry:
// scanning never performs I/O, never mutates shared state and never fails
// for string input. Callers decide what to do with the matches (reject a
// write, refuse an LLM call, record an audit event).
package scan

import "sort"

// Category groups detection rules for reporting
type Category string

const (
	CategoryPII            Category = "PII"
	CategoryClassification Category = "Classification Marking"
	CategoryCUI            Category = "CUI"
)

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryPII, CategoryClassification, CategoryCUI:
		return true
	default:
		return false
	}
}

// RuleType identifies a detection rule. It is unique within a registry.
type RuleType string

const (
	TypeSSN            RuleType = "ssn"
	TypePhone          RuleType = "phone"
	TypeEmail          RuleType = "email"
	TypeDoDID          RuleType = "dod_id"
	TypeDOB            RuleType = "dob"
	TypeAddress        RuleType = "address"
	TypeClassification RuleType = "classification"
	TypeCUIMarking     RuleType = "cui_marking"
	TypeGridCoord      RuleType = "grid_coord"
	TypeLatLong        RuleType = "lat_long"
	TypeIPAddress      RuleType = "ip_address"
	TypeMACAddress     RuleType = "mac_address"
	TypeMilURL         RuleType = "mil_url"
)

// Severity is display metadata. It orders summaries and never decides
// whether a match blocks.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Value returns numeric value for severity comparison
func (s Severity) Value() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// SensitiveMatch is a single detection. Type, Category, Label and Severity
// are copied from the rule that produced it.
type SensitiveMatch struct {
	Type     RuleType `json:"type"`
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`

	// Value is the exact matched substring and Index its byte offset in
	// the source field's text.
	Value string `json:"value"`
	Index int    `json:"index"`

	// Field is empty when a single string was scanned.
	Field string `json:"field,omitempty"`
}

// End returns the byte offset just past the match
func (m SensitiveMatch) End() int {
	return m.Index + len(m.Value)
}

// MatchMetadata is the value-free projection of a match that is safe to
// log, audit or return to a client.
type MatchMetadata struct {
	Type     RuleType `json:"type"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Label    string   `json:"label"`
	Field    string   `json:"field,omitempty"`
}

// Metadata strips values from matches
func Metadata(matches []SensitiveMatch) []MatchMetadata {
	out := make([]MatchMetadata, len(matches))
	for i, m := range matches {
		out[i] = MatchMetadata{
			Type:     m.Type,
			Category: m.Category,
			Severity: m.Severity,
			Label:    m.Label,
			Field:    m.Field,
		}
	}
	return out
}

// Field is one named piece of free text
type Field struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// ScanFields is an ordered set of named fields. Output of a scan follows
// this order, so it is a slice rather than a map.
type ScanFields []Field

// FieldsFromMap builds ScanFields in lexical key order
func FieldsFromMap(m map[string]string) ScanFields {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make(ScanFields, 0, len(names))
	for _, name := range names {
		fields = append(fields, Field{Name: name, Text: m[name]})
	}
	return fields
}

// Accomplishment is a structured performance-report record. Empty fields
// are absent.
type Accomplishment struct {
	Details string `json:"details,omitempty"`
	Impact  string `json:"impact,omitempty"`
	Metrics string `json:"metrics,omitempty"`
}

// Accomplishment field names used to tag matches
const (
	FieldDetails = "details"
	FieldImpact  = "impact"
	FieldMetrics = "metrics"
)

// Fields returns the record's fields in details, impact, metrics order
func (a Accomplishment) Fields() ScanFields {
	return ScanFields{
		{Name: FieldDetails, Text: a.Details},
		{Name: FieldImpact, Text: a.Impact},
		{Name: FieldMetrics, Text: a.Metrics},
	}
}

// LLMScanResult is the outcome of an outbound-LLM check
type LLMScanResult struct {
	Blocked bool             `json:"blocked"`
	Matches []SensitiveMatch `json:"matches"`
}

// Labels returns the distinct labels of the matches in first-seen order
func (r LLMScanResult) Labels() []string {
	seen := make(map[string]bool, len(r.Matches))
	labels := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		if seen[m.Label] {
			continue
		}
		seen[m.Label] = true
		labels = append(labels, m.Label)
	}
	return labels
}
