package scan

import (
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Scanner runs a registry over named fields. A Scanner holds no mutable
// state and is safe for concurrent use.
type Scanner struct {
	registry    *Registry
	concurrency int
}

// Option configures a Scanner
type Option func(*Scanner)

// WithRegistry replaces the built-in rules
func WithRegistry(r *Registry) Option {
	return func(s *Scanner) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithConcurrency scans up to n fields in parallel. Output order does not
// depend on n.
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewScanner creates a scanner over the default registry
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		registry:    DefaultRegistry(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the rules the scanner applies
func (s *Scanner) Registry() *Registry {
	return s.registry
}

// Scan scans each present, non-blank field independently and returns the
// deduplicated matches tagged with their field name, in field order, then
// rule order, then offset order. A keyword in one field never satisfies a
// context requirement in another.
func (s *Scanner) Scan(fields ScanFields) []SensitiveMatch {
	present := make([]Field, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.Text) != "" {
			present = append(present, f)
		}
	}

	results := make([][]SensitiveMatch, len(present))
	if s.concurrency > 1 && len(present) > 1 {
		var g errgroup.Group
		g.SetLimit(s.concurrency)
		for i, f := range present {
			i, f := i, f
			g.Go(func() error {
				results[i] = s.scanField(f.Name, f.Text)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, f := range present {
			results[i] = s.scanField(f.Name, f.Text)
		}
	}

	return s.merge(results)
}

// ScanText scans a single string. Matches carry no field name.
func (s *Scanner) ScanText(text string) []SensitiveMatch {
	matches := s.scanField("", text)
	if matches == nil {
		return []SensitiveMatch{}
	}
	return matches
}

func (s *Scanner) scanField(name, text string) []SensitiveMatch {
	matches := Match(s.registry, text)
	for i := range matches {
		matches[i].Field = name
	}
	return Dedupe(matches)
}

// merge flattens per-field results and restores the (field, rule, offset)
// ordering contract with a stable sort, independent of completion order.
func (s *Scanner) merge(results [][]SensitiveMatch) []SensitiveMatch {
	type ordered struct {
		field int
		rule  int
		match SensitiveMatch
	}

	var all []ordered
	for fieldPos, matches := range results {
		for _, m := range matches {
			all = append(all, ordered{field: fieldPos, rule: s.registry.position(m.Type), match: m})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.field != b.field {
			return a.field < b.field
		}
		if a.rule != b.rule {
			return a.rule < b.rule
		}
		return a.match.Index < b.match.Index
	})

	out := make([]SensitiveMatch, len(all))
	for i, o := range all {
		out[i] = o.match
	}
	return out
}

// HasSensitiveData reports whether any field contains a match
func (s *Scanner) HasSensitiveData(fields ScanFields) bool {
	return len(s.Scan(fields)) > 0
}

// ScanAccomplishments scans the details, impact and metrics of every record
// and blocks if anything matched.
func (s *Scanner) ScanAccomplishments(items []Accomplishment) LLMScanResult {
	matches := []SensitiveMatch{}
	for _, item := range items {
		matches = append(matches, s.Scan(item.Fields())...)
	}
	return LLMScanResult{Blocked: len(matches) > 0, Matches: matches}
}

// ScanTexts scans each non-blank text on its own and blocks if anything
// matched.
func (s *Scanner) ScanTexts(texts ...string) LLMScanResult {
	matches := []SensitiveMatch{}
	for _, text := range texts {
		matches = append(matches, s.scanField("", text)...)
	}
	return LLMScanResult{Blocked: len(matches) > 0, Matches: matches}
}

// RedactField scans text as the named field and replaces every match
func (s *Scanner) RedactField(text, field string) (string, []SensitiveMatch) {
	matches := s.scanField(field, text)
	if matches == nil {
		matches = []SensitiveMatch{}
	}
	return Redact(text, matches), matches
}
