package scan

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
)

// ValidatorFunc rejects structurally invalid or implausible candidates.
// value is the matched substring, text the whole field and index the byte
// offset of value within text.
type ValidatorFunc func(value, text string, index int) bool

// ContextRule requires a keyword near a candidate before it is accepted
type ContextRule struct {
	// Keywords is matched case-insensitively against the window
	Keywords *regexp.Regexp

	// Window is the number of bytes inspected on each side of the match
	Window int

	// When limits the requirement to some candidate shapes; nil means always
	When func(value string) bool
}

// DetectionRule is one entry of the pattern registry
type DetectionRule struct {
	Type     RuleType
	Category Category
	Label    string
	Severity Severity

	// Patterns are alternative structural layouts of the same datum
	Patterns []*regexp.Regexp

	Validate ValidatorFunc
	Context  *ContextRule
}

// Registry is an immutable, ordered catalogue of detection rules. It is
// safe for concurrent use.
type Registry struct {
	rules      []DetectionRule
	byType     map[RuleType]int
	byCategory map[Category][]int
}

// ErrDuplicateRule is returned when two rules share a type
var ErrDuplicateRule = errors.New("duplicate rule type")

// NewRegistry validates and indexes rules. Rule order is preserved and is
// the order matches are reported in.
func NewRegistry(rules ...DetectionRule) (*Registry, error) {
	r := &Registry{
		rules:      make([]DetectionRule, 0, len(rules)),
		byType:     make(map[RuleType]int, len(rules)),
		byCategory: make(map[Category][]int),
	}

	for _, rule := range rules {
		if rule.Type == "" {
			return nil, errors.New("rule type is required")
		}
		if _, ok := r.byType[rule.Type]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRule, rule.Type)
		}
		if !rule.Category.Valid() {
			return nil, fmt.Errorf("rule %s: unknown category %q", rule.Type, rule.Category)
		}
		if len(rule.Patterns) == 0 {
			return nil, fmt.Errorf("rule %s: at least one pattern is required", rule.Type)
		}
		for i, p := range rule.Patterns {
			if p == nil {
				return nil, fmt.Errorf("rule %s: pattern %d is nil", rule.Type, i)
			}
		}
		if rule.Context != nil && rule.Context.Keywords == nil {
			return nil, fmt.Errorf("rule %s: context rule has no keywords", rule.Type)
		}

		// Copy the pattern slice so callers cannot mutate a registered rule
		rule.Patterns = append([]*regexp.Regexp(nil), rule.Patterns...)

		idx := len(r.rules)
		r.rules = append(r.rules, rule)
		r.byType[rule.Type] = idx
		r.byCategory[rule.Category] = append(r.byCategory[rule.Category], idx)
	}

	return r, nil
}

// MustNewRegistry is NewRegistry that panics on error
func MustNewRegistry(rules ...DetectionRule) *Registry {
	r, err := NewRegistry(rules...)
	if err != nil {
		panic(err)
	}
	return r
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns the built-in registry, compiled once per process
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = MustNewRegistry(DefaultRules()...)
	})
	return defaultRegistry
}

// Len returns the number of rules
func (r *Registry) Len() int {
	return len(r.rules)
}

// Rules returns a copy of all rules in registry order
func (r *Registry) Rules() []DetectionRule {
	out := make([]DetectionRule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Get returns the rule with the given type
func (r *Registry) Get(t RuleType) (DetectionRule, bool) {
	idx, ok := r.byType[t]
	if !ok {
		return DetectionRule{}, false
	}
	return r.rules[idx], true
}

// ByCategory returns all rules of a category in registry order
func (r *Registry) ByCategory(c Category) []DetectionRule {
	idxs := r.byCategory[c]
	out := make([]DetectionRule, len(idxs))
	for i, idx := range idxs {
		out[i] = r.rules[idx]
	}
	return out
}

// Types returns all rule types in registry order
func (r *Registry) Types() []RuleType {
	out := make([]RuleType, len(r.rules))
	for i, rule := range r.rules {
		out[i] = rule.Type
	}
	return out
}

// position returns the registry order of a rule type, or -1
func (r *Registry) position(t RuleType) int {
	idx, ok := r.byType[t]
	if !ok {
		return -1
	}
	return idx
}
