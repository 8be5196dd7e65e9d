package scan

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Match applies every rule of reg to text and returns accepted matches in
// rule order, then offset order. Field is left empty. Empty or
// whitespace-only text yields nil.
func Match(reg *Registry, text string) []SensitiveMatch {
	if reg == nil || strings.TrimSpace(text) == "" {
		return nil
	}

	var matches []SensitiveMatch
	for i := range reg.rules {
		matches = append(matches, matchRule(&reg.rules[i], text)...)
	}
	return matches
}

// candidate is a structural hit before context and validation
type candidate struct {
	start, end int
	pattern    int
}

// matchRule finds the non-overlapping hits of each of a rule's patterns,
// orders them by offset and filters them through the context requirement
// and validator.
func matchRule(rule *DetectionRule, text string) []SensitiveMatch {
	var candidates []candidate
	for p, re := range rule.Patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if loc[0] == loc[1] {
				continue
			}
			candidates = append(candidates, candidate{start: loc[0], end: loc[1], pattern: p})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].start != candidates[j].start {
			return candidates[i].start < candidates[j].start
		}
		return candidates[i].pattern < candidates[j].pattern
	})

	matches := make([]SensitiveMatch, 0, len(candidates))
	for _, c := range candidates {
		value := text[c.start:c.end]

		if rule.Context != nil && !hasContext(rule.Context, text, c.start, c.end) {
			continue
		}
		if rule.Validate != nil && !rule.Validate(value, text, c.start) {
			continue
		}

		matches = append(matches, SensitiveMatch{
			Type:     rule.Type,
			Category: rule.Category,
			Label:    rule.Label,
			Severity: rule.Severity,
			Value:    value,
			Index:    c.start,
		})
	}
	return matches
}

// hasContext reports whether a context keyword occurs within the rule's
// window around [start, end). Rules with a When predicate that does not
// apply to the candidate are satisfied trivially.
func hasContext(ctx *ContextRule, text string, start, end int) bool {
	if ctx.When != nil && !ctx.When(text[start:end]) {
		return true
	}
	return ctx.Keywords.MatchString(extractContext(text, start, end, ctx.Window))
}

// extractContext returns the window of text around a match. The window is
// widened to whole words so keyword boundaries are not invented at its
// edges.
func extractContext(text string, start, end, windowSize int) string {
	contextStart := start - windowSize
	if contextStart < 0 {
		contextStart = 0
	}
	contextStart = alignRuneStart(text, contextStart)
	for contextStart > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:contextStart])
		if !isWordRune(r) {
			break
		}
		contextStart -= size
	}

	contextEnd := end + windowSize
	if contextEnd > len(text) {
		contextEnd = len(text)
	}
	contextEnd = alignRuneStart(text, contextEnd)
	for contextEnd < len(text) {
		r, size := utf8.DecodeRuneInString(text[contextEnd:])
		if !isWordRune(r) {
			break
		}
		contextEnd += size
	}

	return text[contextStart:contextEnd]
}

// alignRuneStart moves i back to the start of the rune containing it
func alignRuneStart(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
