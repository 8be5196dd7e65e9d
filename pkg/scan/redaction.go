package scan

import (
	"sort"
	"strings"
)

// RedactionToken returns the placeholder that replaces a match of type t
func RedactionToken(t RuleType) string {
	return "[REDACTED-" + strings.ToUpper(string(t)) + "]"
}

// span is a region of text to replace
type span struct {
	start, end int
	typ        RuleType
}

// Redact replaces every match span in text with its typed token. Matches
// whose span is out of range or no longer holds their Value are skipped.
// Overlapping spans are merged under the token of the earlier, longer match.
func Redact(text string, matches []SensitiveMatch) string {
	spans := redactionSpans(text, matches)
	if len(spans) == 0 {
		return text
	}

	// Replace from the end so earlier offsets stay valid
	result := text
	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		result = result[:s.start] + RedactionToken(s.typ) + result[s.end:]
	}
	return result
}

// redactionSpans returns the valid, merged spans of matches in ascending
// offset order
func redactionSpans(text string, matches []SensitiveMatch) []span {
	spans := make([]span, 0, len(matches))
	for _, m := range matches {
		if m.Value == "" || m.Index < 0 || m.End() > len(text) {
			continue
		}
		if text[m.Index:m.End()] != m.Value {
			continue
		}
		spans = append(spans, span{start: m.Index, end: m.End(), typ: m.Type})
	}
	if len(spans) == 0 {
		return nil
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start < last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
