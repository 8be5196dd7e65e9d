package scan

import (
	"sort"
	"strings"
)

const (
	summaryHeader = "Sensitive data detected. The following items must be removed before this content can be saved or sent:"

	// ComplianceNotice closes every non-empty summary
	ComplianceNotice = "This system is an unclassified channel. Do not enter or transmit PII, classified information, " +
		"or Controlled Unclassified Information (CUI). Remove the items above and try again."
)

// Summarize renders matches for an end user: categories in first-seen
// order, each listing its distinct labels by severity (high first), then the
// compliance notice. Match values never appear in the output. No matches
// yields "".
func Summarize(matches []SensitiveMatch) string {
	if len(matches) == 0 {
		return ""
	}

	type labelEntry struct {
		label    string
		severity Severity
	}

	var categories []Category
	labels := make(map[Category][]labelEntry)
	seenLabel := make(map[Category]map[string]bool)

	for _, m := range matches {
		if _, ok := seenLabel[m.Category]; !ok {
			categories = append(categories, m.Category)
			seenLabel[m.Category] = make(map[string]bool)
		}
		if seenLabel[m.Category][m.Label] {
			continue
		}
		seenLabel[m.Category][m.Label] = true
		labels[m.Category] = append(labels[m.Category], labelEntry{label: m.Label, severity: m.Severity})
	}

	var b strings.Builder
	b.WriteString(summaryHeader)
	b.WriteString("\n")

	for _, cat := range categories {
		entries := labels[cat]
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].severity.Value() > entries[j].severity.Value()
		})

		b.WriteString("\n")
		b.WriteString(string(cat))
		b.WriteString(":\n")
		for _, e := range entries {
			b.WriteString("  - ")
			b.WriteString(e.label)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(ComplianceNotice)
	return b.String()
}
