package scan

// dedupeKey identifies one physical match
type dedupeKey struct {
	typ   RuleType
	index int
	field string
}

// Dedupe drops matches that repeat the (type, index, field) of an earlier
// match. Repeated occurrences of the same value at different offsets are
// kept. The input is not modified.
func Dedupe(matches []SensitiveMatch) []SensitiveMatch {
	if len(matches) == 0 {
		return matches
	}

	seen := make(map[dedupeKey]struct{}, len(matches))
	out := make([]SensitiveMatch, 0, len(matches))
	for _, m := range matches {
		key := dedupeKey{typ: m.Type, index: m.Index, field: m.Field}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}
