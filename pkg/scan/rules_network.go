package scan

import (
	"regexp"
	"strings"
)

var (
	ipv4Pattern = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\.){3}(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\b`)

	macColonPattern = regexp.MustCompile(`\b[0-9A-Fa-f]{2}(?::[0-9A-Fa-f]{2}){5}\b`)
	macDashPattern  = regexp.MustCompile(`\b[0-9A-Fa-f]{2}(?:-[0-9A-Fa-f]{2}){5}\b`)

	milURLPattern  = regexp.MustCompile(`(?i)\bhttps?://(?:[a-z0-9-]+\.)+mil\b(?:[/?#:](?:[^\s<>"')\]]*[^\s<>"')\].,;:!?])?)?`)
	milHostPattern = regexp.MustCompile(`(?i)\b(?:[a-z0-9-]+\.)+mil\b(?:/(?:[^\s<>"')\]]*[^\s<>"')\].,;:!?])?)?`)
)

// Addresses that appear in ordinary technical prose. Private ranges are
// still reported.
var benignIPv4 = map[string]bool{
	"127.0.0.1":       true,
	"0.0.0.0":         true,
	"255.255.255.255": true,
	"8.8.8.8":         true,
	"1.1.1.1":         true,
}

func ipAddressRule() DetectionRule {
	return DetectionRule{
		Type:     TypeIPAddress,
		Category: CategoryPII,
		Label:    "IP Address",
		Severity: SeverityLow,
		Patterns: []*regexp.Regexp{ipv4Pattern},
		Validate: func(value, _ string, _ int) bool {
			return !benignIPv4[value]
		},
	}
}

func macAddressRule() DetectionRule {
	return DetectionRule{
		Type:     TypeMACAddress,
		Category: CategoryPII,
		Label:    "MAC Address",
		Severity: SeverityLow,
		Patterns: []*regexp.Regexp{macColonPattern, macDashPattern},
	}
}

func milURLRule() DetectionRule {
	return DetectionRule{
		Type:     TypeMilURL,
		Category: CategoryPII,
		Label:    "Military URL",
		Severity: SeverityLow,
		Patterns: []*regexp.Regexp{milURLPattern, milHostPattern},
		Validate: validMilURL,
	}
}

// validMilURL yields to email: a candidate inside an email address is the
// email's. A bare host inside a scheme URL is reported by the URL pattern.
func validMilURL(value, text string, index int) bool {
	if withinEmail(text, index, index+len(value)) {
		return false
	}
	if !strings.Contains(value, "://") && strings.HasSuffix(text[:index], "//") {
		return false
	}
	return true
}

// withinEmail reports whether [start, end) overlaps an email address in text
func withinEmail(text string, start, end int) bool {
	if !strings.Contains(text, "@") {
		return false
	}
	for _, loc := range emailPattern.FindAllStringIndex(text, -1) {
		if start < loc[1] && loc[0] < end {
			return true
		}
	}
	return false
}
