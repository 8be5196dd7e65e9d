package scan

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	ssnDashedPattern = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	ssnBarePattern   = regexp.MustCompile(`\b\d{9}\b`)
	ssnContext       = regexp.MustCompile(`(?i)\bssn\b|\bss#|\bsocial\s+security\b`)

	// (xxx) xxx-xxxx, xxx-xxx-xxxx, xxx.xxx.xxxx, xxx xxx xxxx, with an
	// optional +1 prefix. A separator is always required.
	phonePattern = regexp.MustCompile(`(?:\+1[-. ]?)?(?:\(\d{3}\) ?|\b\d{3}[-. ])\d{3}[-. ]\d{4}\b`)

	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	dodIDPattern = regexp.MustCompile(`\b\d{10}\b`)
	dodIDContext = regexp.MustCompile(`(?i)\bdod\s*id\b|\bedipi\b|\bcac\b`)

	dobPattern = regexp.MustCompile(`\b(?:0?[1-9]|1[0-2])[/-](?:0?[1-9]|[12]\d|3[01])[/-](?:\d{4}|\d{2})\b`)
	dobContext = regexp.MustCompile(`(?i)\bdob\b|\bdate\s+of\s+birth\b|\bborn\s+on\b|\bbirth\s*day\b|\bbirth\s*date\b`)

	addressPattern = regexp.MustCompile(
		`\b\d{1,6}\s+` +
			`(?:(?:N|S|E|W|NE|NW|SE|SW|North|South|East|West)\.?\s+)?` +
			`(?:(?:[A-Z][A-Za-z'-]*|\d+(?:st|nd|rd|th))\s+){1,3}` +
			`(?:Street|St|Avenue|Ave|Boulevard|Blvd|Drive|Dr|Road|Rd|Lane|Ln|Court|Ct|Way|Place|Pl|Circle|Cir|Parkway|Pkwy|Highway|Hwy|Terrace|Ter)\b`)

	// "Dr Smith", "St Louis": St and Dr read as a title when a capitalized
	// word other than a unit designator follows.
	addressTitleSuffix = regexp.MustCompile(`\b(?:St|Dr)$`)
	addressTitleNext   = regexp.MustCompile(`^\.?\s+([A-Z][A-Za-z'-]*)`)
	addressUnitWords   = map[string]bool{
		"Apt": true, "Suite": true, "Ste": true, "Unit": true, "Bldg": true,
		"Building": true, "Room": true, "Rm": true, "Fl": true, "Floor": true,
	}
)

const (
	ssnContextWindow   = 30
	dodIDContextWindow = 40
	dobContextWindow   = 40
)

func ssnRule() DetectionRule {
	return DetectionRule{
		Type:     TypeSSN,
		Category: CategoryPII,
		Label:    "Social Security Number",
		Severity: SeverityHigh,
		Patterns: []*regexp.Regexp{ssnDashedPattern, ssnBarePattern},
		Validate: validSSN,
		Context: &ContextRule{
			Keywords: ssnContext,
			Window:   ssnContextWindow,
			// Only the undashed layout is ambiguous
			When: func(value string) bool { return !strings.Contains(value, "-") },
		},
	}
}

func phoneRule() DetectionRule {
	return DetectionRule{
		Type:     TypePhone,
		Category: CategoryPII,
		Label:    "Phone Number",
		Severity: SeverityMedium,
		Patterns: []*regexp.Regexp{phonePattern},
	}
}

func emailRule() DetectionRule {
	return DetectionRule{
		Type:     TypeEmail,
		Category: CategoryPII,
		Label:    "Email Address",
		Severity: SeverityMedium,
		Patterns: []*regexp.Regexp{emailPattern},
	}
}

func dodIDRule() DetectionRule {
	return DetectionRule{
		Type:     TypeDoDID,
		Category: CategoryPII,
		Label:    "DoD ID Number",
		Severity: SeverityHigh,
		Patterns: []*regexp.Regexp{dodIDPattern},
		Context: &ContextRule{
			Keywords: dodIDContext,
			Window:   dodIDContextWindow,
		},
	}
}

func dobRule() DetectionRule {
	return DetectionRule{
		Type:     TypeDOB,
		Category: CategoryPII,
		Label:    "Date of Birth",
		Severity: SeverityMedium,
		Patterns: []*regexp.Regexp{dobPattern},
		Context: &ContextRule{
			Keywords: dobContext,
			Window:   dobContextWindow,
		},
	}
}

func addressRule() DetectionRule {
	return DetectionRule{
		Type:     TypeAddress,
		Category: CategoryPII,
		Label:    "Street Address",
		Severity: SeverityMedium,
		Patterns: []*regexp.Regexp{addressPattern},
		Validate: validAddress,
	}
}

func validAddress(value, text string, index int) bool {
	if !addressTitleSuffix.MatchString(value) {
		return true
	}
	next := addressTitleNext.FindStringSubmatch(text[index+len(value):])
	return next == nil || addressUnitWords[next[1]]
}

// validSSN applies SSA allocation rules: area 000, 666 and 900-999, group
// 00 and serial 0000 are never issued.
func validSSN(value, _ string, _ int) bool {
	clean := strings.ReplaceAll(value, "-", "")
	if len(clean) != 9 {
		return false
	}
	for _, c := range clean {
		if c < '0' || c > '9' {
			return false
		}
	}

	area, _ := strconv.Atoi(clean[0:3])
	if area == 0 || area == 666 || area >= 900 {
		return false
	}

	group, _ := strconv.Atoi(clean[3:5])
	if group == 0 {
		return false
	}

	serial, _ := strconv.Atoi(clean[5:9])
	return serial != 0
}
