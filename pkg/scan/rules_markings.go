package scan

import (
	"regexp"
	"strings"
)

var (
	topSecretPattern    = regexp.MustCompile(`(?i)\bTOP\s+SECRET\b`)
	tsSCIPattern        = regexp.MustCompile(`\bTS//?SCI\b`)
	secretPattern       = regexp.MustCompile(`(?i)\bSECRET\b`)
	confidentialPattern = regexp.MustCompile(`\bCONFIDENTIAL\b`)
	unclassFOUOPattern  = regexp.MustCompile(`\bUNCLASSIFIED//FOUO\b`)

	// (S), (TS), (C), (U), (U//FOUO), (S//NF), (S//REL TO USA, FVEY)
	portionPattern = regexp.MustCompile(`\((?:TS|S|C|U)(?://[A-Z][A-Z ,/]*)?\)`)

	// Markings are written in capitals; lowercase "cui" is ordinary text in
	// other languages, so this pattern is case-sensitive.
	cuiPattern = regexp.MustCompile(`\b(?:FOR OFFICIAL USE ONLY|REL TO|CUI|FOUO|NOFORN|ORCON|PROPIN|LIMDIS|SBU|LES)\b`)

	// Text immediately before a bare "secret" that makes it prose, or part
	// of a longer marking already reported on its own.
	secretIdiomPrefix = regexp.MustCompile(`(?i)(?:\b(?:open|trade|no|top)\s+|\b(?:keep|keeps|keeping|kept)\b(?:\s+\S+){0,3}\s+)$`)

	// "the secret to success"; only applied to a lowercase or title-case word
	secretArticlePrefix = regexp.MustCompile(`(?i)\bthe\s+$`)
	secretToSuffix      = regexp.MustCompile(`^\s+to\b`)
)

const secretPrefixWindow = 48

func classificationRule() DetectionRule {
	return DetectionRule{
		Type:     TypeClassification,
		Category: CategoryClassification,
		Label:    "Classification Marking",
		Severity: SeverityHigh,
		Patterns: []*regexp.Regexp{
			topSecretPattern,
			tsSCIPattern,
			secretPattern,
			confidentialPattern,
			unclassFOUOPattern,
			portionPattern,
		},
		Validate: validClassification,
	}
}

func cuiMarkingRule() DetectionRule {
	return DetectionRule{
		Type:     TypeCUIMarking,
		Category: CategoryCUI,
		Label:    "CUI Marking",
		Severity: SeverityHigh,
		Patterns: []*regexp.Regexp{cuiPattern},
	}
}

// validClassification only constrains the bare word SECRET. Word
// boundaries already exclude secretary, secretariat, secretly and
// secretive; the prefix check excludes idioms such as "trade secret" and
// "keep it secret". "the secret to" is prose unless written in capitals.
func validClassification(value, text string, index int) bool {
	if !strings.EqualFold(value, "secret") {
		return true
	}

	start := index - secretPrefixWindow
	if start < 0 {
		start = 0
	}
	start = alignRuneStart(text, start)

	prefix := text[start:index]
	if secretIdiomPrefix.MatchString(prefix) {
		return false
	}

	if value != strings.ToUpper(value) &&
		secretArticlePrefix.MatchString(prefix) &&
		secretToSuffix.MatchString(text[index+len(value):]) {
		return false
	}
	return true
}
