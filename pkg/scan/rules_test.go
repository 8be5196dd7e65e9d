package scan

import (
	"testing"
)

func hasMatch(matches []SensitiveMatch, typ RuleType, value string) bool {
	for _, m := range matches {
		if m.Type == typ && (value == "" || m.Value == value) {
			return true
		}
	}
	return false
}

func TestRules_KnownPositives(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		typ   RuleType
		value string
	}{
		{"SSN with dashes", "My SSN is 123-45-6789", TypeSSN, "123-45-6789"},
		{"SSN bare with context", "SSN: 123456789", TypeSSN, "123456789"},
		{"SSN bare with social security", "social security number 234567890", TypeSSN, "234567890"},
		{"phone parentheses", "Call (555) 123-4567", TypePhone, "(555) 123-4567"},
		{"phone dashes", "Call 555-123-4567", TypePhone, "555-123-4567"},
		{"phone dots", "Call 555.123.4567", TypePhone, "555.123.4567"},
		{"phone spaces", "Call 555 123 4567", TypePhone, "555 123 4567"},
		{"phone country code", "Call +1 555-123-4567", TypePhone, "+1 555-123-4567"},
		{"email", "Reach john.doe@example.com", TypeEmail, "john.doe@example.com"},
		{"email plus addressing", "Reach jane+ops@example.org", TypeEmail, "jane+ops@example.org"},
		{"email mil domain", "Reach jane.doe@us.af.mil", TypeEmail, "jane.doe@us.af.mil"},
		{"DoD ID", "DoD ID: 1234567890", TypeDoDID, "1234567890"},
		{"EDIPI", "EDIPI 1234567890 on file", TypeDoDID, "1234567890"},
		{"CAC", "CAC number 1234567890", TypeDoDID, "1234567890"},
		{"DOB", "DOB: 01/15/1985", TypeDOB, "01/15/1985"},
		{"date of birth dashes", "Date of birth 1-5-85", TypeDOB, "1-5-85"},
		{"born on", "She was born on 12/03/1990 in Ohio", TypeDOB, "12/03/1990"},
		{"address", "Lives at 123 Main Street", TypeAddress, "123 Main Street"},
		{"address directional", "Office at 1600 N Pennsylvania Ave", TypeAddress, "1600 N Pennsylvania Ave"},
		{"address ordinal", "Unit at 42 5th Ave", TypeAddress, "42 5th Ave"},
		{"address with unit", "Lives at 12 Oak St Apt 4", TypeAddress, "12 Oak St"},
		{"address abbreviated at end", "Office at 40 Ridge Dr.", TypeAddress, "40 Ridge Dr"},
		{"top secret", "This slide is TOP SECRET", TypeClassification, "TOP SECRET"},
		{"TS/SCI", "Requires TS/SCI access", TypeClassification, "TS/SCI"},
		{"TS//SCI", "Marked TS//SCI", TypeClassification, "TS//SCI"},
		{"bare secret", "The briefing was SECRET", TypeClassification, "SECRET"},
		{"capitalized secret to", "Briefed the SECRET to staff", TypeClassification, "SECRET"},
		{"confidential", "CONFIDENTIAL annex", TypeClassification, "CONFIDENTIAL"},
		{"unclassified fouo", "UNCLASSIFIED//FOUO memo", TypeClassification, "UNCLASSIFIED//FOUO"},
		{"portion S", "(S) Troop movement", TypeClassification, "(S)"},
		{"portion U//FOUO", "(U//FOUO) Schedule", TypeClassification, "(U//FOUO)"},
		{"portion S//NOFORN", "(S//NOFORN) Plans", TypeClassification, "(S//NOFORN)"},
		{"portion REL TO", "(S//REL TO USA, FVEY) Plans", TypeClassification, "(S//REL TO USA, FVEY)"},
		{"CUI", "Contains CUI", TypeCUIMarking, "CUI"},
		{"FOUO", "This FOUO document", TypeCUIMarking, "FOUO"},
		{"for official use only", "FOR OFFICIAL USE ONLY", TypeCUIMarking, "FOR OFFICIAL USE ONLY"},
		{"NOFORN", "SECRET//NOFORN", TypeCUIMarking, "NOFORN"},
		{"MGRS compact", "Grid 18SUJ2337106519", TypeGridCoord, "18SUJ2337106519"},
		{"MGRS spaced", "Grid 18S UJ 23371 06519", TypeGridCoord, "18S UJ 23371 06519"},
		{"MGRS 100m precision", "Grid 4QFJ 123 678", TypeGridCoord, "4QFJ 123 678"},
		{"lat long decimal", "Located at 38.8977, -77.0365", TypeLatLong, "38.8977, -77.0365"},
		{"lat long DMS", `Point 38°53'23"N`, TypeLatLong, `38°53'23"N`},
		{"lat long DMS spaced hemisphere", `Point 38°53'23" N`, TypeLatLong, `38°53'23" N`},
		{"lat long DMS before word", `Met at 38°53'23" North gate`, TypeLatLong, `38°53'23"`},
		{"private IP", "Server at 192.168.1.100", TypeIPAddress, "192.168.1.100"},
		{"MAC colon", "NIC 00:1A:2B:3C:4D:5E", TypeMACAddress, "00:1A:2B:3C:4D:5E"},
		{"MAC dash", "NIC 00-1A-2B-3C-4D-5E", TypeMACAddress, "00-1A-2B-3C-4D-5E"},
		{"mil URL", "See https://www.af.mil/News.", TypeMilURL, "https://www.af.mil/News"},
		{"mil host", "Posted on intelshare.army.mil today", TypeMilURL, "intelshare.army.mil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := ScanText(tt.text)
			if !hasMatch(matches, tt.typ, tt.value) {
				t.Errorf("ScanText(%q) = %+v, want %s %q", tt.text, matches, tt.typ, tt.value)
			}
		})
	}
}

func TestRules_KnownNegatives(t *testing.T) {
	tests := []struct {
		name string
		text string
		typ  RuleType
	}{
		{"bare 9 digits without context", "The project code is 123456789", TypeSSN},
		{"SSN area 000", "SSN: 000-12-3456", TypeSSN},
		{"SSN area 666", "SSN: 666-12-3456", TypeSSN},
		{"SSN area 900", "SSN: 900-12-3456", TypeSSN},
		{"SSN group 00", "SSN: 123-00-4567", TypeSSN},
		{"SSN serial 0000", "SSN: 123-45-0000", TypeSSN},
		{"phone raw 10 digits", "Reference 5551234567", TypePhone},
		{"DoD ID without context", "Budget of 1234567890 dollars", TypeDoDID},
		{"date without context", "Completed on 01/15/2024", TypeDOB},
		{"number word pair", "Led 12 Airmen in training", TypeAddress},
		{"doctor title", "Briefed 3 Senior Leaders Dr Smith approved", TypeAddress},
		{"saint title", "Trained 12 Security Forces St Louis bound", TypeAddress},
		{"secretary", "Served as secretary", TypeClassification},
		{"secretariat", "Joined the secretariat", TypeClassification},
		{"secretly", "Secretly planned a party", TypeClassification},
		{"secretive", "A secretive unit", TypeClassification},
		{"open secret", "It was an open secret", TypeClassification},
		{"trade secret", "Trade secret training", TypeClassification},
		{"no secret", "It was no secret", TypeClassification},
		{"keep it secret", "Keep the surprise secret", TypeClassification},
		{"the secret to", "The secret to our success was teamwork", TypeClassification},
		{"lowercase confidential", "Kept confidential per policy", TypeClassification},
		{"lowercase cui", "la casa in cui vivo", TypeCUIMarking},
		{"short grid-like code", "Model 2A BC 12", TypeGridCoord},
		{"uneven grid precision", "Grid 18SUJ123", TypeGridCoord},
		{"money and fiscal year", "Saved $50K FY 2023 budget", TypeGridCoord},
		{"grid zone out of range", "Grid 61QFJ 123 678", TypeGridCoord},
		{"grid below 100m precision", "Grid 18SUJ 23 48", TypeGridCoord},
		{"test scores", "Scored 95.5, 88.25 on exams", TypeLatLong},
		{"low precision pair", "Ratios 1.25, 2.50", TypeLatLong},
		{"loopback", "Testing on 127.0.0.1", TypeIPAddress},
		{"unspecified", "Bound to 0.0.0.0", TypeIPAddress},
		{"broadcast", "Sent to 255.255.255.255", TypeIPAddress},
		{"google dns", "Resolver 8.8.8.8", TypeIPAddress},
		{"cloudflare dns", "Resolver 1.1.1.1", TypeIPAddress},
		{"color code", "Brand color #FF5733", TypeMACAddress},
		{"short hex", "Build a1:b2:c3", TypeMACAddress},
		{"mil email", "Reach jane.doe@us.af.mil", TypeMilURL},
		{"mil url host only once", "https://www.af.mil", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := ScanText(tt.text)
			if tt.typ == "" {
				if len(matches) != 1 {
					t.Errorf("ScanText(%q) = %+v, want exactly one match", tt.text, matches)
				}
				return
			}
			if hasMatch(matches, tt.typ, "") {
				t.Errorf("ScanText(%q) unexpectedly matched %s: %+v", tt.text, tt.typ, matches)
			}
		})
	}
}

func TestRules_FalsePositiveCorpus(t *testing.T) {
	corpus := []string{
		"Led 12 Airmen in rapid deployment exercise, reducing response time by 30%",
		"Served as secretary for the First Sergeants Council",
		"It was no secret the flight excelled in readiness",
		"Executed trade secret protection training for 40 contractors",
		"Managed $1,250,000 budget across 3 squadrons with zero discrepancies",
		"Completed 45 hours of PME and earned 98.5% on the final exam",
		"Coordinated 250 sorties during exercise RED FLAG 24-1",
		"Mentored 8 junior NCOs; 6 selected for promotion",
		"Saved $50K FY 2023 budget through contract renegotiation",
		"Managed 20K FY 2024 funds for the wing",
		"Briefed 3 Senior Leaders Dr Smith approved the plan",
		"The secret to our success was teamwork",
	}

	for _, text := range corpus {
		if matches := ScanText(text); len(matches) != 0 {
			t.Errorf("ScanText(%q) = %+v, want no matches", text, matches)
		}
	}
}

func TestRules_SpecPairs(t *testing.T) {
	matches := ScanText("(S//NF) This FOUO document...")
	if !hasMatch(matches, TypeClassification, "(S//NF)") {
		t.Errorf("Expected classification match, got %+v", matches)
	}
	if !hasMatch(matches, TypeCUIMarking, "FOUO") {
		t.Errorf("Expected cui_marking match, got %+v", matches)
	}

	matches = ScanText("This document is TOP SECRET")
	count := 0
	for _, m := range matches {
		if m.Type == TypeClassification {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected TOP SECRET to be reported once, got %d: %+v", count, matches)
	}
}

func TestExtractContext(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		start, end int
		window     int
		want       string
	}{
		{"whole text within window", "SSN 123456789", 4, 13, 30, "SSN 123456789"},
		{"widened to word start", "socialsecurity 123456789", 15, 24, 5, "socialsecurity 123456789"},
		{"clipped at word boundary", "aaa bbb 123 ccc ddd", 8, 11, 2, "bbb 123 ccc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractContext(tt.text, tt.start, tt.end, tt.window)
			if got != tt.want {
				t.Errorf("extractContext() = %q, want %q", got, tt.want)
			}
		})
	}
}
