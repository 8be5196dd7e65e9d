package scan

import (
	"fmt"
	"reflect"
	"regexp"
	"testing"
)

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner == nil {
		t.Fatal("NewScanner returned nil")
	}
	if scanner.Registry() != DefaultRegistry() {
		t.Error("Expected default registry")
	}
}

func TestScan_FieldTagging(t *testing.T) {
	fields := ScanFields{
		{Name: "details", Text: "Led a team of 5"},
		{Name: "impact", Text: "Call me at (555) 123-4567"},
		{Name: "metrics", Text: "Host 10.0.0.5 patched"},
	}

	matches := Scan(fields)
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d: %+v", len(matches), matches)
	}

	if matches[0].Type != TypePhone || matches[0].Field != "impact" {
		t.Errorf("matches[0] = %s in %q, want phone in impact", matches[0].Type, matches[0].Field)
	}
	if matches[0].Value != "(555) 123-4567" {
		t.Errorf("matches[0].Value = %q, want %q", matches[0].Value, "(555) 123-4567")
	}
	if matches[1].Type != TypeIPAddress || matches[1].Field != "metrics" {
		t.Errorf("matches[1] = %s in %q, want ip_address in metrics", matches[1].Type, matches[1].Field)
	}
}

func TestScan_EmptyInput(t *testing.T) {
	tests := []struct {
		name   string
		fields ScanFields
	}{
		{name: "nil fields", fields: nil},
		{name: "empty text", fields: ScanFields{{Name: "details", Text: ""}}},
		{name: "whitespace only", fields: ScanFields{{Name: "details", Text: "   \n\t"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := Scan(tt.fields)
			if len(matches) != 0 {
				t.Errorf("Expected no matches, got %+v", matches)
			}
		})
	}

	if got := ScanText(""); got == nil || len(got) != 0 {
		t.Errorf("ScanText(\"\") = %#v, want empty non-nil slice", got)
	}
}

func TestScan_ContextDoesNotCrossFields(t *testing.T) {
	fields := ScanFields{
		{Name: "details", Text: "SSN"},
		{Name: "impact", Text: "123456789"},
	}
	if matches := Scan(fields); len(matches) != 0 {
		t.Errorf("Expected context keyword in another field to be ignored, got %+v", matches)
	}
}

func TestScan_OrderFieldThenRuleThenOffset(t *testing.T) {
	fields := ScanFields{
		{Name: "b", Text: "Host 192.168.1.10, call 555-123-4567 or 555-987-6543"},
		{Name: "a", Text: "SSN 234-56-7890"},
	}

	matches := Scan(fields)
	want := []struct {
		field string
		typ   RuleType
		value string
	}{
		{"b", TypePhone, "555-123-4567"},
		{"b", TypePhone, "555-987-6543"},
		{"b", TypeIPAddress, "192.168.1.10"},
		{"a", TypeSSN, "234-56-7890"},
	}

	if len(matches) != len(want) {
		t.Fatalf("Expected %d matches, got %d: %+v", len(want), len(matches), matches)
	}
	for i, w := range want {
		m := matches[i]
		if m.Field != w.field || m.Type != w.typ || m.Value != w.value {
			t.Errorf("matches[%d] = {%s %s %q}, want {%s %s %q}", i, m.Field, m.Type, m.Value, w.field, w.typ, w.value)
		}
	}
}

func TestScan_Determinism(t *testing.T) {
	text := "SSN 123-45-6789, email jane.doe@us.af.mil, (S//NF) FOUO, grid 18SUJ2337106519, " +
		"see https://www.af.mil/News. Server 192.168.1.100 MAC 00:1A:2B:3C:4D:5E"

	first := ScanText(text)
	if len(first) == 0 {
		t.Fatal("Expected matches")
	}
	for i := 0; i < 20; i++ {
		if got := ScanText(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("Run %d differs:\n got  %+v\n want %+v", i, got, first)
		}
	}
}

func TestScan_ConcurrencyPreservesOrder(t *testing.T) {
	var fields ScanFields
	for i := 0; i < 40; i++ {
		fields = append(fields, Field{
			Name: fmt.Sprintf("field_%02d", i),
			Text: fmt.Sprintf("SSN 234-56-%04d call 555-123-%04d host 10.0.%d.5", 1000+i, 2000+i, i),
		})
	}

	sequential := NewScanner().Scan(fields)
	parallel := NewScanner(WithConcurrency(8)).Scan(fields)

	if len(sequential) != 120 {
		t.Fatalf("Expected 120 matches, got %d", len(sequential))
	}
	if !reflect.DeepEqual(parallel, sequential) {
		t.Error("Parallel scan output differs from sequential scan output")
	}
}

func TestScan_DuplicateOffsetCollapse(t *testing.T) {
	reg := MustNewRegistry(DetectionRule{
		Type:     "token",
		Category: CategoryPII,
		Label:    "Token",
		Severity: SeverityLow,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bTK-\d{4}\b`),
			regexp.MustCompile(`\bTK-\d{4}-\d{2}\b`),
		},
	})
	scanner := NewScanner(WithRegistry(reg))

	matches := scanner.ScanText("ref TK-1234-56")
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d: %+v", len(matches), matches)
	}
	if matches[0].Value != "TK-1234" || matches[0].Index != 4 {
		t.Errorf("Got %q at %d, want %q at 4", matches[0].Value, matches[0].Index, "TK-1234")
	}
}

func TestScan_RepeatedValueKept(t *testing.T) {
	matches := ScanText("123-45-6789 and again 123-45-6789")

	var indexes []int
	for _, m := range matches {
		if m.Type == TypeSSN {
			indexes = append(indexes, m.Index)
		}
	}
	if !reflect.DeepEqual(indexes, []int{0, 22}) {
		t.Errorf("SSN indexes = %v, want [0 22]", indexes)
	}
}

func TestDedupe(t *testing.T) {
	in := []SensitiveMatch{
		{Type: TypeSSN, Index: 4, Value: "a"},
		{Type: TypeSSN, Index: 4, Value: "b"},
		{Type: TypeSSN, Index: 4, Value: "c", Field: "impact"},
		{Type: TypePhone, Index: 4, Value: "d"},
		{Type: TypeSSN, Index: 9, Value: "e"},
	}

	got := Dedupe(in)
	var values []string
	for _, m := range got {
		values = append(values, m.Value)
	}
	if !reflect.DeepEqual(values, []string{"a", "c", "d", "e"}) {
		t.Errorf("Dedupe values = %v, want [a c d e]", values)
	}
	if len(in) != 5 {
		t.Error("Dedupe modified its input")
	}
}

func TestHasSensitiveData(t *testing.T) {
	if HasSensitiveData(ScanFields{{Name: "details", Text: "Led 12 Airmen"}}) {
		t.Error("Expected clean fields to pass")
	}
	if !HasSensitiveData(ScanFields{{Name: "details", Text: "Email me at a.b@mail.mil"}}) {
		t.Error("Expected email to be detected")
	}
}

func TestScanStatementText(t *testing.T) {
	matches := ScanStatementText("My SSN is 123-45-6789")
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
	if matches[0].Field != "" {
		t.Errorf("Field = %q, want empty", matches[0].Field)
	}
	if matches[0].Index != 10 {
		t.Errorf("Index = %d, want 10", matches[0].Index)
	}
}

func TestScanAccomplishmentsForLLM(t *testing.T) {
	t.Run("blocked batch", func(t *testing.T) {
		result := ScanAccomplishmentsForLLM([]Accomplishment{
			{Details: "Led team"},
			{Details: "SSN 234-56-7890"},
		})
		if !result.Blocked {
			t.Error("Expected batch to be blocked")
		}
		if len(result.Matches) == 0 {
			t.Fatal("Expected at least one match")
		}
		if result.Matches[0].Field != FieldDetails {
			t.Errorf("Field = %q, want %q", result.Matches[0].Field, FieldDetails)
		}
	})

	t.Run("clean batch", func(t *testing.T) {
		result := ScanAccomplishmentsForLLM([]Accomplishment{
			{Details: "Led team", Impact: "Improved readiness", Metrics: "30% faster"},
			{},
		})
		if result.Blocked {
			t.Error("Expected clean batch to pass")
		}
		if result.Matches == nil || len(result.Matches) != 0 {
			t.Errorf("Matches = %#v, want empty non-nil slice", result.Matches)
		}
	})
}

func TestScanTextForLLM(t *testing.T) {
	result := ScanTextForLLM("", "Briefed the commander", "", "Marked (TS//SCI) slides")
	if !result.Blocked {
		t.Fatal("Expected texts to be blocked")
	}
	if labels := result.Labels(); !reflect.DeepEqual(labels, []string{"Classification Marking"}) {
		t.Errorf("Labels = %v, want [Classification Marking]", labels)
	}

	if ScanTextForLLM().Blocked {
		t.Error("Expected no texts to pass")
	}
}

func TestFieldsFromMap(t *testing.T) {
	fields := FieldsFromMap(map[string]string{"metrics": "m", "details": "d", "impact": "i"})
	var names []string
	for _, f := range fields {
		names = append(names, f.Name)
	}
	if !reflect.DeepEqual(names, []string{"details", "impact", "metrics"}) {
		t.Errorf("names = %v, want [details impact metrics]", names)
	}
}

func TestMetadata(t *testing.T) {
	meta := Metadata([]SensitiveMatch{{
		Type: TypeSSN, Category: CategoryPII, Label: "Social Security Number",
		Severity: SeverityHigh, Value: "123-45-6789", Index: 3, Field: "details",
	}})

	want := MatchMetadata{
		Type: TypeSSN, Category: CategoryPII, Label: "Social Security Number",
		Severity: SeverityHigh, Field: "details",
	}
	if len(meta) != 1 || meta[0] != want {
		t.Errorf("Metadata = %+v, want [%+v]", meta, want)
	}
}
