package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestScanCommand(t *testing.T) {
	tests := []struct {
		name     string
		stdin    string
		args     []string
		wantCode int
		wantOut  []string
	}{
		{
			name:     "clean stdin",
			stdin:    "Mentored two junior analysts",
			args:     []string{"scan"},
			wantCode: ExitSuccess,
			wantOut:  []string{"No sensitive data detected."},
		},
		{
			name:     "positional text with ssn",
			args:     []string{"scan", "SSN", "123-45-6789"},
			wantCode: ExitFindings,
			wantOut:  []string{"ssn", "Social Security Number", "Remove the items above"},
		},
		{
			name:     "named fields",
			args:     []string{"scan", "--field", "details=clean text", "--field", "impact=CONFIDENTIAL brief"},
			wantCode: ExitFindings,
			wantOut:  []string{"impact@0", "classification"},
		},
		{
			name:     "bad field flag",
			args:     []string{"scan", "--field", "nodelimiter"},
			wantCode: ExitUsageError,
		},
		{
			name:     "field and positional",
			args:     []string{"scan", "--field", "a=b", "extra"},
			wantCode: ExitUsageError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(t, tt.stdin, tt.args...)
			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (stdout %q, stderr %q)", code, tt.wantCode, out, errOut)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out, want) {
					t.Errorf("stdout missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestScanCommand_JSON(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantDetails bool
	}{
		{"metadata only", []string{"scan", "--json"}, false},
		{"with values", []string{"scan", "--json", "--show-values"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, _ := runCLI(t, "contact admin@example.com", tt.args...)
			if code != ExitFindings {
				t.Fatalf("exit code = %d, want %d", code, ExitFindings)
			}

			var got scanOutput
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("decode: %v\n%s", err, out)
			}
			if !got.HasSensitiveData || len(got.Matches) != 1 || got.Matches[0].Type != "email" {
				t.Fatalf("output = %+v", got)
			}

			if !tt.wantDetails {
				if got.Details != nil || strings.Contains(out, "admin@example.com") {
					t.Errorf("value leaked into output:\n%s", out)
				}
				return
			}
			if len(got.Details) != 1 || got.Details[0].Value != "admin@example.com" || got.Details[0].Index != 8 {
				t.Errorf("details = %+v", got.Details)
			}
		})
	}
}

func TestRedactCommand(t *testing.T) {
	code, out, _ := runCLI(t, "", "redact", "call 555-867-5309 now")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if strings.TrimSpace(out) != "call [REDACTED-PHONE] now" {
		t.Errorf("stdout = %q", out)
	}

	code, out, _ = runCLI(t, "MAC 00:1A:2B:3C:4D:5E", "redact", "--json", "--field", "metrics")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want 0", code)
	}
	var got redactOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Redacted != "MAC [REDACTED-MAC_ADDRESS]" || len(got.Matches) != 1 || got.Matches[0].Field != "metrics" {
		t.Errorf("output = %+v", got)
	}
}

func TestSummarizeCommand(t *testing.T) {
	code, out, _ := runCLI(t, "", "summarize", "clean text")
	if code != ExitSuccess || out != "" {
		t.Errorf("clean: code %d, stdout %q", code, out)
	}

	code, out, _ = runCLI(t, "", "summarize", "NOFORN")
	if code != ExitFindings {
		t.Fatalf("exit code = %d, want %d", code, ExitFindings)
	}
	if !strings.Contains(out, "CUI:\n  - CUI Marking") {
		t.Errorf("stdout = %q", out)
	}
}

func TestCheckLLMCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	records := `[{"details":"Ran the audit"},{"impact":"Deployed to https://portal.army.mil/login"}]`
	if err := os.WriteFile(path, []byte(records), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("blocked records", func(t *testing.T) {
		code, out, _ := runCLI(t, "", "check-llm", "--accomplishments", path)
		if code != ExitFindings {
			t.Fatalf("exit code = %d, want %d", code, ExitFindings)
		}
		if !strings.Contains(out, "Military URL") || strings.Contains(out, "portal.army.mil") {
			t.Errorf("stdout = %q", out)
		}
	})

	t.Run("stdin records", func(t *testing.T) {
		code, _, _ := runCLI(t, `[{"details":"fine"}]`, "check-llm", "--accomplishments", "-")
		if code != ExitSuccess {
			t.Errorf("exit code = %d, want 0", code)
		}
	})

	t.Run("clean text", func(t *testing.T) {
		code, out, _ := runCLI(t, "", "check-llm", "Summarize my year")
		if code != ExitSuccess || !strings.Contains(out, "Allowed") {
			t.Errorf("code %d, stdout %q", code, out)
		}
	})

	t.Run("nothing to check", func(t *testing.T) {
		if code, _, _ := runCLI(t, "", "check-llm"); code != ExitUsageError {
			t.Errorf("exit code = %d, want %d", code, ExitUsageError)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		code, _, _ := runCLI(t, "", "check-llm", "--accomplishments", filepath.Join(dir, "missing.json"))
		if code != ExitRuntimeError {
			t.Errorf("exit code = %d, want %d", code, ExitRuntimeError)
		}
	})
}

func TestRulesCommand(t *testing.T) {
	code, out, _ := runCLI(t, "", "rules")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want 0", code)
	}
	for _, want := range []string{"TYPE", "ssn", "mil_url", "Classification Marking"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q", want)
		}
	}

	code, out, _ = runCLI(t, "", "rules", "--json", "--category", "CUI")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want 0", code)
	}
	var rules []ruleOutput
	if err := json.Unmarshal([]byte(out), &rules); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rules) != 1 || rules[0].Type != "cui_marking" {
		t.Errorf("rules = %+v", rules)
	}

	if code, _, _ := runCLI(t, "", "rules", "--category", "Secret Stuff"); code != ExitUsageError {
		t.Errorf("unknown category exit code = %d, want %d", code, ExitUsageError)
	}
}

func TestVersionCommand(t *testing.T) {
	code, out, _ := runCLI(t, "", "version")
	if code != ExitSuccess || !strings.HasPrefix(out, "markguard version ") {
		t.Errorf("code %d, stdout %q", code, out)
	}
}

func TestUnknownCommand(t *testing.T) {
	if code, _, _ := runCLI(t, "", "explode"); code != ExitUsageError {
		t.Errorf("exit code = %d, want %d", code, ExitUsageError)
	}
}
