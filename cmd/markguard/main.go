// Markguard scans free text for PII, classification markings and CUI
// markings before it is stored or sent to an LLM provider.
//
// Usage:
//
//	markguard scan --field details="..." --field impact="..."
//	echo "text" | markguard scan --json
//	markguard redact < notes.txt
//	markguard summarize "text to check"
//	markguard check-llm --accomplishments records.json
//	markguard rules
//
// Commands that find sensitive data exit with status 1; usage errors exit
// with status 2.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
