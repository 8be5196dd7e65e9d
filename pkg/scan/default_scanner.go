package scan

import "sync"

var defaultScanner = sync.OnceValue(func() *Scanner {
	return NewScanner()
})

// Scan scans fields with the built-in rules
func Scan(fields ScanFields) []SensitiveMatch {
	return defaultScanner().Scan(fields)
}

// ScanText scans a single string with the built-in rules
func ScanText(text string) []SensitiveMatch {
	return defaultScanner().ScanText(text)
}

// HasSensitiveData is the write-path gate: true iff any field matches
func HasSensitiveData(fields ScanFields) bool {
	return defaultScanner().HasSensitiveData(fields)
}

// ScanStatementText scans one statement as a single unnamed field
func ScanStatementText(text string) []SensitiveMatch {
	return defaultScanner().ScanText(text)
}

// ScanAccomplishmentsForLLM checks a batch of records before they are sent
// to an LLM
func ScanAccomplishmentsForLLM(items []Accomplishment) LLMScanResult {
	return defaultScanner().ScanAccomplishments(items)
}

// ScanTextForLLM checks arbitrary texts before they are sent to an LLM.
// Empty entries are ignored.
func ScanTextForLLM(texts ...string) LLMScanResult {
	return defaultScanner().ScanTexts(texts...)
}

// RedactField scans text as the named field and redacts it
func RedactField(text, field string) (string, []SensitiveMatch) {
	return defaultScanner().RedactField(text, field)
}
