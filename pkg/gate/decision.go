package gate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Tributary-ai-services/Markguard/pkg/scan"
)

// ErrBlocked matches every *BlockedError
var ErrBlocked = errors.New("sensitive data detected")

// BlockedError is returned to callers that refuse a blocked operation
type BlockedError struct {
	Gate    string
	Labels  []string
	Summary string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s gate: %s: %s", e.Gate, ErrBlocked, strings.Join(e.Labels, ", "))
}

// Is reports whether target is ErrBlocked
func (e *BlockedError) Is(target error) bool {
	return target == ErrBlocked
}

// Decision is the outcome of a gate check. Matches carry values, so a
// Decision must not be serialized to logs or clients as is; use
// scan.Metadata.
type Decision struct {
	Gate    string
	Blocked bool
	Summary string
	Matches []scan.SensitiveMatch
}

// Labels returns the distinct labels of the matches in first-seen order
func (d *Decision) Labels() []string {
	return scan.LLMScanResult{Blocked: d.Blocked, Matches: d.Matches}.Labels()
}

// Err returns a *BlockedError when the decision blocks, nil otherwise
func (d *Decision) Err() error {
	if d == nil || !d.Blocked {
		return nil
	}
	return &BlockedError{
		Gate:    d.Gate,
		Labels:  d.Labels(),
		Summary: d.Summary,
	}
}
