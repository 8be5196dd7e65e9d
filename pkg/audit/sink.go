// Package audit records blocked writes and blocked LLM calls to an external
// audit trail. Events carry match metadata only, never matched values.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Tributary-ai-services/Markguard/pkg/scan"
)

// Sink publishes audit events
type Sink interface {
	// Record publishes events to every topic the router selects
	Record(ctx context.Context, events ...AuditEvent) error

	// Close flushes pending events and releases the connection
	Close() error
}

// ActionBlocked is the only action the gates record
const ActionBlocked = "blocked"

// Gate names
const (
	GateWrite = "write"
	GateLLM   = "llm"
)

// AuditEvent is one blocked operation
type AuditEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Gate      string    `json:"gate"`

	UserID    string `json:"user_id,omitempty"`
	RecordID  string `json:"record_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	Matches    []scan.MatchMetadata `json:"matches"`
	Categories []scan.Category      `json:"categories"`
}

// NewEvent builds a blocked event for matches. Values are dropped.
func NewEvent(gate, userID, recordID, requestID string, matches []scan.SensitiveMatch) AuditEvent {
	var categories []scan.Category
	seen := make(map[scan.Category]bool)
	for _, m := range matches {
		if !seen[m.Category] {
			seen[m.Category] = true
			categories = append(categories, m.Category)
		}
	}

	return AuditEvent{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Action:     ActionBlocked,
		Gate:       gate,
		UserID:     userID,
		RecordID:   recordID,
		RequestID:  requestID,
		Matches:    scan.Metadata(matches),
		Categories: categories,
	}
}

// Key is the partition key of the event
func (e AuditEvent) Key() string {
	return e.UserID + ":" + e.RecordID
}

// SinkConfig configures a sink
type SinkConfig struct {
	// Kafka settings
	Brokers []string `json:"brokers"`
	Topics  Topics   `json:"topics"`

	// Producer settings
	BatchSize     int           `json:"batch_size"`
	FlushInterval time.Duration `json:"flush_interval"`
	Compression   string        `json:"compression"`   // "none", "gzip", "snappy", "lz4"
	RequiredAcks  string        `json:"required_acks"` // "none", "leader", "all"

	// Retry settings
	MaxRetries   int           `json:"max_retries"`
	RetryBackoff time.Duration `json:"retry_backoff"`
}

// Topics defines the audit topics
type Topics struct {
	Audit      string `json:"audit"`      // All events
	Classified string `json:"classified"` // Events with a classification marking
	CUI        string `json:"cui"`        // Events with a CUI marking
}

// DefaultSinkConfig returns default sink configuration
func DefaultSinkConfig() *SinkConfig {
	return &SinkConfig{
		Brokers: []string{"localhost:9092"},
		Topics: Topics{
			Audit:      "markguard.audit.blocked",
			Classified: "markguard.audit.blocked.classified",
			CUI:        "markguard.audit.blocked.cui",
		},
		BatchSize:     100,
		FlushInterval: time.Second,
		Compression:   "snappy",
		RequiredAcks:  "all",
		MaxRetries:    3,
		RetryBackoff:  100 * time.Millisecond,
	}
}
