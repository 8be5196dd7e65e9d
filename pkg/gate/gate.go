// Package gate enforces the scanner's decisions at the two boundaries where
// sensitive data can leave the unclassified system: persisting a record
// (write gate) and calling an external LLM provider (LLM gate).
package gate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Tributary-ai-services/Markguard/pkg/audit"
	"github.com/Tributary-ai-services/Markguard/pkg/metrics"
	"github.com/Tributary-ai-services/Markguard/pkg/scan"
)

const (
	// DefaultTimeout bounds a gate check
	DefaultTimeout = 2 * time.Second

	// DefaultAuditTimeout bounds recording one audit event
	DefaultAuditTimeout = 5 * time.Second
)

// Gate scans requests, blocks those containing sensitive data and records
// blocked operations to an audit sink. A Gate is safe for concurrent use.
type Gate struct {
	scanner      *scan.Scanner
	sink         audit.Sink
	logger       *zap.Logger
	metrics      *metrics.Recorder
	timeout      time.Duration
	auditTimeout time.Duration

	// in-flight audit writes
	pending sync.WaitGroup
}

// Option is a functional option for configuring a Gate.
type Option func(*Gate)

// WithScanner sets the scanner. The default scanner uses the built-in rules.
func WithScanner(s *scan.Scanner) Option {
	return func(g *Gate) {
		if s != nil {
			g.scanner = s
		}
	}
}

// WithSink sets the audit sink. Without one, blocked operations are only
// logged.
func WithSink(s audit.Sink) Option {
	return func(g *Gate) {
		g.sink = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(g *Gate) {
		g.metrics = r
	}
}

// WithTimeout bounds each check. Zero disables the gate's own deadline; the
// caller's context still applies.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) {
		if d >= 0 {
			g.timeout = d
		}
	}
}

// WithAuditTimeout bounds each asynchronous audit write.
func WithAuditTimeout(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.auditTimeout = d
		}
	}
}

// New creates a Gate.
func New(opts ...Option) *Gate {
	g := &Gate{
		scanner:      scan.NewScanner(),
		logger:       zap.NewNop(),
		timeout:      DefaultTimeout,
		auditTimeout: DefaultAuditTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Scanner returns the scanner the gate applies.
func (g *Gate) Scanner() *scan.Scanner {
	return g.scanner
}

// WriteRequest is a record about to be persisted.
type WriteRequest struct {
	UserID    string
	RecordID  string
	RequestID string
	Fields    scan.ScanFields
}

// LLMRequest is content about to be sent to an LLM provider.
type LLMRequest struct {
	UserID          string
	RequestID       string
	Texts           []string
	Accomplishments []scan.Accomplishment
}

// CheckWrite scans the record's fields. A blocked decision is not an error;
// errors are reserved for cancelled or timed-out checks.
func (g *Gate) CheckWrite(ctx context.Context, req WriteRequest) (*Decision, error) {
	start := time.Now()
	matches, err := g.run(ctx, func() []scan.SensitiveMatch {
		return g.scanner.Scan(req.Fields)
	})
	if err != nil {
		return nil, fmt.Errorf("write gate: %w", err)
	}

	d := g.decide(audit.GateWrite, matches, time.Since(start))
	if d.Blocked {
		g.blocked(audit.NewEvent(audit.GateWrite, req.UserID, req.RecordID, req.RequestID, matches))
	}
	return d, nil
}

// CheckLLM scans the texts and records of an outbound LLM call.
func (g *Gate) CheckLLM(ctx context.Context, req LLMRequest) (*Decision, error) {
	start := time.Now()
	matches, err := g.run(ctx, func() []scan.SensitiveMatch {
		texts := g.scanner.ScanTexts(req.Texts...)
		records := g.scanner.ScanAccomplishments(req.Accomplishments)
		return append(texts.Matches, records.Matches...)
	})
	if err != nil {
		return nil, fmt.Errorf("llm gate: %w", err)
	}

	d := g.decide(audit.GateLLM, matches, time.Since(start))
	if d.Blocked {
		g.blocked(audit.NewEvent(audit.GateLLM, req.UserID, "", req.RequestID, matches))
	}
	return d, nil
}

// Wait blocks until in-flight audit writes finish.
func (g *Gate) Wait() {
	g.pending.Wait()
}

// run executes scanFn on its own goroutine and returns when it finishes or
// ctx is done.
func (g *Gate) run(ctx context.Context, scanFn func() []scan.SensitiveMatch) ([]scan.SensitiveMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	done := make(chan []scan.SensitiveMatch, 1)
	go func() {
		done <- scanFn()
	}()

	select {
	case matches := <-done:
		return matches, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("scanning: %w", ctx.Err())
	}
}

func (g *Gate) decide(gate string, matches []scan.SensitiveMatch, elapsed time.Duration) *Decision {
	if matches == nil {
		matches = []scan.SensitiveMatch{}
	}
	g.metrics.ObserveScan(gate, elapsed, matches)

	return &Decision{
		Gate:    gate,
		Blocked: len(matches) > 0,
		Summary: scan.Summarize(matches),
		Matches: matches,
	}
}

// blocked logs the event and records it asynchronously. Sink failures are
// logged and counted, never returned to the caller.
func (g *Gate) blocked(event audit.AuditEvent) {
	g.logger.Info("sensitive data blocked",
		zap.String("event_id", event.ID),
		zap.String("gate", event.Gate),
		zap.String("user_id", event.UserID),
		zap.String("record_id", event.RecordID),
		zap.String("request_id", event.RequestID),
		zap.Int("match_count", len(event.Matches)),
		zap.Strings("types", matchTypes(event.Matches)),
		zap.Strings("fields", matchFields(event.Matches)),
	)

	if g.sink == nil {
		return
	}

	g.pending.Add(1)
	go func() {
		defer g.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), g.auditTimeout)
		defer cancel()

		if err := g.sink.Record(ctx, event); err != nil {
			g.metrics.AuditFailed()
			g.logger.Warn("recording audit event failed",
				zap.String("event_id", event.ID),
				zap.String("gate", event.Gate),
				zap.Error(err),
			)
		}
	}()
}

func matchTypes(matches []scan.MatchMetadata) []string {
	seen := make(map[scan.RuleType]bool)
	var types []string
	for _, m := range matches {
		if !seen[m.Type] {
			seen[m.Type] = true
			types = append(types, string(m.Type))
		}
	}
	return types
}

func matchFields(matches []scan.MatchMetadata) []string {
	seen := make(map[string]bool)
	var fields []string
	for _, m := range matches {
		if m.Field != "" && !seen[m.Field] {
			seen[m.Field] = true
			fields = append(fields, m.Field)
		}
	}
	return fields
}
