// Package metrics provides Prometheus metrics for the gates.
//
// Metrics:
//   - markguard_scans_total: scans by gate
//   - markguard_blocked_total: blocked operations by gate
//   - markguard_matches_total: matches by category and rule type
//   - markguard_scan_duration_seconds: scan latency by gate
//   - markguard_audit_failures_total: audit events that could not be recorded
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Tributary-ai-services/Markguard/pkg/scan"
)

// Recorder holds the gate collectors registered on one registry
type Recorder struct {
	ScansTotal    *prometheus.CounterVec
	BlockedTotal  *prometheus.CounterVec
	MatchesTotal  *prometheus.CounterVec
	ScanDuration  *prometheus.HistogramVec
	AuditFailures prometheus.Counter
}

// NewRecorder registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry(); the server passes prometheus.DefaultRegisterer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		ScansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "markguard_scans_total",
				Help: "Total number of gate scans",
			},
			[]string{"gate"},
		),
		BlockedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "markguard_blocked_total",
				Help: "Total number of blocked operations",
			},
			[]string{"gate"},
		),
		MatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "markguard_matches_total",
				Help: "Total number of sensitive matches",
			},
			[]string{"category", "type"},
		),
		ScanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "markguard_scan_duration_seconds",
				Help:    "Scan duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
			},
			[]string{"gate"},
		),
		AuditFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "markguard_audit_failures_total",
				Help: "Total number of audit events that could not be recorded",
			},
		),
	}
}

// ObserveScan records one completed scan. A nil Recorder is a no-op.
func (r *Recorder) ObserveScan(gate string, duration time.Duration, matches []scan.SensitiveMatch) {
	if r == nil {
		return
	}

	r.ScansTotal.WithLabelValues(gate).Inc()
	r.ScanDuration.WithLabelValues(gate).Observe(duration.Seconds())
	if len(matches) > 0 {
		r.BlockedTotal.WithLabelValues(gate).Inc()
	}
	for _, m := range matches {
		r.MatchesTotal.WithLabelValues(string(m.Category), string(m.Type)).Inc()
	}
}

// AuditFailed counts an audit event that could not be recorded
func (r *Recorder) AuditFailed() {
	if r == nil {
		return
	}
	r.AuditFailures.Inc()
}
