package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tributary-ai-services/Markguard/middleware"
	"github.com/Tributary-ai-services/Markguard/pkg/gate"
	"github.com/Tributary-ai-services/Markguard/pkg/scan"
)

// ScanRequest is the body of POST /v1/scan. Text is scanned as an unnamed
// field after Fields. Matched values and offsets are returned only when
// IncludeValues is set.
type ScanRequest struct {
	Fields        scan.ScanFields `json:"fields,omitempty"`
	Text          string          `json:"text,omitempty"`
	IncludeValues bool            `json:"include_values,omitempty"`
}

// ScanResponse is returned by POST /v1/scan
type ScanResponse struct {
	HasSensitiveData bool                  `json:"has_sensitive_data"`
	Summary          string                `json:"summary,omitempty"`
	Matches          []scan.MatchMetadata  `json:"matches"`
	Details          []scan.SensitiveMatch `json:"details,omitempty"`
}

// RedactRequest is the body of POST /v1/redact
type RedactRequest struct {
	Text  string `json:"text"`
	Field string `json:"field,omitempty"`
}

// RedactResponse is returned by POST /v1/redact
type RedactResponse struct {
	Redacted string               `json:"redacted"`
	Matches  []scan.MatchMetadata `json:"matches"`
}

// LLMCheckRequest is the body of POST /v1/llm/check
type LLMCheckRequest struct {
	UserID          string                `json:"user_id,omitempty"`
	Texts           []string              `json:"texts,omitempty"`
	Accomplishments []scan.Accomplishment `json:"accomplishments,omitempty"`
}

// CheckResponse is returned by the gate endpoints
type CheckResponse struct {
	Blocked   bool                 `json:"blocked"`
	Error     string               `json:"error,omitempty"`
	Summary   string               `json:"summary,omitempty"`
	Labels    []string             `json:"labels,omitempty"`
	Matches   []scan.MatchMetadata `json:"matches"`
	RequestID string               `json:"request_id,omitempty"`
}

// RuleInfo describes one registered rule
type RuleInfo struct {
	Type     scan.RuleType `json:"type"`
	Category scan.Category `json:"category"`
	Label    string        `json:"label"`
	Severity scan.Severity `json:"severity"`
	Patterns int           `json:"patterns"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !s.decode(w, r, &req) {
		return
	}

	fields := req.Fields
	if req.Text != "" {
		fields = append(fields, scan.Field{Text: req.Text})
	}

	matches := s.gate.Scanner().Scan(fields)
	resp := ScanResponse{
		HasSensitiveData: len(matches) > 0,
		Summary:          scan.Summarize(matches),
		Matches:          scan.Metadata(matches),
	}
	if req.IncludeValues {
		resp.Details = matches
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRedact(w http.ResponseWriter, r *http.Request) {
	var req RedactRequest
	if !s.decode(w, r, &req) {
		return
	}

	redacted, matches := s.gate.Scanner().RedactField(req.Text, req.Field)
	writeJSON(w, http.StatusOK, RedactResponse{
		Redacted: redacted,
		Matches:  scan.Metadata(matches),
	})
}

func (s *Server) handleLLMCheck(w http.ResponseWriter, r *http.Request) {
	var req LLMCheckRequest
	if !s.decode(w, r, &req) {
		return
	}

	requestID := requestIDFrom(r)
	decision, err := s.gate.CheckLLM(r.Context(), gate.LLMRequest{
		UserID:          req.UserID,
		RequestID:       requestID,
		Texts:           req.Texts,
		Accomplishments: req.Accomplishments,
	})
	if err != nil {
		s.logger.WithRequestID(requestID).Warn("LLM check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "content scan failed")
		return
	}

	resp := CheckResponse{
		Blocked:   decision.Blocked,
		Summary:   decision.Summary,
		Matches:   scan.Metadata(decision.Matches),
		RequestID: requestID,
	}
	status := http.StatusOK
	if err := decision.Err(); err != nil {
		var blocked *gate.BlockedError
		if errors.As(err, &blocked) {
			resp.Labels = blocked.Labels
		}
		resp.Error = err.Error()
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

// handleWriteCheck only runs once the write gate middleware let the body
// through
func (s *Server) handleWriteCheck(w http.ResponseWriter, r *http.Request) {
	resp := CheckResponse{Matches: []scan.MatchMetadata{}}
	if result := middleware.GetMiddlewareResult(r); result != nil {
		resp.Blocked = result.Blocked
		resp.Summary = result.Summary
		resp.Matches = result.Matches
		resp.RequestID = result.RequestID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	rules := s.gate.Scanner().Registry().Rules()
	out := make([]RuleInfo, len(rules))
	for i, rule := range rules {
		out[i] = RuleInfo{
			Type:     rule.Type,
			Category: rule.Category,
			Label:    rule.Label,
			Severity: rule.Severity,
			Patterns: len(rule.Patterns),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if limit := s.config.Server.HTTP.MaxBodyBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func requestIDFrom(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
