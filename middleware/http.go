// Package middleware provides HTTP and gRPC middleware that put the write
// gate in front of existing handlers.
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Tributary-ai-services/Markguard/pkg/gate"
	"github.com/Tributary-ai-services/Markguard/pkg/scan"
)

type contextKey string

const middlewareResultKey contextKey = "markguard_result"

// HTTPConfig configures the HTTP gating middleware
type HTTPConfig struct {
	// Fields are the top-level string members of the JSON body to scan
	Fields []string `json:"fields"`

	// Methods are the request methods that carry writes
	Methods []string `json:"methods"`

	// Header extraction
	UserIDHeader    string `json:"user_id_header"`
	RecordIDHeader  string `json:"record_id_header"`
	RequestIDHeader string `json:"request_id_header"`

	// Behavior
	BlockOnViolation bool  `json:"block_on_violation"`
	MaxBodyBytes     int64 `json:"max_body_bytes"`

	// Exemptions
	ExemptPaths []string `json:"exempt_paths"`
}

// DefaultHTTPConfig returns default HTTP middleware configuration
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		Fields:           []string{scan.FieldDetails, scan.FieldImpact, scan.FieldMetrics},
		Methods:          []string{http.MethodPost, http.MethodPut, http.MethodPatch},
		UserIDHeader:     "X-User-ID",
		RecordIDHeader:   "X-Record-ID",
		RequestIDHeader:  "X-Request-ID",
		BlockOnViolation: true,
		MaxBodyBytes:     1 << 20,
		ExemptPaths:      []string{"/health", "/metrics"},
	}
}

// MiddlewareResult is stored in the request context for downstream handlers
type MiddlewareResult struct {
	RequestID string
	Blocked   bool
	Summary   string
	Matches   []scan.MatchMetadata
}

// BlockedResponse is the 422 body returned for a blocked write
type BlockedResponse struct {
	Error     string               `json:"error"`
	Summary   string               `json:"summary"`
	Matches   []scan.MatchMetadata `json:"matches"`
	RequestID string               `json:"request_id,omitempty"`
}

// HTTPMiddleware gates write requests. Bodies that are not JSON objects
// pass through untouched; the handler owns their validation.
func HTTPMiddleware(g *gate.Gate, config *HTTPConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultHTTPConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path, config.ExemptPaths) || !isGatedMethod(r.Method, config.Methods) {
				next.ServeHTTP(w, r)
				return
			}

			requestID := r.Header.Get(config.RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(config.RequestIDHeader, requestID)

			body, err := readBody(w, r, config.MaxBodyBytes)
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
					return
				}
				writeError(w, http.StatusBadRequest, "failed to read request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fields, ok := bodyFields(body, config.Fields)
			if !ok || len(fields) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := g.CheckWrite(r.Context(), gate.WriteRequest{
				UserID:    r.Header.Get(config.UserIDHeader),
				RecordID:  r.Header.Get(config.RecordIDHeader),
				RequestID: requestID,
				Fields:    fields,
			})
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					writeError(w, http.StatusServiceUnavailable, "content scan timed out")
					return
				}
				writeError(w, http.StatusInternalServerError, "content scan failed")
				return
			}

			result := &MiddlewareResult{
				RequestID: requestID,
				Blocked:   decision.Blocked,
				Summary:   decision.Summary,
				Matches:   scan.Metadata(decision.Matches),
			}

			if decision.Blocked && config.BlockOnViolation {
				writeJSON(w, http.StatusUnprocessableEntity, BlockedResponse{
					Error:     gate.ErrBlocked.Error(),
					Summary:   result.Summary,
					Matches:   result.Matches,
					RequestID: requestID,
				})
				return
			}

			ctx := context.WithValue(r.Context(), middlewareResultKey, result)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetMiddlewareResult retrieves the gate result from the request context
func GetMiddlewareResult(r *http.Request) *MiddlewareResult {
	result, _ := r.Context().Value(middlewareResultKey).(*MiddlewareResult)
	return result
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()

	body := r.Body
	if limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit)
	}
	return io.ReadAll(body)
}

// bodyFields picks the configured string members of a JSON object in
// configuration order.
func bodyFields(body []byte, names []string) (scan.ScanFields, bool) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, false
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(body, &object); err != nil {
		return nil, false
	}

	fields := make(scan.ScanFields, 0, len(names))
	for _, name := range names {
		raw, ok := object[name]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			continue
		}
		fields = append(fields, scan.Field{Name: name, Text: text})
	}
	return fields, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func isExemptPath(path string, exempt []string) bool {
	for _, p := range exempt {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

func isGatedMethod(method string, methods []string) bool {
	for _, m := range methods {
		if strings.EqualFold(method, m) {
			return true
		}
	}
	return false
}
