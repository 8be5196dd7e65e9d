package middleware

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Tributary-ai-services/Markguard/pkg/gate"
	"github.com/Tributary-ai-services/Markguard/pkg/scan"
)

// FieldSource is implemented by request messages whose text must pass the
// write gate.
type FieldSource interface {
	ScanFields() scan.ScanFields
}

// GRPCConfig configures the gRPC gating interceptor
type GRPCConfig struct {
	// Metadata extraction
	UserIDMetadata    string `json:"user_id_metadata"`
	RecordIDMetadata  string `json:"record_id_metadata"`
	RequestIDMetadata string `json:"request_id_metadata"`

	// Behavior
	BlockOnViolation bool `json:"block_on_violation"`

	// Exemptions
	ExemptMethods []string `json:"exempt_methods"`
}

// DefaultGRPCConfig returns default gRPC middleware configuration
func DefaultGRPCConfig() *GRPCConfig {
	return &GRPCConfig{
		UserIDMetadata:    "x-user-id",
		RecordIDMetadata:  "x-record-id",
		RequestIDMetadata: "x-request-id",
		BlockOnViolation:  true,
		ExemptMethods: []string{
			"/grpc.health.v1.Health/Check",
			"/grpc.health.v1.Health/Watch",
		},
	}
}

// UnaryServerInterceptor gates requests that implement FieldSource. A
// blocked request fails with codes.InvalidArgument carrying the summary.
func UnaryServerInterceptor(g *gate.Gate, config *GRPCConfig) grpc.UnaryServerInterceptor {
	if config == nil {
		config = DefaultGRPCConfig()
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		source, ok := req.(FieldSource)
		if !ok || isExemptMethod(info.FullMethod, config.ExemptMethods) {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		decision, err := g.CheckWrite(ctx, gate.WriteRequest{
			UserID:    firstValue(md, config.UserIDMetadata),
			RecordID:  firstValue(md, config.RecordIDMetadata),
			RequestID: firstValue(md, config.RequestIDMetadata),
			Fields:    source.ScanFields(),
		})
		if err != nil {
			return nil, status.FromContextError(err).Err()
		}

		if decision.Blocked && config.BlockOnViolation {
			return nil, status.Error(codes.InvalidArgument, decision.Summary)
		}
		return handler(ctx, req)
	}
}

func firstValue(md metadata.MD, key string) string {
	if md == nil || key == "" {
		return ""
	}
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

func isExemptMethod(method string, exempt []string) bool {
	for _, m := range exempt {
		if method == m {
			return true
		}
	}
	return false
}
