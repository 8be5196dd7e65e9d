// Package server wires the gates into the Markguard HTTP and gRPC servers.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Tributary-ai-services/Markguard/middleware"
	"github.com/Tributary-ai-services/Markguard/pkg/audit"
	"github.com/Tributary-ai-services/Markguard/pkg/config"
	"github.com/Tributary-ai-services/Markguard/pkg/gate"
	"github.com/Tributary-ai-services/Markguard/pkg/logger"
	"github.com/Tributary-ai-services/Markguard/pkg/metrics"
	"github.com/Tributary-ai-services/Markguard/pkg/scan"
)

// Server is the Markguard service: HTTP API, gRPC health and metrics
type Server struct {
	config   *config.Config
	logger   *logger.Logger
	gate     *gate.Gate
	sink     audit.Sink
	registry *prometheus.Registry
	router   *mux.Router
	http     *http.Server
	grpc     *grpc.Server
	health   *health.Server
	done     chan struct{}
}

// New creates a server from configuration
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.NewNop()
	}

	s := &Server{
		config:   cfg,
		logger:   log.WithComponent("server"),
		registry: prometheus.NewRegistry(),
		router:   mux.NewRouter(),
		health:   health.NewServer(),
		done:     make(chan struct{}),
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sink, err := s.newSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create audit sink: %w", err)
	}
	s.sink = sink

	opts := []gate.Option{
		gate.WithScanner(scan.NewScanner(scan.WithConcurrency(cfg.Scanning.Concurrency))),
		gate.WithLogger(log.WithComponent("gate").Logger),
		gate.WithMetrics(metrics.NewRecorder(s.registry)),
		gate.WithTimeout(cfg.Scanning.Timeout),
		gate.WithAuditTimeout(cfg.Audit.Timeout),
	}
	if sink != nil {
		opts = append(opts, gate.WithSink(sink))
	}
	s.gate = gate.New(opts...)

	s.setupRoutes()

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTP.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
	}

	s.grpc = grpc.NewServer(
		grpc.ChainUnaryInterceptor(middleware.UnaryServerInterceptor(s.gate, middleware.DefaultGRPCConfig())),
	)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return s, nil
}

// newSink builds the configured audit sink. A disabled audit yields nil.
func (s *Server) newSink() (audit.Sink, error) {
	cfg := s.config.Audit
	if !cfg.Enabled {
		return nil, nil
	}

	sinkConfig := cfg.Kafka.SinkConfig()
	switch cfg.Sink {
	case "kafka":
		ks, err := audit.NewKafkaSink(sinkConfig)
		if err != nil {
			return nil, err
		}
		go s.drainSinkErrors(ks.Errors())
		return ks, nil
	default:
		ls := audit.NewLocalSink(sinkConfig)
		auditLog := s.logger.WithComponent("audit")
		ls.OnPublish(func(topic string, event audit.AuditEvent) {
			categories := make([]string, len(event.Categories))
			for i, c := range event.Categories {
				categories[i] = string(c)
			}
			auditLog.Info("audit event",
				zap.String("topic", topic),
				zap.String("event_id", event.ID),
				zap.String("gate", event.Gate),
				zap.String("user_id", event.UserID),
				zap.Strings("categories", categories),
			)
		})
		return ls, nil
	}
}

func (s *Server) drainSinkErrors(errs <-chan error) {
	for {
		select {
		case err := <-errs:
			s.logger.Warn("audit delivery failed", zap.Error(err))
		case <-s.done:
			return
		}
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if s.config.Server.Metrics.Enabled {
		s.router.Handle(s.config.Server.Metrics.Path,
			promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// Registered on the root router so a method mismatch answers 405.
	api := func(path string, h http.Handler, method string) {
		s.router.Handle("/v1"+path, s.loggingMiddleware(h)).Methods(method)
	}
	api("/scan", http.HandlerFunc(s.handleScan), http.MethodPost)
	api("/redact", http.HandlerFunc(s.handleRedact), http.MethodPost)
	api("/llm/check", http.HandlerFunc(s.handleLLMCheck), http.MethodPost)
	api("/rules", http.HandlerFunc(s.handleRules), http.MethodGet)

	writeCheck := middleware.DefaultHTTPConfig()
	writeCheck.Fields = s.config.Scanning.Fields
	writeCheck.MaxBodyBytes = s.config.Server.HTTP.MaxBodyBytes
	api("/write/check",
		middleware.HTTPMiddleware(s.gate, writeCheck)(http.HandlerFunc(s.handleWriteCheck)), http.MethodPost)

	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Gate returns the gate the server enforces
func (s *Server) Gate() *gate.Gate {
	return s.gate
}

// Start serves gRPC in the background and HTTP until Stop
func (s *Server) Start() error {
	if s.config.Server.GRPC.Enabled {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Server.GRPC.Port))
		if err != nil {
			return fmt.Errorf("failed to listen for gRPC: %w", err)
		}
		go func() {
			s.logger.Info("gRPC server listening", zap.Int("port", s.config.Server.GRPC.Port))
			if err := s.grpc.Serve(lis); err != nil {
				s.logger.Error("gRPC server error", zap.Error(err))
			}
		}()
	}

	s.logger.Info("HTTP server listening",
		zap.Int("port", s.config.Server.HTTP.Port),
		zap.String("audit_sink", s.config.Audit.Sink),
		zap.Bool("audit_enabled", s.config.Audit.Enabled),
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains HTTP and gRPC, waits for pending audit writes and closes the
// sink
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping Markguard server")
	s.health.Shutdown()

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpc.Stop()
	}

	s.gate.Wait()
	if s.sink != nil {
		if err := s.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("audit sink close: %w", err))
		}
	}
	close(s.done)

	return errors.Join(errs...)
}
