// Package config provides configuration loading and validation for the
// Markguard server and CLI. It supports YAML configuration files with
// environment variable substitution.
package config

import (
	"time"

	"github.com/Tributary-ai-services/Markguard/pkg/audit"
)

// Config is the top-level configuration structure mirroring markguard.yaml.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Scanning ScanningConfig `yaml:"scanning"`
	Audit    AuditConfig    `yaml:"audit"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServiceConfig holds service identification metadata.
type ServiceConfig struct {
	ID          string `yaml:"id"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// ScanningConfig holds gate settings.
type ScanningConfig struct {
	// Concurrency is the number of fields scanned in parallel
	Concurrency int `yaml:"concurrency"`

	// Timeout bounds a single gate check
	Timeout time.Duration `yaml:"timeout"`

	// Fields are the JSON body fields the HTTP middleware scans
	Fields []string `yaml:"fields"`
}

// AuditConfig selects and configures the audit sink.
type AuditConfig struct {
	Enabled bool          `yaml:"enabled"`
	Sink    string        `yaml:"sink"` // "local" or "kafka"
	Timeout time.Duration `yaml:"timeout"`
	Kafka   KafkaConfig   `yaml:"kafka"`
}

// KafkaConfig holds Kafka connection and producer settings.
type KafkaConfig struct {
	Brokers  []string            `yaml:"brokers"`
	Topics   KafkaTopicsConfig   `yaml:"topics"`
	Producer KafkaProducerConfig `yaml:"producer"`
}

// KafkaTopicsConfig maps audit routes to Kafka topics.
type KafkaTopicsConfig struct {
	Audit      string `yaml:"audit"`
	Classified string `yaml:"classified"`
	CUI        string `yaml:"cui"`
}

// KafkaProducerConfig holds Kafka producer settings.
type KafkaProducerConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	Compression   string        `yaml:"compression"`
	RequiredAcks  string        `yaml:"required_acks"`
	MaxRetries    int           `yaml:"max_retries"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
}

// SinkConfig converts the Kafka section into an audit sink configuration.
func (k KafkaConfig) SinkConfig() *audit.SinkConfig {
	return &audit.SinkConfig{
		Brokers: k.Brokers,
		Topics: audit.Topics{
			Audit:      k.Topics.Audit,
			Classified: k.Topics.Classified,
			CUI:        k.Topics.CUI,
		},
		BatchSize:     k.Producer.BatchSize,
		FlushInterval: k.Producer.FlushInterval,
		Compression:   k.Producer.Compression,
		RequiredAcks:  k.Producer.RequiredAcks,
		MaxRetries:    k.Producer.MaxRetries,
		RetryBackoff:  k.Producer.RetryBackoff,
	}
}

// ServerConfig holds the listener settings.
type ServerConfig struct {
	HTTP    HTTPServerConfig `yaml:"http"`
	GRPC    GRPCServerConfig `yaml:"grpc"`
	Metrics MetricsConfig    `yaml:"metrics"`
}

// HTTPServerConfig holds HTTP server settings.
type HTTPServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// GRPCServerConfig holds gRPC server settings.
type GRPCServerConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// MetricsConfig holds Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given. LoadConfig
// overlays the file on top of it.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			ID:          "markguard",
			Version:     "dev",
			Environment: "development",
		},
		Scanning: ScanningConfig{
			Concurrency: 1,
			Timeout:     2 * time.Second,
			Fields:      []string{"details", "impact", "metrics"},
		},
		Audit: AuditConfig{
			Enabled: true,
			Sink:    "local",
			Timeout: 5 * time.Second,
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topics: KafkaTopicsConfig{
					Audit:      "markguard.audit.blocked",
					Classified: "markguard.audit.blocked.classified",
					CUI:        "markguard.audit.blocked.cui",
				},
				Producer: KafkaProducerConfig{
					BatchSize:     100,
					FlushInterval: time.Second,
					Compression:   "snappy",
					RequiredAcks:  "all",
					MaxRetries:    3,
					RetryBackoff:  100 * time.Millisecond,
				},
			},
		},
		Server: ServerConfig{
			HTTP: HTTPServerConfig{
				Port:            8080,
				ReadTimeout:     10 * time.Second,
				WriteTimeout:    10 * time.Second,
				ShutdownTimeout: 15 * time.Second,
				MaxBodyBytes:    1 << 20,
			},
			GRPC: GRPCServerConfig{
				Enabled: true,
				Port:    9090,
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
