package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR} and ${VAR:-default} expressions.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// LoadConfig reads a YAML config file, performs environment variable
// substitution on the raw bytes, then unmarshals it over Default().
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse is LoadConfig for in-memory YAML.
func Parse(data []byte) (*Config, error) {
	data = substituteEnvVars(data)

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns in content
// with the corresponding environment variable values. An unset or empty
// variable without a default becomes the empty string.
func substituteEnvVars(content []byte) []byte {
	return envVarPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		groups := envVarPattern.FindSubmatch(match)
		if groups == nil {
			return match
		}

		varName := string(groups[1])
		hasDefault := len(groups) > 2 && groups[2] != nil

		val, ok := os.LookupEnv(varName)
		if !ok || val == "" {
			if hasDefault {
				return groups[2]
			}
			return []byte("")
		}
		return []byte(val)
	})
}

// Validate checks that required fields are set and that values are within
// expected ranges.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Service.ID == "" {
		return fmt.Errorf("service.id is required")
	}

	if cfg.Scanning.Concurrency < 0 {
		return fmt.Errorf("scanning.concurrency must be non-negative, got %d", cfg.Scanning.Concurrency)
	}
	if cfg.Scanning.Timeout < 0 {
		return fmt.Errorf("scanning.timeout must be non-negative, got %v", cfg.Scanning.Timeout)
	}
	for i, f := range cfg.Scanning.Fields {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("scanning.fields[%d] is empty", i)
		}
	}

	if err := validateAudit(&cfg.Audit); err != nil {
		return err
	}

	if err := validatePort("server.http.port", cfg.Server.HTTP.Port); err != nil {
		return err
	}
	if err := validatePort("server.grpc.port", cfg.Server.GRPC.Port); err != nil {
		return err
	}
	if cfg.Server.HTTP.MaxBodyBytes < 0 {
		return fmt.Errorf("server.http.max_body_bytes must be non-negative, got %d", cfg.Server.HTTP.MaxBodyBytes)
	}
	if cfg.Server.Metrics.Enabled && !strings.HasPrefix(cfg.Server.Metrics.Path, "/") {
		return fmt.Errorf("server.metrics.path %q must start with /", cfg.Server.Metrics.Path)
	}

	level := cfg.Logging.Level
	if level != "" {
		validLevels := map[string]bool{
			"debug": true, "info": true, "warn": true, "error": true,
		}
		if !validLevels[level] {
			return fmt.Errorf("logging.level %q is not valid; must be one of: debug, info, warn, error", level)
		}
	}

	format := cfg.Logging.Format
	if format != "" && format != "json" && format != "console" {
		return fmt.Errorf("logging.format %q is not valid; must be json or console", format)
	}

	return nil
}

func validateAudit(a *AuditConfig) error {
	if !a.Enabled {
		return nil
	}
	if a.Timeout < 0 {
		return fmt.Errorf("audit.timeout must be non-negative, got %v", a.Timeout)
	}

	switch a.Sink {
	case "local":
		return nil
	case "kafka":
	default:
		return fmt.Errorf("audit.sink %q is not valid; must be local or kafka", a.Sink)
	}

	k := a.Kafka
	if len(k.Brokers) == 0 {
		return fmt.Errorf("audit.kafka.brokers is required when audit.sink is kafka")
	}
	if k.Topics.Audit == "" {
		return fmt.Errorf("audit.kafka.topics.audit is required")
	}

	switch k.Producer.Compression {
	case "", "none", "gzip", "snappy", "lz4":
	default:
		return fmt.Errorf("audit.kafka.producer.compression %q is not valid; must be one of: none, gzip, snappy, lz4", k.Producer.Compression)
	}

	switch k.Producer.RequiredAcks {
	case "", "none", "leader", "all":
	default:
		return fmt.Errorf("audit.kafka.producer.required_acks %q is not valid; must be one of: none, leader, all", k.Producer.RequiredAcks)
	}

	if k.Producer.MaxRetries < 0 {
		return fmt.Errorf("audit.kafka.producer.max_retries must be non-negative, got %d", k.Producer.MaxRetries)
	}
	return nil
}

func validatePort(name string, port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("%s must be between 0 and 65535, got %d", name, port)
	}
	return nil
}
