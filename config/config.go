// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Completion CompletionConfig `yaml:"completion"`
	Admin      AdminConfig      `yaml:"admin"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Partners   PartnersConfig   `yaml:"partners"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// CompletionConfig configures the upstream completion service.
type CompletionConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	APIKey       string        `yaml:"api_key"`
	Model        string        `yaml:"model"`
	SystemPrompt string        `yaml:"system_prompt"`
	MaxTokens    int           `yaml:"max_tokens"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
}

// AdminConfig configures the admin access gate.
// Mode must be "disabled" or "shared_secret". There is no implicit
// fallback: running with an open admin API is an explicit choice.
type AdminConfig struct {
	AuthMode string `yaml:"auth_mode"` // "disabled" or "shared_secret"
	Token    string `yaml:"token,omitempty"`
}

// RateLimitConfig configures the two-tier chat admission limits.
// Both tiers must admit for a message to be accepted.
type RateLimitConfig struct {
	PerIPPerMinute   int `yaml:"per_ip_per_minute"`
	PerUserPerMinute int `yaml:"per_user_per_minute"`
	MaxKeys          int `yaml:"max_keys"` // Bucket table size cap
}

// PartnersConfig configures the partner allowlist.
// An empty allowlist enables permissive mode: any syntactically valid
// code is accepted as its own partner.
type PartnersConfig struct {
	Allowlist []string `yaml:"allowlist"`
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // Custom path (default: /metrics)
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for Docker deployments where no config file is needed.
//
// Environment variables:
//
//	HEARTH_COMPLETION_ENDPOINT - Upstream completion URL (required)
//	HEARTH_COMPLETION_API_KEY  - Upstream API key
//	HEARTH_DATABASE_DSN        - Database path (default: hearth.db)
//	HEARTH_SERVER_PORT         - Server port (default: 8080)
//	HEARTH_ADMIN_AUTH_MODE     - Admin auth: disabled or shared_secret
//	HEARTH_ADMIN_TOKEN         - Admin shared secret
//	HEARTH_PARTNER_ALLOWLIST   - Comma-separated partner codes
//	HEARTH_LOG_LEVEL           - Log level: debug, info, warn, error
//	HEARTH_LOG_FORMAT          - Log format: json or console
//	HEARTH_METRICS_ENABLED     - Enable /metrics endpoint
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if HasEnvConfig() {
		return LoadFromEnv()
	}

	return nil, fmt.Errorf("no configuration found: provide config file or set HEARTH_COMPLETION_ENDPOINT")
}

// HasEnvConfig returns true if essential environment variables are set.
func HasEnvConfig() bool {
	return os.Getenv("HEARTH_COMPLETION_ENDPOINT") != ""
}

// applyEnvOverrides applies HEARTH_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HEARTH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("HEARTH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("HEARTH_COMPLETION_ENDPOINT"); v != "" {
		cfg.Completion.Endpoint = v
	}
	if v := os.Getenv("HEARTH_COMPLETION_API_KEY"); v != "" {
		cfg.Completion.APIKey = v
	}
	if v := os.Getenv("HEARTH_COMPLETION_MODEL"); v != "" {
		cfg.Completion.Model = v
	}
	if v := os.Getenv("HEARTH_COMPLETION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Completion.Timeout = d
		}
	}

	if v := os.Getenv("HEARTH_ADMIN_AUTH_MODE"); v != "" {
		cfg.Admin.AuthMode = v
	}
	if v := os.Getenv("HEARTH_ADMIN_TOKEN"); v != "" {
		cfg.Admin.Token = v
	}

	if v := os.Getenv("HEARTH_RATELIMIT_PER_IP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.PerIPPerMinute = n
		}
	}
	if v := os.Getenv("HEARTH_RATELIMIT_PER_USER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.PerUserPerMinute = n
		}
	}

	if v := os.Getenv("HEARTH_PARTNER_ALLOWLIST"); v != "" {
		var codes []string
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				codes = append(codes, c)
			}
		}
		cfg.Partners.Allowlist = codes
	}

	if v := os.Getenv("HEARTH_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("HEARTH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HEARTH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("HEARTH_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("HEARTH_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Completion.Model == "" {
		cfg.Completion.Model = "support-assistant"
	}
	if cfg.Completion.MaxTokens == 0 {
		cfg.Completion.MaxTokens = 4500
	}
	if cfg.Completion.Temperature == 0 {
		cfg.Completion.Temperature = 0.7
	}
	if cfg.Completion.Timeout == 0 {
		cfg.Completion.Timeout = 30 * time.Second
	}

	if cfg.Admin.AuthMode == "" {
		if cfg.Admin.Token != "" {
			cfg.Admin.AuthMode = "shared_secret"
		} else {
			cfg.Admin.AuthMode = "disabled"
		}
	}

	if cfg.RateLimit.PerIPPerMinute == 0 {
		cfg.RateLimit.PerIPPerMinute = 30
	}
	if cfg.RateLimit.PerUserPerMinute == 0 {
		cfg.RateLimit.PerUserPerMinute = 20
	}
	if cfg.RateLimit.MaxKeys == 0 {
		cfg.RateLimit.MaxKeys = 10000
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "hearth.db"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Completion.Endpoint == "" {
		return fmt.Errorf("completion.endpoint is required")
	}

	validAuthModes := map[string]bool{"disabled": true, "shared_secret": true}
	if !validAuthModes[cfg.Admin.AuthMode] {
		return fmt.Errorf("admin.auth_mode must be 'disabled' or 'shared_secret', got %q", cfg.Admin.AuthMode)
	}
	if cfg.Admin.AuthMode == "shared_secret" && cfg.Admin.Token == "" {
		return fmt.Errorf("admin.token is required when admin.auth_mode is 'shared_secret'")
	}

	if cfg.RateLimit.PerIPPerMinute < 1 || cfg.RateLimit.PerUserPerMinute < 1 {
		return fmt.Errorf("rate_limit tiers must be at least 1 per minute")
	}

	return nil
}
