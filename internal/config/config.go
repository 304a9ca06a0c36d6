package config

import (
	"time"
)

// Config represents the main toolgate configuration
type Config struct {
	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Engine limits and defaults
	Engine EngineConfig `json:"engine" mapstructure:"engine"`

	// Tool policy applied to every caller
	Policy ToolPolicyConfig `json:"policy" mapstructure:"policy"`

	// Execution archive
	Archive ArchiveConfig `json:"archive" mapstructure:"archive"`

	// Audit trail
	Audit AuditConfig `json:"audit" mapstructure:"audit"`

	// Tracing
	Tracing TracingConfig `json:"tracing" mapstructure:"tracing"`

	// Caller identity used by the CLI
	Caller CallerConfig `json:"caller" mapstructure:"caller"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// EngineConfig holds execution engine settings
type EngineConfig struct {
	DefaultTimeout       time.Duration `json:"default_timeout" mapstructure:"default_timeout"`
	DefaultRateLimit     int           `json:"default_rate_limit" mapstructure:"default_rate_limit"` // calls per minute
	HistoryCap           int           `json:"history_cap" mapstructure:"history_cap"`
	RateLimitKeyCapacity int           `json:"rate_limit_key_capacity" mapstructure:"rate_limit_key_capacity"`
	SweepSchedule        string        `json:"sweep_schedule" mapstructure:"sweep_schedule"`
}

// ToolPolicyConfig defines tool access policies
type ToolPolicyConfig struct {
	Allow           []string `json:"allow" mapstructure:"allow"`
	Deny            []string `json:"deny" mapstructure:"deny"`
	AllowCategories []string `json:"allow_categories" mapstructure:"allow_categories"`
	DenyCategories  []string `json:"deny_categories" mapstructure:"deny_categories"`
}

// ArchiveConfig controls the sqlite execution archive
type ArchiveConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// AuditConfig controls the JSON lines audit trail. An empty path disables it.
type AuditConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// TracingConfig controls OpenTelemetry spans
type TracingConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	ServiceName string `json:"service_name" mapstructure:"service_name"`
}

// CallerConfig identifies who the CLI executes tools as
type CallerConfig struct {
	UserID        string `json:"user_id" mapstructure:"user_id"`
	Role          string `json:"role" mapstructure:"role"`
	SecurityLevel string `json:"security_level" mapstructure:"security_level"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:     "info",
			Pretty:    true,
			Redaction: true,
		},
		Engine: EngineConfig{
			DefaultTimeout:       30 * time.Second,
			DefaultRateLimit:     60,
			HistoryCap:           100,
			RateLimitKeyCapacity: 10000,
			SweepSchedule:        "@every 5m",
		},
		Archive: ArchiveConfig{
			Enabled: false,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "toolgate",
		},
		Caller: CallerConfig{
			UserID:        "local",
			Role:          "user",
			SecurityLevel: "basic",
		},
	}
}
