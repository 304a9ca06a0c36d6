package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TOOLGATE_ENGINE_DEFAULT_RATE_LIMIT
const EnvPrefix = "TOOLGATE"

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader. An empty path selects
// $HOME/.toolgate/toolgate.json.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Path returns the config file location
func (l *Loader) Path() (string, error) {
	if l.configPath != "" {
		return l.configPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".toolgate", "toolgate.json"), nil
}

// Load reads the config file on top of the defaults and applies environment
// overrides. A missing file yields the defaults.
func (l *Loader) Load() (*Config, error) {
	configPath, err := l.Path()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Dir(configPath)
	}
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = filepath.Join(cfg.DataDir, "executions.db")
	}

	return cfg, nil
}

// Save writes the configuration to file
func (l *Loader) Save(cfg *Config) error {
	configPath, err := l.Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	setDefaults(v, cfg)
	v.Set("engine.default_timeout", cfg.Engine.DefaultTimeout.String())

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setDefaults registers every leaf key so environment overrides resolve
// even when the file omits the section.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.pretty", cfg.Logging.Pretty)
	v.SetDefault("logging.redaction", cfg.Logging.Redaction)

	v.SetDefault("engine.default_timeout", cfg.Engine.DefaultTimeout)
	v.SetDefault("engine.default_rate_limit", cfg.Engine.DefaultRateLimit)
	v.SetDefault("engine.history_cap", cfg.Engine.HistoryCap)
	v.SetDefault("engine.rate_limit_key_capacity", cfg.Engine.RateLimitKeyCapacity)
	v.SetDefault("engine.sweep_schedule", cfg.Engine.SweepSchedule)

	v.SetDefault("policy.allow", cfg.Policy.Allow)
	v.SetDefault("policy.deny", cfg.Policy.Deny)
	v.SetDefault("policy.allow_categories", cfg.Policy.AllowCategories)
	v.SetDefault("policy.deny_categories", cfg.Policy.DenyCategories)

	v.SetDefault("archive.enabled", cfg.Archive.Enabled)
	v.SetDefault("archive.path", cfg.Archive.Path)

	v.SetDefault("audit.path", cfg.Audit.Path)

	v.SetDefault("tracing.enabled", cfg.Tracing.Enabled)
	v.SetDefault("tracing.service_name", cfg.Tracing.ServiceName)

	v.SetDefault("caller.user_id", cfg.Caller.UserID)
	v.SetDefault("caller.role", cfg.Caller.Role)
	v.SetDefault("caller.security_level", cfg.Caller.SecurityLevel)

	v.SetDefault("data_dir", cfg.DataDir)
}
