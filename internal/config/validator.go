package config

import (
	"errors"
	"fmt"

	"github.com/harun/toolgate/pkg/toolexecutor"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Validate checks the configuration and reports every problem found
func (c *Config) Validate() error {
	var errs []error

	if c.Logging.Level != "" {
		if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
			errs = append(errs, fmt.Errorf("logging.level: %w", err))
		}
	}

	if c.Engine.DefaultTimeout <= 0 {
		errs = append(errs, fmt.Errorf("engine.default_timeout must be positive, got %v", c.Engine.DefaultTimeout))
	}
	if c.Engine.DefaultRateLimit <= 0 {
		errs = append(errs, fmt.Errorf("engine.default_rate_limit must be positive, got %d", c.Engine.DefaultRateLimit))
	}
	if c.Engine.HistoryCap <= 0 {
		errs = append(errs, fmt.Errorf("engine.history_cap must be positive, got %d", c.Engine.HistoryCap))
	}
	if c.Engine.RateLimitKeyCapacity <= 0 {
		errs = append(errs, fmt.Errorf("engine.rate_limit_key_capacity must be positive, got %d", c.Engine.RateLimitKeyCapacity))
	}
	if c.Engine.SweepSchedule != "" {
		if _, err := cron.ParseStandard(c.Engine.SweepSchedule); err != nil {
			errs = append(errs, fmt.Errorf("engine.sweep_schedule: %w", err))
		}
	}

	for _, name := range append(append([]string{}, c.Policy.AllowCategories...), c.Policy.DenyCategories...) {
		if _, err := toolexecutor.ParseCategory(name); err != nil {
			errs = append(errs, fmt.Errorf("policy: %w", err))
		}
	}

	if c.Archive.Enabled && c.Archive.Path == "" {
		errs = append(errs, errors.New("archive.path is required when the archive is enabled"))
	}

	if c.Caller.UserID == "" {
		errs = append(errs, errors.New("caller.user_id cannot be empty"))
	}
	if _, err := toolexecutor.ParseSecurityLevel(c.Caller.SecurityLevel); err != nil {
		errs = append(errs, fmt.Errorf("caller.security_level: %w", err))
	}

	return errors.Join(errs...)
}

// ToolPolicy converts the policy section for the engine.
// Categories are assumed valid; call Validate first.
func (c *Config) ToolPolicy() *toolexecutor.ToolPolicy {
	p := c.Policy
	if len(p.Allow) == 0 && len(p.Deny) == 0 && len(p.AllowCategories) == 0 && len(p.DenyCategories) == 0 {
		return nil
	}

	policy := &toolexecutor.ToolPolicy{
		Allow: append([]string(nil), p.Allow...),
		Deny:  append([]string(nil), p.Deny...),
	}
	for _, name := range p.AllowCategories {
		if cat, err := toolexecutor.ParseCategory(name); err == nil {
			policy.AllowCategories = append(policy.AllowCategories, cat)
		}
	}
	for _, name := range p.DenyCategories {
		if cat, err := toolexecutor.ParseCategory(name); err == nil {
			policy.DenyCategories = append(policy.DenyCategories, cat)
		}
	}
	return policy
}

// CallerSecurityLevel returns the normalized caller level, or basic when the
// configured value does not parse. Call Validate first.
func (c *Config) CallerSecurityLevel() toolexecutor.SecurityLevel {
	level, err := toolexecutor.ParseSecurityLevel(c.Caller.SecurityLevel)
	if err != nil {
		return toolexecutor.LevelBasic
	}
	return level
}

// EngineOptions maps the engine section onto executor options
func (c *Config) EngineOptions() toolexecutor.Options {
	opts := toolexecutor.DefaultOptions()
	opts.DefaultTimeout = c.Engine.DefaultTimeout
	opts.DefaultRateLimit = c.Engine.DefaultRateLimit
	opts.HistoryCap = c.Engine.HistoryCap
	opts.KeyCapacity = c.Engine.RateLimitKeyCapacity
	opts.ToolPolicy = c.ToolPolicy()
	return opts
}
