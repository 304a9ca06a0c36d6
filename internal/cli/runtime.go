package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/harun/toolgate/internal/archive"
	"github.com/harun/toolgate/internal/audit"
	"github.com/harun/toolgate/internal/config"
	"github.com/harun/toolgate/internal/logger"
	"github.com/harun/toolgate/internal/metrics"
	"github.com/harun/toolgate/internal/tracing"
	"github.com/harun/toolgate/pkg/builtins"
	"github.com/harun/toolgate/pkg/toolexecutor"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/cobra"
)

// runtime is the wired engine for one command invocation
type runtime struct {
	cfg     *config.Config
	log     *logger.Logger
	engine  *toolexecutor.Engine
	metrics *metrics.Metrics
	archive *archive.Store // nil when disabled
	audit   *audit.Logger  // nil when disabled
	sweeper *toolexecutor.Sweeper
	caller  toolexecutor.ExecutionContext
	tracing bool
}

func newRuntime(cmd *cobra.Command, opts *options) (*runtime, error) {
	cfg, err := config.NewLoader(opts.cfgFile).Load()
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.userID != "" {
		cfg.Caller.UserID = opts.userID
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	lg, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
		Console:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, log: lg}

	if cfg.Tracing.Enabled {
		if err := tracing.InitOpenTelemetry(cfg.Tracing.ServiceName); err != nil {
			rt.close()
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
		rt.tracing = true
	}

	rt.engine = toolexecutor.New(cfg.EngineOptions())
	rt.metrics = metrics.NewMetrics()
	rt.metrics.Instrument(rt.engine)

	if cfg.Archive.Enabled {
		store, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			rt.close()
			return nil, err
		}
		store.Sink(rt.engine)
		rt.archive = store
	}

	if cfg.Audit.Path != "" {
		auditLog, err := audit.Open(cfg.Audit.Path)
		if err != nil {
			rt.close()
			return nil, err
		}
		auditLog.Watch(rt.engine)
		rt.audit = auditLog
	}

	if err := builtins.RegisterAll(rt.engine); err != nil {
		rt.close()
		return nil, err
	}
	rt.engine.Seal()

	rt.sweeper, err = toolexecutor.NewSweeper(rt.engine.RateLimiter(), cfg.Engine.SweepSchedule)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.sweeper.Start()

	sessionID, err := gonanoid.New()
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}
	rt.caller = toolexecutor.ExecutionContext{
		UserID:        cfg.Caller.UserID,
		SessionID:     sessionID,
		Role:          cfg.Caller.Role,
		SecurityLevel: cfg.CallerSecurityLevel(),
	}

	return rt, nil
}

func (rt *runtime) requireArchive() error {
	if rt.archive == nil {
		return errors.New("execution archive is disabled; set archive.enabled in the config")
	}
	return nil
}

func (rt *runtime) close() error {
	var errs []error
	if rt.sweeper != nil {
		rt.sweeper.Stop()
	}
	if rt.archive != nil {
		errs = append(errs, rt.archive.Close())
	}
	if rt.audit != nil {
		errs = append(errs, rt.audit.Close())
	}
	if rt.tracing {
		errs = append(errs, tracing.ShutdownOpenTelemetry(context.Background()))
	}
	if rt.log != nil {
		errs = append(errs, rt.log.Close())
	}
	return errors.Join(errs...)
}

// withRuntime wraps a command body with runtime setup and teardown
func withRuntime(opts *options, run func(cmd *cobra.Command, args []string, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		rt, err := newRuntime(cmd, opts)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, rt.close())
		}()
		return run(cmd, args, rt)
	}
}
