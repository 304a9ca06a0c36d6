package toolexecutor

import (
	"context"
	"errors"
	"fmt"
	"runtime/metrics"
	"time"

	"github.com/google/uuid"
	"github.com/harun/toolgate/internal/tracing"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DefaultTimeout applies to tools registered without a timeout
	DefaultTimeout = 30 * time.Second
	// DefaultRateLimit applies to tools registered without a rate limit
	DefaultRateLimit = 60

	tracerName = "github.com/harun/toolgate/pkg/toolexecutor"
)

var errHandlerPanic = errors.New("tool handler panicked")

// Options configures an Engine
type Options struct {
	DefaultTimeout   time.Duration
	DefaultRateLimit int
	HistoryCap       int         // results kept per (user, tool)
	KeyCapacity      int         // (user, tool) keys kept by the limiter and history
	Validator        Validator   // nil uses JSONSchemaValidator
	ToolPolicy       *ToolPolicy // engine-wide policy merged with each caller's
}

// DefaultOptions returns the default engine configuration
func DefaultOptions() Options {
	return Options{
		DefaultTimeout:   DefaultTimeout,
		DefaultRateLimit: DefaultRateLimit,
		HistoryCap:       DefaultHistoryCap,
		KeyCapacity:      DefaultRateLimitKeyCapacity,
	}
}

// Engine owns the catalog, the rate limiter and the execution history, and
// runs tools through the full admission pipeline.
type Engine struct {
	catalog *Catalog
	limiter *RateLimiter
	history *History
	events  *EventBus
	policy  *ToolPolicy
}

// New creates an Engine
func New(opts Options) *Engine {
	events := NewEventBus()
	e := &Engine{
		catalog: NewCatalog(opts.Validator, ToolDefaults{
			RateLimit: opts.DefaultRateLimit,
			Timeout:   opts.DefaultTimeout,
		}, events),
		limiter: NewRateLimiter(opts.KeyCapacity),
		history: NewHistory(opts.HistoryCap, opts.KeyCapacity),
		events:  events,
		policy:  opts.ToolPolicy,
	}

	log.Info().Msg("Tool engine initialized")

	return e
}

// RegisterTool registers a new tool. Errors are configuration errors and
// should abort startup.
func (e *Engine) RegisterTool(def ToolDefinition) error {
	return e.catalog.Register(def)
}

// Seal closes the catalog to further registration
func (e *Engine) Seal() {
	e.catalog.Seal()
	log.Info().Int("tools", e.catalog.Len()).Msg("Tool catalog sealed")
}

// GetTool returns a tool definition by name
func (e *Engine) GetTool(name string) (ToolDefinition, bool) {
	return e.catalog.Get(name)
}

// ListTools returns the tools a caller with role and level may access
func (e *Engine) ListTools(role string, level SecurityLevel) []ToolDefinition {
	return e.catalog.List(role, level)
}

// ToolsFor returns the tools a caller may run: those its role and level
// reach, minus any the engine policy merged with the caller's denies.
func (e *Engine) ToolsFor(caller ExecutionContext) []ToolDefinition {
	policy := e.policy.Merge(caller.ToolPolicy)
	defs := e.catalog.List(caller.Role, caller.SecurityLevel)

	allowed := defs[:0]
	for _, def := range defs {
		if policy.IsToolAllowed(def) {
			allowed = append(allowed, def)
		}
	}
	return allowed
}

// On subscribes to engine events
func (e *Engine) On(eventType string, handler EventHandler) {
	e.events.On(eventType, handler)
}

// Catalog exposes the tool catalog
func (e *Engine) Catalog() *Catalog { return e.catalog }

// RateLimiter exposes the rate limiter
func (e *Engine) RateLimiter() *RateLimiter { return e.limiter }

// History exposes the execution history
func (e *Engine) History() *History { return e.history }

// ExecuteTool runs a tool for a caller. It never panics and never returns a
// Go error: every failure is reported through the result.
func (e *Engine) ExecuteTool(ctx context.Context, toolName string, params map[string]interface{}, execCtx ExecutionContext) ExecutionResult {
	if ctx == nil {
		ctx = context.Background()
	}
	startTime := time.Now()
	execCtx.ExecutionID = uuid.New().String()
	execCtx.StartTime = startTime

	ctx = tracing.WithExecutionID(ctx, execCtx.ExecutionID)
	ctx = tracing.WithUserID(ctx, execCtx.UserID)
	if execCtx.SessionID != "" {
		ctx = tracing.WithSessionID(ctx, execCtx.SessionID)
	}
	ctx, span := tracing.StartSpan(ctx, tracerName, "tool.execute",
		attribute.String("tool.name", toolName),
	)
	defer span.End()

	result := e.execute(ctx, toolName, params, &execCtx, startTime)
	result.ToolName = toolName
	result.UserID = execCtx.UserID
	result.ExecutionID = execCtx.ExecutionID
	result.Timestamp = startTime

	e.history.Record(execCtx.UserID, toolName, result)

	span.SetAttributes(
		attribute.Bool("tool.success", result.Success),
		attribute.Int64("tool.duration_ms", result.Duration.Milliseconds()),
	)
	if !result.Success {
		span.SetAttributes(attribute.String("tool.error_kind", string(result.ErrorKind)))
		span.SetStatus(codes.Error, result.Error)
	}

	e.publish(ctx, result)

	return result
}

func (e *Engine) execute(ctx context.Context, toolName string, params map[string]interface{}, execCtx *ExecutionContext, startTime time.Time) ExecutionResult {
	logger := tracing.LoggerFromContext(ctx, log.Logger).With().
		Str("tool", toolName).
		Logger()

	entry := e.catalog.entry(toolName)
	if entry == nil {
		logger.Error().Msg("Tool not found")
		return failure(newNotFoundError(toolName), startTime)
	}
	def := entry.def

	if !CanAccess(def.SecurityLevel, execCtx.SecurityLevel, execCtx.Role) {
		logger.Warn().
			Str("required_level", string(def.SecurityLevel)).
			Str("caller_level", string(execCtx.SecurityLevel)).
			Str("role", execCtx.Role).
			Msg("Tool execution blocked by security level")
		return failure(newAuthorizationError(toolName,
			fmt.Sprintf("requires %s security level", def.SecurityLevel)), startTime)
	}

	if policy := e.policy.Merge(execCtx.ToolPolicy); !policy.IsToolAllowed(def) {
		logger.Warn().Msg("Tool execution blocked by policy")
		return failure(newAuthorizationError(toolName, "not allowed by tool policy"), startTime)
	}

	if !e.limiter.TryAcquire(execCtx.UserID, toolName, def.RateLimit) {
		retryAfter := e.limiter.RetryAfter(execCtx.UserID, toolName)
		logger.Warn().
			Int("limit", def.RateLimit).
			Dur("retry_after", retryAfter).
			Msg("Tool execution rate limited")
		return failure(newRateLimitError(toolName, def.RateLimit, int((retryAfter+time.Second-1)/time.Second)), startTime)
	}

	validated, fields := entry.schema.Validate(params)
	if len(fields) > 0 {
		err := newValidationError(toolName, fields)
		logger.Error().Err(err).Msg("Parameter validation failed")
		return failure(err, startTime)
	}

	logger.Debug().Str("execution_id", execCtx.ExecutionID).Msg("Executing tool")

	return e.invoke(ctx, def, validated, execCtx, startTime)
}

type handlerOutcome struct {
	value interface{}
	err   error
}

// invoke races the handler against the tool timeout. The losing handler is
// not stopped; its context is cancelled and its late result dropped.
func (e *Engine) invoke(ctx context.Context, def ToolDefinition, params map[string]interface{}, execCtx *ExecutionContext, startTime time.Time) ExecutionResult {
	handlerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	scoped := *execCtx
	handlerCtx = ContextWithExecContext(handlerCtx, &scoped)
	handlerCtx, counters := withResourceCounters(handlerCtx)

	done := make(chan handlerOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("tool", def.Name).
					Str("execution_id", execCtx.ExecutionID).
					Interface("panic", r).
					Msg("Tool handler panicked")
				done <- handlerOutcome{err: errHandlerPanic}
			}
		}()
		value, err := def.Handler(handlerCtx, params)
		done <- handlerOutcome{value: value, err: err}
	}()

	timer := time.NewTimer(def.Timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		duration := time.Since(startTime)
		resources := ResourceMetrics{
			CPUTime:      duration,
			MemoryBytes:  heapSnapshot(),
			NetworkCalls: counters.networkCalls.Load(),
			StorageOps:   counters.storageOps.Load(),
		}

		if out.err != nil {
			log.Error().
				Str("tool", def.Name).
				Dur("duration", duration).
				Err(out.err).
				Msg("Tool execution failed")
			result := failure(newHandlerError(def.Name, out.err), startTime)
			result.Resources = resources
			return result
		}

		log.Debug().
			Str("tool", def.Name).
			Dur("duration", duration).
			Msg("Tool execution completed")

		return ExecutionResult{
			Success:   true,
			Result:    out.value,
			Duration:  duration,
			Resources: resources,
		}

	case <-timer.C:
		log.Error().
			Str("tool", def.Name).
			Dur("timeout", def.Timeout).
			Msg("Tool execution timeout")
		return failure(&ToolError{
			Kind:    KindTimeout,
			Tool:    def.Name,
			Message: fmt.Sprintf("tool execution timeout after %v", def.Timeout),
		}, startTime)

	case <-ctx.Done():
		log.Warn().
			Str("tool", def.Name).
			Err(ctx.Err()).
			Msg("Tool execution cancelled")
		return failure(&ToolError{
			Kind:    KindTimeout,
			Tool:    def.Name,
			Message: fmt.Sprintf("tool execution cancelled: %v", ctx.Err()),
			Err:     ctx.Err(),
		}, startTime)
	}
}

func (e *Engine) publish(ctx context.Context, result ExecutionResult) {
	eventType := EventToolExecuted
	if !result.Success {
		eventType = EventToolError
	}
	snapshot := result
	e.events.Publish(Event{
		Type:        eventType,
		ToolName:    result.ToolName,
		UserID:      result.UserID,
		ExecutionID: result.ExecutionID,
		TraceID:     tracing.GetTraceID(ctx),
		DurationMs:  result.Duration.Milliseconds(),
		Success:     result.Success,
		ErrorKind:   result.ErrorKind,
		Result:      &snapshot,
	})
}

func failure(err *ToolError, startTime time.Time) ExecutionResult {
	return ExecutionResult{
		Success:   false,
		Error:     err.Error(),
		ErrorKind: err.Kind,
		Fields:    err.Fields,
		Duration:  time.Since(startTime),
	}
}

var heapSample = []metrics.Sample{{Name: "/memory/classes/heap/objects:bytes"}}

// heapSnapshot reads live heap bytes without stopping the world
func heapSnapshot() uint64 {
	samples := make([]metrics.Sample, len(heapSample))
	copy(samples, heapSample)
	metrics.Read(samples)
	if samples[0].Value.Kind() != metrics.KindUint64 {
		return 0
	}
	return samples[0].Value.Uint64()
}
