package toolexecutor

import (
	"context"
	"sync/atomic"
)

type execContextKey struct{}

type resourceCounterKey struct{}

type resourceCounters struct {
	networkCalls atomic.Int64
	storageOps   atomic.Int64
}

// ContextWithExecContext attaches the execution context to a context.Context for tool handlers.
func ContextWithExecContext(ctx context.Context, execCtx *ExecutionContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if execCtx == nil {
		return ctx
	}
	return context.WithValue(ctx, execContextKey{}, execCtx)
}

// ExecContextFromContext extracts the execution context from a context.Context.
func ExecContextFromContext(ctx context.Context) *ExecutionContext {
	if ctx == nil {
		return nil
	}
	if v := ctx.Value(execContextKey{}); v != nil {
		if execCtx, ok := v.(*ExecutionContext); ok {
			return execCtx
		}
	}
	return nil
}

func withResourceCounters(ctx context.Context) (context.Context, *resourceCounters) {
	counters := &resourceCounters{}
	return context.WithValue(ctx, resourceCounterKey{}, counters), counters
}

func countersFromContext(ctx context.Context) *resourceCounters {
	if ctx == nil {
		return nil
	}
	counters, _ := ctx.Value(resourceCounterKey{}).(*resourceCounters)
	return counters
}

// ReportNetworkCall lets a handler count an outbound network call against its execution.
// It is a no-op outside the engine.
func ReportNetworkCall(ctx context.Context) {
	if counters := countersFromContext(ctx); counters != nil {
		counters.networkCalls.Add(1)
	}
}

// ReportStorageOp lets a handler count a storage operation against its execution.
func ReportStorageOp(ctx context.Context) {
	if counters := countersFromContext(ctx); counters != nil {
		counters.storageOps.Add(1)
	}
}
