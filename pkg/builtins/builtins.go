// Package builtins provides a small set of tools that ship with toolgate.
package builtins

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harun/toolgate/pkg/toolexecutor"
)

// maxSleep bounds the sleep tool argument
const maxSleep = 10 * time.Minute

// Registrar is satisfied by *toolexecutor.Engine
type Registrar interface {
	RegisterTool(def toolexecutor.ToolDefinition) error
}

// RegisterAll registers every built-in tool
func RegisterAll(r Registrar) error {
	if r == nil {
		return errors.New("registrar is required")
	}

	tools := []toolexecutor.ToolDefinition{
		EchoTool(),
		CurrentTimeTool(),
		SleepTool(),
		SumTool(),
	}

	for _, tool := range tools {
		if err := r.RegisterTool(tool); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", tool.Name, err)
		}
	}
	return nil
}

// EchoTool returns its arguments unchanged
func EchoTool() toolexecutor.ToolDefinition {
	return toolexecutor.ToolDefinition{
		Name:        "echo",
		Description: "Return the message back to the caller.",
		Category:    toolexecutor.CategoryGeneral,
		Parameters: []toolexecutor.ToolParameter{
			{Name: "message", Type: "string", Description: "Message to echo", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return params, nil
		},
	}
}

// CurrentTimeTool reports the current time in an IANA timezone
func CurrentTimeTool() toolexecutor.ToolDefinition {
	return toolexecutor.ToolDefinition{
		Name:        "current_time",
		Description: "Get the current time, optionally in an IANA timezone such as Europe/Berlin.",
		Category:    toolexecutor.CategoryRead,
		Parameters: []toolexecutor.ToolParameter{
			{Name: "timezone", Type: "string", Description: "IANA timezone name", Default: "UTC"},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			name, _ := params["timezone"].(string)
			loc, err := time.LoadLocation(name)
			if err != nil {
				return nil, fmt.Errorf("unknown timezone %q", name)
			}

			now := time.Now().In(loc)
			return map[string]interface{}{
				"time":     now.Format(time.RFC3339),
				"timezone": loc.String(),
				"unix":     now.Unix(),
			}, nil
		},
	}
}

// SleepTool waits for the requested duration, returning early on cancellation.
// It needs enhanced access since it holds a worker for up to ten minutes.
func SleepTool() toolexecutor.ToolDefinition {
	maxMs := float64(maxSleep.Milliseconds())
	minMs := 0.0

	return toolexecutor.ToolDefinition{
		Name:          "sleep",
		Description:   "Sleep for the given number of milliseconds.",
		Category:      toolexecutor.CategoryGeneral,
		SecurityLevel: toolexecutor.LevelEnhanced,
		RateLimit:     10,
		Timeout:       maxSleep + time.Second,
		Parameters: []toolexecutor.ToolParameter{
			{Name: "ms", Type: "integer", Description: "Milliseconds to sleep", Required: true, Minimum: &minMs, Maximum: &maxMs},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			d, err := millis(params["ms"])
			if err != nil {
				return nil, err
			}

			timer := time.NewTimer(d)
			defer timer.Stop()

			select {
			case <-timer.C:
				return map[string]interface{}{"slept_ms": d.Milliseconds()}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
}

func millis(v interface{}) (time.Duration, error) {
	switch n := v.(type) {
	case int:
		return time.Duration(n) * time.Millisecond, nil
	case int64:
		return time.Duration(n) * time.Millisecond, nil
	case float64:
		return time.Duration(n) * time.Millisecond, nil
	default:
		return 0, fmt.Errorf("ms must be a number, got %T", v)
	}
}

type sumArgs struct {
	Numbers []float64 `json:"numbers"`
}

type sumResult struct {
	Sum   float64 `json:"sum"`
	Count int     `json:"count"`
}

// SumTool adds a list of numbers
func SumTool() toolexecutor.ToolDefinition {
	return toolexecutor.NewTypedTool(toolexecutor.ToolDefinition{
		Name:        "sum",
		Description: "Add a list of numbers.",
		Category:    toolexecutor.CategoryData,
		Parameters: []toolexecutor.ToolParameter{
			{
				Name:        "numbers",
				Type:        "array",
				Description: "Numbers to add",
				Required:    true,
				Items:       &toolexecutor.ToolParameter{Type: "number", Description: "A number"},
			},
		},
	}, func(ctx context.Context, args sumArgs) (sumResult, error) {
		result := sumResult{Count: len(args.Numbers)}
		for _, n := range args.Numbers {
			result.Sum += n
		}
		return result, nil
	})
}
