package toolexecutor

import (
	"context"
	"time"
)

// ToolParameter defines a parameter for a tool
type ToolParameter struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Required    bool            `json:"required"`
	Default     interface{}     `json:"default,omitempty"`
	Enum        []interface{}   `json:"enum,omitempty"`
	Minimum     *float64        `json:"minimum,omitempty"`
	Maximum     *float64        `json:"maximum,omitempty"`
	MinLength   *int            `json:"min_length,omitempty"`
	MaxLength   *int            `json:"max_length,omitempty"`
	Pattern     string          `json:"pattern,omitempty"`
	Items       *ToolParameter  `json:"items,omitempty"`      // element contract for arrays
	Properties  []ToolParameter `json:"properties,omitempty"` // nested contract for objects
}

// ToolHandler is the function signature for tool execution
type ToolHandler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// ToolDefinition defines a tool's metadata, limits and handler
type ToolDefinition struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Parameters    []ToolParameter `json:"parameters"`
	Category      ToolCategory    `json:"category"`
	SecurityLevel SecurityLevel   `json:"security_level"`
	RateLimit     int             `json:"rate_limit"` // max calls per rolling minute, 0 uses the engine default
	Timeout       time.Duration   `json:"timeout"`    // 0 uses the engine default
	Handler       ToolHandler     `json:"-"`
}

// ExecutionContext carries the caller metadata for one invocation.
// ExecutionID and StartTime are assigned by the engine.
type ExecutionContext struct {
	UserID        string
	SessionID     string
	ExecutionID   string
	StartTime     time.Time
	SecurityLevel SecurityLevel
	Role          string
	ToolPolicy    *ToolPolicy // optional narrowing on top of level checks
}

// ResourceMetrics describes what a single execution consumed
type ResourceMetrics struct {
	CPUTime      time.Duration `json:"cpu_time"`
	MemoryBytes  uint64        `json:"memory_bytes"`
	NetworkCalls int64         `json:"network_calls"`
	StorageOps   int64         `json:"storage_ops"`
}

// ExecutionResult represents the outcome of a tool execution.
// Exactly one of Result and Error is populated.
type ExecutionResult struct {
	Success     bool            `json:"success"`
	Result      interface{}     `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	ErrorKind   ErrorKind       `json:"error_kind,omitempty"`
	Fields      []FieldError    `json:"fields,omitempty"` // validation failures only
	ToolName    string          `json:"tool_name"`
	UserID      string          `json:"user_id"`
	ExecutionID string          `json:"execution_id,omitempty"`
	Duration    time.Duration   `json:"duration"`
	Resources   ResourceMetrics `json:"resources"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Err returns the failure as a *ToolError, or nil for successful results.
func (r ExecutionResult) Err() error {
	if r.Success {
		return nil
	}
	return &ToolError{
		Kind:    r.ErrorKind,
		Tool:    r.ToolName,
		Message: r.Error,
		Fields:  append([]FieldError(nil), r.Fields...),
	}
}
