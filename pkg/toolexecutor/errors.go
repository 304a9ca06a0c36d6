package toolexecutor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why an execution or registration failed
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindNotFound      ErrorKind = "not_found"
	KindAuthorization ErrorKind = "authorization"
	KindRateLimit     ErrorKind = "rate_limit"
	KindValidation    ErrorKind = "validation"
	KindTimeout       ErrorKind = "timeout"
	KindHandler       ErrorKind = "handler"
)

// Sentinel errors matched by errors.Is against a *ToolError of the same kind.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("tool not found")
	ErrAuthorization = errors.New("access denied")
	ErrRateLimit     = errors.New("rate limit exceeded")
	ErrValidation    = errors.New("parameter validation failed")
	ErrTimeout       = errors.New("tool execution timeout")
	ErrHandler       = errors.New("tool handler failed")
)

var sentinels = map[ErrorKind]error{
	KindConfiguration: ErrConfiguration,
	KindNotFound:      ErrNotFound,
	KindAuthorization: ErrAuthorization,
	KindRateLimit:     ErrRateLimit,
	KindValidation:    ErrValidation,
	KindTimeout:       ErrTimeout,
	KindHandler:       ErrHandler,
}

// FieldError is a single schema violation
type FieldError struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// ToolError is the structured error for every failure the engine reports
type ToolError struct {
	Kind    ErrorKind
	Tool    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *ToolError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if sentinel, ok := sentinels[e.Kind]; ok {
		return sentinel.Error()
	}
	return string(e.Kind)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error for the same kind
func (e *ToolError) Is(target error) bool {
	sentinel, ok := sentinels[e.Kind]
	return ok && sentinel == target
}

// KindOf returns the ErrorKind carried by err, or "" if err is not a *ToolError
func KindOf(err error) ErrorKind {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Kind
	}
	return ""
}

func newConfigurationError(format string, args ...interface{}) *ToolError {
	return &ToolError{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

func newNotFoundError(toolName string) *ToolError {
	return &ToolError{
		Kind:    KindNotFound,
		Tool:    toolName,
		Message: fmt.Sprintf("tool not found: %s", toolName),
	}
}

func newAuthorizationError(toolName string, reason string) *ToolError {
	return &ToolError{
		Kind:    KindAuthorization,
		Tool:    toolName,
		Message: fmt.Sprintf("access denied to tool '%s': %s", toolName, reason),
	}
}

func newRateLimitError(toolName string, limit int, retryAfterSec int) *ToolError {
	return &ToolError{
		Kind:    KindRateLimit,
		Tool:    toolName,
		Message: fmt.Sprintf("rate limit exceeded for tool '%s': %d calls per minute, retry after %ds", toolName, limit, retryAfterSec),
	}
}

func newValidationError(toolName string, fields []FieldError) *ToolError {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Description))
	}
	return &ToolError{
		Kind:    KindValidation,
		Tool:    toolName,
		Message: fmt.Sprintf("parameter validation failed: %s", strings.Join(parts, "; ")),
		Fields:  fields,
	}
}

func newHandlerError(toolName string, err error) *ToolError {
	return &ToolError{
		Kind:    KindHandler,
		Tool:    toolName,
		Message: err.Error(),
		Err:     err,
	}
}
