// Package audit writes a JSON lines trail of registrations, executions and
// denied calls.
package audit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/harun/toolgate/pkg/toolexecutor"
	"github.com/rs/zerolog"
)

// Event types
const (
	TypeTool     = "tool"
	TypeSecurity = "security"
	TypeConfig   = "config"
)

// Event is one audit record
type Event struct {
	Type      string                 `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Actor     string                 `json:"actor,omitempty"` // user ID
	Action    string                 `json:"action"`          // e.g. "execute:echo"
	Status    string                 `json:"status"`          // "success", "failure", "denied"
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
}

// Logger records audit events
type Logger struct {
	logger zerolog.Logger
	mu     sync.Mutex
	file   *os.File
}

// New writes audit events to w
func New(w io.Writer) *Logger {
	return &Logger{logger: zerolog.New(w)}
}

// Open appends audit events to the file at path
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	l := New(file)
	l.file = file
	return l, nil
}

// Record writes one event
func (l *Logger) Record(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.logger.Log().
		Str("event_type", event.Type).
		Time("timestamp", event.Timestamp).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("status", event.Status)
	if event.TraceID != "" {
		entry.Str("trace_id", event.TraceID)
	}
	if event.Metadata != nil {
		entry.Interface("metadata", event.Metadata)
	}

	entry.Send()
}

// Close closes the audit file, if any
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Watch records every engine event. Authorization and rate limit failures
// are recorded as security denials.
func (l *Logger) Watch(engine *toolexecutor.Engine) {
	engine.On(toolexecutor.EventAll, func(e toolexecutor.Event) {
		l.Record(FromEngineEvent(e))
	})
}

// FromEngineEvent maps an engine event to its audit record
func FromEngineEvent(e toolexecutor.Event) Event {
	if e.Type == toolexecutor.EventToolRegistered {
		return Event{
			Type:     TypeConfig,
			Action:   "register:" + e.ToolName,
			Status:   "success",
			Metadata: e.Data,
		}
	}

	event := Event{
		Type:    TypeTool,
		Actor:   e.UserID,
		Action:  "execute:" + e.ToolName,
		Status:  "success",
		TraceID: e.TraceID,
		Metadata: map[string]interface{}{
			"execution_id": e.ExecutionID,
			"duration_ms":  e.DurationMs,
		},
	}
	if e.Success {
		return event
	}

	event.Status = "failure"
	event.Metadata["error_kind"] = string(e.ErrorKind)
	switch e.ErrorKind {
	case toolexecutor.KindAuthorization, toolexecutor.KindRateLimit:
		event.Type = TypeSecurity
		event.Status = "denied"
	}
	return event
}
