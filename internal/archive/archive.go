// Package archive persists execution results to sqlite so history and
// statistics survive the process. The tool catalog itself is never stored.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harun/toolgate/pkg/toolexecutor"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// ExecutionRecord is one archived execution
type ExecutionRecord struct {
	ExecutionID string
	ToolName    string
	UserID      string
	Success     bool
	ErrorKind   string
	Error       string
	DurationMs  int64
	CreatedAt   time.Time
}

// Store is a sqlite-backed execution archive
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive at path
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("archive path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS executions (
			execution_id TEXT PRIMARY KEY,
			tool_name TEXT NOT NULL,
			user_id TEXT NOT NULL,
			success INTEGER NOT NULL,
			error_kind TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_executions_created ON executions(created_at);
		CREATE INDEX IF NOT EXISTS idx_executions_user_tool ON executions(user_id, tool_name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores one execution. Re-recording an execution ID is a no-op.
func (s *Store) Record(ctx context.Context, rec ExecutionRecord) error {
	if rec.ExecutionID == "" {
		return errors.New("execution id is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO executions
			(execution_id, tool_name, user_id, success, error_kind, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ExecutionID, rec.ToolName, rec.UserID, rec.Success,
		rec.ErrorKind, rec.Error, rec.DurationMs, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record execution %s: %w", rec.ExecutionID, err)
	}
	return nil
}

// Recent returns up to limit executions, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]ExecutionRecord, error) {
	return s.query(ctx, `
		SELECT execution_id, tool_name, user_id, success, error_kind, error, duration_ms, created_at
		FROM executions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
}

// RecentFor returns up to limit executions of one (user, tool) key, newest first
func (s *Store) RecentFor(ctx context.Context, userID, toolName string, limit int) ([]ExecutionRecord, error) {
	return s.query(ctx, `
		SELECT execution_id, tool_name, user_id, success, error_kind, error, duration_ms, created_at
		FROM executions
		WHERE user_id = ? AND tool_name = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, userID, toolName, limit)
}

func (s *Store) query(ctx context.Context, query string, args ...interface{}) ([]ExecutionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var records []ExecutionRecord
	for rows.Next() {
		var rec ExecutionRecord
		var createdAt int64
		if err := rows.Scan(&rec.ExecutionID, &rec.ToolName, &rec.UserID, &rec.Success,
			&rec.ErrorKind, &rec.Error, &rec.DurationMs, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		rec.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountByTool returns the number of archived executions per tool
func (s *Store) CountByTool(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tool_name, COUNT(*) FROM executions GROUP BY tool_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to count executions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// FromResult converts an execution result into an archive record
func FromResult(result toolexecutor.ExecutionResult) ExecutionRecord {
	return ExecutionRecord{
		ExecutionID: result.ExecutionID,
		ToolName:    result.ToolName,
		UserID:      result.UserID,
		Success:     result.Success,
		ErrorKind:   string(result.ErrorKind),
		Error:       result.Error,
		DurationMs:  result.Duration.Milliseconds(),
		CreatedAt:   result.Timestamp,
	}
}

// Sink subscribes the store to the engine's execution events. Write
// failures are logged; they never affect the execution result.
func (s *Store) Sink(engine *toolexecutor.Engine) {
	handler := func(event toolexecutor.Event) {
		if event.Result == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.Record(ctx, FromResult(*event.Result)); err != nil {
			log.Error().Err(err).Str("tool", event.ToolName).Msg("Failed to archive execution")
		}
	}
	engine.On(toolexecutor.EventToolExecuted, handler)
	engine.On(toolexecutor.EventToolError, handler)
}
