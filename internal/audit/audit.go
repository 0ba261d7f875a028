// ABOUTME: SQLite-backed audit log of tool invocations using modernc.org/sqlite
// ABOUTME: Records tool name, correlation ID, duration, and outcome per call

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/azernov/modx-proxy/internal/mcp"
)

// Entry is one recorded tool invocation.
type Entry struct {
	ID        string
	RequestID string
	Tool      string
	Duration  time.Duration
	IsError   bool
	Timestamp time.Time
}

// Log persists tool invocation records to SQLite. It implements mcp.AuditSink.
type Log struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens (or creates) the audit database at the given path.
// Parent directories are created if needed.
func New(path string, logger *slog.Logger) (*Log, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	// WAL keeps writers from blocking the occasional reader
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	l := &Log{
		db:     db,
		logger: logger.With("component", "audit"),
	}

	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return l, nil
}

func (l *Log) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tool_calls (
			call_id     TEXT PRIMARY KEY,
			request_id  TEXT NOT NULL,
			tool        TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			is_error    INTEGER NOT NULL,
			ts          TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tool_calls_ts ON tool_calls(ts);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("creating audit schema: %w", err)
	}
	return nil
}

// RecordCall appends one invocation record.
func (l *Log) RecordCall(ctx context.Context, rec mcp.CallRecord) error {
	isError := 0
	if rec.IsError {
		isError = 1
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO tool_calls (call_id, request_id, tool, duration_ms, is_error, ts)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(),
		rec.RequestID,
		rec.Tool,
		rec.Duration.Milliseconds(),
		isError,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting audit record: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT call_id, request_id, tool, duration_ms, is_error, ts
		 FROM tool_calls ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMS int64
		var isError int
		var ts string
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Tool, &durationMS, &isError, &ts); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.IsError = isError == 1
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.Timestamp = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}
