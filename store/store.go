// Package store persists a log of completed relay requests in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"n8n2api/logger"
)

// RequestLog wraps the SQLite request log database
type RequestLog struct {
	conn *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS request_logs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    user_email  TEXT NOT NULL,
    model       TEXT NOT NULL,
    stream      INTEGER NOT NULL,
    outcome     TEXT NOT NULL,
    duration_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_request_logs_created ON request_logs(created_at);
CREATE INDEX IF NOT EXISTS idx_request_logs_email   ON request_logs(user_email);
`

// Entry 一次已完成转发的记录
type Entry struct {
	UserEmail string
	Model     string
	Stream    bool
	Outcome   string
	Duration  time.Duration
}

// Open creates the SQLite request log and initializes the schema
func Open(path string) (*RequestLog, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open request log: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize request log schema: %w", err)
	}

	return &RequestLog{conn: conn}, nil
}

// Record inserts one completed request. Failures are logged, never surfaced:
// the request log must not affect the relay itself.
func (rl *RequestLog) Record(e Entry) {
	stream := 0
	if e.Stream {
		stream = 1
	}
	_, err := rl.conn.Exec(
		`INSERT INTO request_logs (user_email, model, stream, outcome, duration_ms) VALUES (?, ?, ?, ?, ?)`,
		e.UserEmail, e.Model, stream, e.Outcome, e.Duration.Milliseconds(),
	)
	if err != nil {
		logger.Error("❌ 写入请求日志失败: %v", err)
	}
}

// CountSince returns the number of requests recorded after the given time.
func (rl *RequestLog) CountSince(t time.Time) (int64, error) {
	var n int64
	err := rl.conn.QueryRow(
		`SELECT COUNT(*) FROM request_logs WHERE created_at >= ?`, t.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count request logs: %w", err)
	}
	return n, nil
}

// Close closes the underlying database
func (rl *RequestLog) Close() error {
	if rl.conn != nil {
		return rl.conn.Close()
	}
	return nil
}
