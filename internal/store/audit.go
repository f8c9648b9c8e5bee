package store

import (
	"context"
	"fmt"
	"time"
)

// ToolCall is one audited tool invocation.
type ToolCall struct {
	ID        int64
	CreatedAt time.Time
	SessionID string
	CallID    string
	Tool      string
	IsError   bool
	Duration  time.Duration
	Preview   string
}

// ToolCallLog records tool invocations. It never stores conversation text
// beyond a short result preview.
type ToolCallLog struct {
	db *DB
}

func NewToolCallLog(db *DB) *ToolCallLog {
	return &ToolCallLog{db: db}
}

// Record inserts one entry. CreatedAt defaults to now.
func (l *ToolCallLog) Record(ctx context.Context, c ToolCall) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO tool_calls (created_at, session_id, call_id, tool, is_error, duration_ms, preview)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.CreatedAt.UnixMilli(), c.SessionID, c.CallID, c.Tool, c.IsError, c.Duration.Milliseconds(), c.Preview,
	)
	if err != nil {
		return fmt.Errorf("record tool call: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. An empty sessionID
// matches every session.
func (l *ToolCallLog) Recent(ctx context.Context, sessionID string, limit int) ([]ToolCall, error) {
	query := "SELECT id, created_at, session_id, call_id, tool, is_error, duration_ms, preview FROM tool_calls"
	args := []any{}
	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ToolCall
	for rows.Next() {
		var (
			c  ToolCall
			at int64
			ms int64
		)
		if err := rows.Scan(&c.ID, &at, &c.SessionID, &c.CallID, &c.Tool, &c.IsError, &ms, &c.Preview); err != nil {
			return nil, err
		}
		c.CreatedAt = time.UnixMilli(at)
		c.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, c)
	}
	return out, rows.Err()
}

// Cleanup deletes entries older than maxAge and reports how many went.
func (l *ToolCallLog) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	res, err := l.db.ExecContext(ctx, "DELETE FROM tool_calls WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup by age: %w", err)
	}
	return res.RowsAffected()
}

// Ping reports whether the database answers.
func (l *ToolCallLog) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
