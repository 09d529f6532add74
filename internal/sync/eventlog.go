// Package syncx keeps an append-only log of essay lifecycle events. Offsets
// grow monotonically so readers can resume from the last offset they saw.
package syncx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

const (
	TypeSubmitted     = "essay.submitted"
	TypeGraded        = "essay.graded"
	TypeManualGrade   = "essay.manual_grade"
	TypeReturned      = "essay.returned"
	TypeGradingFailed = "essay.grading_failed"
	TypeStaleReverted = "essay.stale_reverted"
)

type Event struct {
	Offset    int64     `json:"offset"`
	EssayID   string    `json:"essay_id"`
	Type      string    `json:"type"`
	ActorID   string    `json:"actor_id,omitempty"`
	DataJSON  string    `json:"data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Log interface {
	Append(ctx context.Context, e Event) error
	// List returns events of one essay (all essays when essayID is empty)
	// with an offset greater than after, oldest first.
	List(ctx context.Context, essayID string, after int64, limit int) ([]Event, error)
}

/* ---------------- sql ---------------- */

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (essay_id, typ, actor_id, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.EssayID, e.Type, e.ActorID, e.DataJSON, e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (r *EventRepo) List(ctx context.Context, essayID string, after int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT offset_id, essay_id, typ, actor_id, data, created_at FROM event_log WHERE offset_id > $1`
	args := []any{after}
	if essayID != "" {
		q += ` AND essay_id = $2`
		args = append(args, essayID)
	}
	q += fmt.Sprintf(` ORDER BY offset_id LIMIT %d`, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		var created int64
		if err := rows.Scan(&e.Offset, &e.EssayID, &e.Type, &e.ActorID, &e.DataJSON, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

/* ---------------- memory ---------------- */

type MemoryLog struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryLog() *MemoryLog { return &MemoryLog{} }

func (m *MemoryLog) Append(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.Offset = int64(len(m.events) + 1)
	e.CreatedAt = e.CreatedAt.UTC()
	m.events = append(m.events, e)
	return nil
}

func (m *MemoryLog) List(_ context.Context, essayID string, after int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Event{}
	for _, e := range m.events {
		if e.Offset <= after || (essayID != "" && e.EssayID != essayID) {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
