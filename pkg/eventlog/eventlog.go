// Package eventlog provides the append-only audit log for warden
// operations: lock acquisitions and releases, force releases, escalations,
// and document-recovery events. Writes are best-effort at call sites; the
// coordination outcome never depends on the audit write succeeding.
package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Event types recorded by the lock manager and coordinator.
const (
	TypeAcquire      = "acquire"
	TypeRelease      = "release"
	TypeExpire       = "expire"
	TypeQueue        = "queue"
	TypeDomainLock   = "domain_acquire"
	TypeDomainUnlock = "domain_release"
	TypeForceRelease = "force_release"
	TypeReleaseAll   = "release_all"
	TypeBroadcast    = "broadcast"
	TypeEscalation   = "escalation"
	TypeAssign       = "assign"
	TypeFailure      = "worker_failure"
	TypeComplete     = "workflow_complete"
	TypeDocRecovered = "document_recovered"
)

// Event is a single row from the events table.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	AgentID   string    `json:"agent_id"`
	Subject   string    `json:"subject"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// QueryOpts filters audit queries.
type QueryOpts struct {
	// AgentID filters events to a specific agent.
	AgentID string
	// EventType filters to a specific event type.
	EventType string
	// After / Before bound created_at (inclusive).
	After  *time.Time
	Before *time.Time
	// Limit restricts the number of results (0 = no limit).
	Limit int
}

// Log appends and queries audit events on a shared *sql.DB.
type Log struct {
	db *sql.DB
}

// New wraps an already-opened database. The caller owns db.
func New(db *sql.DB) *Log {
	return &Log{db: db}
}

// Record appends one audit event. Subject names what was acted on (a
// module, domain, lock id, or manager id); detail is free-form context.
func (l *Log) Record(ctx context.Context, typ, agentID, subject, detail string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO events (type, agent_id, subject, detail) VALUES (?, ?, ?, ?)`,
		typ, agentID, subject, detail)
	if err != nil {
		return fmt.Errorf("record event %s: %w", typ, err)
	}
	return nil
}

// Query retrieves events matching opts, newest first.
func (l *Log) Query(ctx context.Context, opts QueryOpts) ([]Event, error) {
	query, args := buildQuery(opts)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var agentID, subject, detail sql.NullString
		var createdAtStr string
		if err := rows.Scan(&e.ID, &e.Type, &agentID, &subject, &detail, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.AgentID = agentID.String
		e.Subject = subject.String
		e.Detail = detail.String

		// SQLite datetime('now') produces "2006-01-02 15:04:05"; accept
		// RFC3339 as a fallback for rows written by other tools.
		if createdAtStr != "" {
			parsed, err := time.Parse("2006-01-02 15:04:05", createdAtStr)
			if err != nil {
				parsed, err = time.Parse(time.RFC3339, createdAtStr)
				if err != nil {
					return nil, fmt.Errorf("parse created_at: %w", err)
				}
			}
			e.CreatedAt = parsed
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// buildQuery constructs the SQL query and arguments from QueryOpts.
func buildQuery(opts QueryOpts) (string, []any) {
	var conditions []string
	var args []any

	query := "SELECT id, type, agent_id, subject, detail, created_at FROM events WHERE 1=1"

	if opts.AgentID != "" {
		conditions = append(conditions, "agent_id = ?")
		args = append(args, opts.AgentID)
	}
	if opts.EventType != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, opts.EventType)
	}
	if opts.After != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, opts.After.UTC().Format("2006-01-02 15:04:05"))
	}
	if opts.Before != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, opts.Before.UTC().Format("2006-01-02 15:04:05"))
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY id DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	return query, args
}
