package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jcvera13/radiology-worklist/types"
)

// AuditLog is the SQLite-backed types.AuditSink, with a small query surface
// for operators.
type AuditLog struct {
	db *DB
}

// Compile-time assertion that AuditLog implements types.AuditSink.
var _ types.AuditSink = (*AuditLog)(nil)

// Audit returns the audit sink backed by this database.
func (db *DB) Audit() *AuditLog {
	return &AuditLog{db: db}
}

func (l *AuditLog) Record(ctx context.Context, entry types.AuditEntry) error {
	metadata := "{}"
	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = string(raw)
	}

	_, err := l.db.conn.ExecContext(ctx, `
		INSERT INTO audit_log (actor, action, resource_type, resource_id, context, metadata, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Actor, entry.Action, entry.ResourceType, entry.ResourceID,
		entry.Context, metadata, formatTime(entry.At),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// Recent returns the most recent n entries, newest-first.
func (l *AuditLog) Recent(ctx context.Context, n int) ([]types.AuditEntry, error) {
	return l.query(ctx, `
		SELECT actor, action, resource_type, resource_id, context, metadata, at
		FROM audit_log ORDER BY id DESC LIMIT ?`, n)
}

// ByActor returns the entries recorded for an actor, oldest-first.
func (l *AuditLog) ByActor(ctx context.Context, actor string) ([]types.AuditEntry, error) {
	return l.query(ctx, `
		SELECT actor, action, resource_type, resource_id, context, metadata, at
		FROM audit_log WHERE actor = ? ORDER BY id`, actor)
}

// ByResource returns the entries touching a resource, oldest-first.
func (l *AuditLog) ByResource(ctx context.Context, resourceType, resourceID string) ([]types.AuditEntry, error) {
	return l.query(ctx, `
		SELECT actor, action, resource_type, resource_id, context, metadata, at
		FROM audit_log WHERE resource_type = ? AND resource_id = ? ORDER BY id`,
		resourceType, resourceID)
}

// Stats returns entry counts per action.
func (l *AuditLog) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := l.db.conn.QueryContext(ctx,
		`SELECT action, COUNT(*) FROM audit_log GROUP BY action`)
	if err != nil {
		return nil, fmt.Errorf("query audit stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var (
			action string
			count  int
		)
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("scan audit stats: %w", err)
		}
		stats[action] = count
	}

	return stats, rows.Err()
}

func (l *AuditLog) query(ctx context.Context, query string, args ...any) ([]types.AuditEntry, error) {
	rows, err := l.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]types.AuditEntry, 0)
	for rows.Next() {
		var (
			e        types.AuditEntry
			metadata string
			at       string
		)
		if err := rows.Scan(&e.Actor, &e.Action, &e.ResourceType, &e.ResourceID, &e.Context, &metadata, &at); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		if metadata != "{}" {
			if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		if e.At, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("parse at: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
