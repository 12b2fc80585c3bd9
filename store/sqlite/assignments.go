package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jcvera13/radiology-worklist/types"
)

// AssignmentLog is the SQLite-backed types.AssignmentLog. Rows carry a
// monotonic sequence number so queries return records in true append order
// even when assignment timestamps collide.
type AssignmentLog struct {
	db *DB
}

// Compile-time assertion that AssignmentLog implements types.AssignmentLog.
var _ types.AssignmentLog = (*AssignmentLog)(nil)

func (l *AssignmentLog) Append(ctx context.Context, record *types.AssignmentRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	_, err := l.db.conn.ExecContext(ctx, `
		INSERT INTO assignments (id, item_id, worker_id, mechanism, load_after, assigned_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM assignments))`,
		record.ID, record.ItemID, record.WorkerID, string(record.Mechanism),
		record.LoadAfter, formatTime(record.AssignedAt),
	)
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}

	return nil
}

func (l *AssignmentLog) ByItem(ctx context.Context, itemID string) ([]*types.AssignmentRecord, error) {
	return l.list(ctx, `
		SELECT id, item_id, worker_id, mechanism, load_after, assigned_at
		FROM assignments WHERE item_id = ? ORDER BY seq`, itemID)
}

func (l *AssignmentLog) ByWorker(ctx context.Context, workerID string) ([]*types.AssignmentRecord, error) {
	return l.list(ctx, `
		SELECT id, item_id, worker_id, mechanism, load_after, assigned_at
		FROM assignments WHERE worker_id = ? ORDER BY seq`, workerID)
}

func (l *AssignmentLog) All(ctx context.Context) ([]*types.AssignmentRecord, error) {
	return l.list(ctx, `
		SELECT id, item_id, worker_id, mechanism, load_after, assigned_at
		FROM assignments ORDER BY seq`)
}

func (l *AssignmentLog) list(ctx context.Context, query string, args ...any) ([]*types.AssignmentRecord, error) {
	rows, err := l.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	records := make([]*types.AssignmentRecord, 0)
	for rows.Next() {
		var (
			r          types.AssignmentRecord
			mechanism  string
			assignedAt string
		)
		if err := rows.Scan(&r.ID, &r.ItemID, &r.WorkerID, &mechanism, &r.LoadAfter, &assignedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}

		r.Mechanism = types.Mechanism(mechanism)
		if r.AssignedAt, err = parseTime(assignedAt); err != nil {
			return nil, fmt.Errorf("parse assigned_at: %w", err)
		}
		records = append(records, &r)
	}

	return records, rows.Err()
}
