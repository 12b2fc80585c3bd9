package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jcvera13/radiology-worklist/types"
)

// ItemStore is the SQLite-backed types.ItemStore.
//
// Transitions are single conditional UPDATE statements guarded on the current
// status, so each one applies exactly one state-machine edge no matter how
// many callers race. A zero-row update is disambiguated with a follow-up read:
// missing row means ErrItemNotFound, wrong status means ErrPreconditionFailed.
type ItemStore struct {
	db *DB
}

// Compile-time assertion that ItemStore implements types.ItemStore.
var _ types.ItemStore = (*ItemStore)(nil)

const itemColumns = `id, ref_code, type_code, weight, urgency, skill, status,
	assigned_to, locked_by, locked_at, completed_at, created_at, updated_at`

func (s *ItemStore) Create(ctx context.Context, item *types.Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	now := time.Now()
	item.Status = types.StatusPending
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO items (id, ref_code, type_code, weight, urgency, skill, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.RefCode, item.TypeCode, item.Weight, item.Urgency, item.Skill,
		string(item.Status), formatTime(now), formatTime(now),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: items.ref_code") {
			return fmt.Errorf("%w: %s", types.ErrDuplicateRef, item.RefCode)
		}

		return fmt.Errorf("insert item: %w", err)
	}

	return nil
}

func (s *ItemStore) Get(ctx context.Context, id string) (*types.Item, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrItemNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return item, nil
}

func (s *ItemStore) ListAll(ctx context.Context) ([]*types.Item, error) {
	return s.list(ctx, `SELECT `+itemColumns+` FROM items ORDER BY created_at DESC, id DESC`)
}

func (s *ItemStore) ListByWorker(ctx context.Context, workerID string) ([]*types.Item, error) {
	return s.list(ctx,
		`SELECT `+itemColumns+` FROM items WHERE assigned_to = ? ORDER BY created_at DESC, id DESC`,
		workerID)
}

func (s *ItemStore) ListByStatus(ctx context.Context, status types.ItemStatus) ([]*types.Item, error) {
	return s.list(ctx,
		`SELECT `+itemColumns+` FROM items WHERE status = ? ORDER BY created_at DESC, id DESC`,
		string(status))
}

func (s *ItemStore) Assign(ctx context.Context, id, workerID string) error {
	return s.transition(ctx, id, `
		UPDATE items SET status = 'assigned', assigned_to = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		workerID, formatTime(time.Now()), id)
}

func (s *ItemStore) Lock(ctx context.Context, id, holderID string, at time.Time) error {
	return s.transition(ctx, id, `
		UPDATE items SET status = 'locked', locked_by = ?, locked_at = ?, updated_at = ?
		WHERE id = ? AND status = 'assigned'`,
		holderID, formatTime(at), formatTime(at), id)
}

func (s *ItemStore) Unlock(ctx context.Context, id string) error {
	return s.transition(ctx, id, `
		UPDATE items SET status = 'assigned', locked_by = NULL, locked_at = NULL, updated_at = ?
		WHERE id = ? AND status = 'locked'`,
		formatTime(time.Now()), id)
}

func (s *ItemStore) Complete(ctx context.Context, id string, at time.Time) error {
	return s.transition(ctx, id, `
		UPDATE items SET status = 'completed', locked_by = NULL, locked_at = NULL,
			completed_at = ?, updated_at = ?
		WHERE id = ? AND status IN ('assigned', 'locked')`,
		formatTime(at), formatTime(at), id)
}

func (s *ItemStore) transition(ctx context.Context, id, query string, args ...any) error {
	result, err := s.db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if count > 0 {
		return nil
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	return fmt.Errorf("%w: item %s is %s", types.ErrPreconditionFailed, id, item.Status)
}

func (s *ItemStore) list(ctx context.Context, query string, args ...any) ([]*types.Item, error) {
	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := make([]*types.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func scanItem(row rowScanner) (*types.Item, error) {
	var (
		item                  types.Item
		status                string
		assignedTo, lockedBy  sql.NullString
		lockedAt, completedAt sql.NullString
		createdAt, updatedAt  string
	)

	err := row.Scan(&item.ID, &item.RefCode, &item.TypeCode, &item.Weight, &item.Urgency,
		&item.Skill, &status, &assignedTo, &lockedBy, &lockedAt, &completedAt,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("scan item: %w", err)
	}

	item.Status = types.ItemStatus(status)
	item.AssignedTo = assignedTo.String
	item.LockedBy = lockedBy.String
	item.LockedAt = parseNullableTime(lockedAt)
	item.CompletedAt = parseNullableTime(completedAt)
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &item, nil
}
