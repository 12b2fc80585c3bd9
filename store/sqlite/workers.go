package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jcvera13/radiology-worklist/types"
)

// WorkerStore is the SQLite-backed types.WorkerStore.
type WorkerStore struct {
	db *DB
}

// Compile-time assertion that WorkerStore implements types.WorkerStore.
var _ types.WorkerStore = (*WorkerStore)(nil)

func (s *WorkerStore) Create(ctx context.Context, worker *types.Worker) error {
	if worker.ID == "" {
		worker.ID = uuid.NewString()
	}

	now := time.Now()
	worker.CreatedAt = now
	worker.UpdatedAt = now

	skills, err := json.Marshal(worker.Skills)
	if err != nil {
		return fmt.Errorf("marshal skills: %w", err)
	}

	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO workers (id, name, skills, ceiling, current_load, availability, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		worker.ID, worker.Name, string(skills), worker.Ceiling, worker.CurrentLoad,
		string(worker.Availability), formatTime(now), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("insert worker: %w", err)
	}

	return nil
}

func (s *WorkerStore) List(ctx context.Context) ([]*types.Worker, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, name, skills, ceiling, current_load, availability, created_at, updated_at
		FROM workers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query workers: %w", err)
	}
	defer rows.Close()

	workers := make([]*types.Worker, 0)
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}

	return workers, rows.Err()
}

func (s *WorkerStore) Get(ctx context.Context, id string) (*types.Worker, error) {
	row := s.db.conn.QueryRowContext(ctx, `
		SELECT id, name, skills, ceiling, current_load, availability, created_at, updated_at
		FROM workers WHERE id = ?`, id)

	w, err := scanWorker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrWorkerNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return w, nil
}

func (s *WorkerStore) SetAvailability(ctx context.Context, id string, availability types.Availability) error {
	result, err := s.db.conn.ExecContext(ctx, `
		UPDATE workers SET availability = ?, updated_at = ? WHERE id = ?`,
		string(availability), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update availability: %w", err)
	}

	return requireAffected(result, types.ErrWorkerNotFound, id)
}

func (s *WorkerStore) ChargeLoad(ctx context.Context, id string, amount float64) (float64, error) {
	// The single atomic statement returns the post-charge value; no
	// read-modify-write race is possible.
	row := s.db.conn.QueryRowContext(ctx, `
		UPDATE workers SET current_load = current_load + ?, updated_at = ?
		WHERE id = ? RETURNING current_load`,
		amount, formatTime(time.Now()), id)

	var load float64
	err := row.Scan(&load)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", types.ErrWorkerNotFound, id)
	}
	if err != nil {
		return 0, fmt.Errorf("charge load: %w", err)
	}

	return load, nil
}

func (s *WorkerStore) ResetLoad(ctx context.Context, id string) error {
	result, err := s.db.conn.ExecContext(ctx, `
		UPDATE workers SET current_load = 0, updated_at = ? WHERE id = ?`,
		formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("reset load: %w", err)
	}

	return requireAffected(result, types.ErrWorkerNotFound, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorker(row rowScanner) (*types.Worker, error) {
	var (
		w                    types.Worker
		skills               string
		availability         string
		createdAt, updatedAt string
	)

	err := row.Scan(&w.ID, &w.Name, &skills, &w.Ceiling, &w.CurrentLoad, &availability, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("scan worker: %w", err)
	}

	if err := json.Unmarshal([]byte(skills), &w.Skills); err != nil {
		return nil, fmt.Errorf("unmarshal skills: %w", err)
	}
	w.Availability = types.Availability(availability)
	if w.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if w.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &w, nil
}

func requireAffected(result sql.Result, notFound error, id string) error {
	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}

	return nil
}
