package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jcvera13/radiology-worklist/types"
)

// AssignmentLog is an in-memory append-only types.AssignmentLog.
type AssignmentLog struct {
	mu      sync.Mutex
	records []*types.AssignmentRecord
}

// Compile-time assertion that AssignmentLog implements types.AssignmentLog.
var _ types.AssignmentLog = (*AssignmentLog)(nil)

// NewAssignmentLog creates an empty assignment log.
func NewAssignmentLog() *AssignmentLog {
	return &AssignmentLog{}
}

func (l *AssignmentLog) Append(_ context.Context, record *types.AssignmentRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	stored := *record
	l.records = append(l.records, &stored)

	return nil
}

func (l *AssignmentLog) ByItem(_ context.Context, itemID string) ([]*types.AssignmentRecord, error) {
	return l.filter(func(r *types.AssignmentRecord) bool { return r.ItemID == itemID }), nil
}

func (l *AssignmentLog) ByWorker(_ context.Context, workerID string) ([]*types.AssignmentRecord, error) {
	return l.filter(func(r *types.AssignmentRecord) bool { return r.WorkerID == workerID }), nil
}

func (l *AssignmentLog) All(_ context.Context) ([]*types.AssignmentRecord, error) {
	return l.filter(func(*types.AssignmentRecord) bool { return true }), nil
}

// filter returns copies of matching records in append order.
func (l *AssignmentLog) filter(match func(*types.AssignmentRecord) bool) []*types.AssignmentRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := make([]*types.AssignmentRecord, 0)
	for _, r := range l.records {
		if match(r) {
			clone := *r
			records = append(records, &clone)
		}
	}

	return records
}
