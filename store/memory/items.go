package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcvera13/radiology-worklist/types"
)

// ItemStore is an in-memory types.ItemStore.
//
// Transitions are applied under the store mutex, which makes each one atomic
// with respect to concurrent callers; two racing Assign calls for the same
// item see exactly one success.
type ItemStore struct {
	mu    sync.Mutex
	items map[string]*types.Item
	refs  map[string]string // RefCode → item ID
}

// Compile-time assertion that ItemStore implements types.ItemStore.
var _ types.ItemStore = (*ItemStore)(nil)

// NewItemStore creates an empty item store.
func NewItemStore() *ItemStore {
	return &ItemStore{
		items: make(map[string]*types.Item),
		refs:  make(map[string]string),
	}
}

func (s *ItemStore) Create(_ context.Context, item *types.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.refs[item.RefCode]; exists {
		return fmt.Errorf("%w: %s", types.ErrDuplicateRef, item.RefCode)
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	now := time.Now()
	item.Status = types.StatusPending
	item.CreatedAt = now
	item.UpdatedAt = now

	s.items[item.ID] = item.Clone()
	s.refs[item.RefCode] = item.ID

	return nil
}

func (s *ItemStore) Get(_ context.Context, id string) (*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrItemNotFound, id)
	}

	return item.Clone(), nil
}

func (s *ItemStore) ListAll(_ context.Context) ([]*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collect(func(*types.Item) bool { return true }), nil
}

func (s *ItemStore) ListByWorker(_ context.Context, workerID string) ([]*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collect(func(item *types.Item) bool {
		return item.AssignedTo == workerID
	}), nil
}

func (s *ItemStore) ListByStatus(_ context.Context, status types.ItemStatus) ([]*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collect(func(item *types.Item) bool {
		return item.Status == status
	}), nil
}

func (s *ItemStore) Assign(_ context.Context, id, workerID string) error {
	return s.transition(id, func(item *types.Item) error {
		return item.MarkAssigned(workerID, time.Now())
	})
}

func (s *ItemStore) Lock(_ context.Context, id, holderID string, at time.Time) error {
	return s.transition(id, func(item *types.Item) error {
		return item.MarkLocked(holderID, at)
	})
}

func (s *ItemStore) Unlock(_ context.Context, id string) error {
	return s.transition(id, func(item *types.Item) error {
		return item.MarkUnlocked(time.Now())
	})
}

func (s *ItemStore) Complete(_ context.Context, id string, at time.Time) error {
	return s.transition(id, func(item *types.Item) error {
		return item.MarkCompleted(at)
	})
}

// transition applies one state-machine edge atomically. The mutation runs on
// a clone and is only published when it validates.
func (s *ItemStore) transition(id string, apply func(*types.Item) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrItemNotFound, id)
	}

	updated := item.Clone()
	if err := apply(updated); err != nil {
		return err
	}

	s.items[id] = updated

	return nil
}

// collect returns clones of matching items ordered newest-first.
// Callers must hold s.mu.
func (s *ItemStore) collect(match func(*types.Item) bool) []*types.Item {
	items := make([]*types.Item, 0)
	for _, item := range s.items {
		if match(item) {
			items = append(items, item.Clone())
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}

		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	return items
}
