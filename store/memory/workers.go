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

// WorkerStore is an in-memory types.WorkerStore.
type WorkerStore struct {
	mu      sync.Mutex
	workers map[string]*types.Worker
}

// Compile-time assertion that WorkerStore implements types.WorkerStore.
var _ types.WorkerStore = (*WorkerStore)(nil)

// NewWorkerStore creates an empty worker store.
func NewWorkerStore() *WorkerStore {
	return &WorkerStore{workers: make(map[string]*types.Worker)}
}

func (s *WorkerStore) Create(_ context.Context, worker *types.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if worker.ID == "" {
		worker.ID = uuid.NewString()
	}

	now := time.Now()
	worker.CreatedAt = now
	worker.UpdatedAt = now

	stored := *worker
	stored.Skills = append([]string(nil), worker.Skills...)
	s.workers[worker.ID] = &stored

	return nil
}

func (s *WorkerStore) List(_ context.Context) ([]*types.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workers := make([]*types.Worker, 0, len(s.workers))
	for _, w := range s.workers {
		workers = append(workers, cloneWorker(w))
	}

	sort.Slice(workers, func(i, j int) bool {
		return workers[i].Name < workers[j].Name
	})

	return workers, nil
}

func (s *WorkerStore) Get(_ context.Context, id string) (*types.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrWorkerNotFound, id)
	}

	return cloneWorker(w), nil
}

func (s *WorkerStore) SetAvailability(_ context.Context, id string, availability types.Availability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workers[id]
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrWorkerNotFound, id)
	}

	w.Availability = availability
	w.UpdatedAt = time.Now()

	return nil
}

func (s *WorkerStore) ChargeLoad(_ context.Context, id string, amount float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workers[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", types.ErrWorkerNotFound, id)
	}

	w.CurrentLoad += amount
	w.UpdatedAt = time.Now()

	return w.CurrentLoad, nil
}

func (s *WorkerStore) ResetLoad(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workers[id]
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrWorkerNotFound, id)
	}

	w.CurrentLoad = 0
	w.UpdatedAt = time.Now()

	return nil
}

func cloneWorker(w *types.Worker) *types.Worker {
	clone := *w
	clone.Skills = append([]string(nil), w.Skills...)

	return &clone
}
