package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Common errors for heartbeater operations.
var (
	ErrNotStarted     = errors.New("heartbeater not started")
	ErrAlreadyStarted = errors.New("heartbeater already started")
	ErrNoWorkerID     = errors.New("worker ID not set")
)

// Heartbeater keeps one worker's presence key fresh in the background.
//
// A worker process starts a heartbeater after registering; it refreshes the
// presence lease at a regular interval until Stop, which also deletes the
// key so the worker drops off the active set immediately instead of waiting
// for TTL expiry.
type Heartbeater struct {
	tracker  *Tracker
	workerID string
	interval time.Duration

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	ticker  *time.Ticker
}

// NewHeartbeater creates a heartbeater for a worker.
//
// The interval should be well under the tracker's presence TTL (half or
// less) so a single missed refresh does not mark the worker offline.
//
// Parameters:
//   - tracker: Presence tracker to refresh through
//   - workerID: Worker to keep online
//   - interval: Refresh interval
func NewHeartbeater(tracker *Tracker, workerID string, interval time.Duration) *Heartbeater {
	return &Heartbeater{
		tracker:  tracker,
		workerID: workerID,
		interval: interval,
	}
}

// Start marks the worker online and begins background refreshes.
//
// Returns:
//   - error: ErrAlreadyStarted if running, ErrNoWorkerID if the worker ID is
//     empty, or the first refresh failure
func (h *Heartbeater) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return ErrAlreadyStarted
	}
	if h.workerID == "" {
		return ErrNoWorkerID
	}

	if err := h.tracker.Online(ctx, h.workerID); err != nil {
		return fmt.Errorf("initial presence refresh: %w", err)
	}

	// Fresh channels per run so the heartbeater can be restarted after Stop.
	h.started = true
	h.stopCh = make(chan struct{})
	h.doneCh = make(chan struct{})
	h.ticker = time.NewTicker(h.interval)

	go h.refreshLoop(h.stopCh, h.doneCh, h.ticker)

	return nil
}

// Stop halts refreshes and clears the presence key.
//
// Blocks until the refresh goroutine exits.
func (h *Heartbeater) Stop() error {
	h.mu.Lock()

	if !h.started {
		h.mu.Unlock()
		return ErrNotStarted
	}

	h.ticker.Stop()
	close(h.stopCh)
	h.started = false
	doneCh := h.doneCh
	h.stopCh, h.doneCh = nil, nil

	h.mu.Unlock()

	<-doneCh

	// Worker is shutting down; use a bounded background context for cleanup.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.tracker.Offline(ctx, h.workerID); err != nil {
		return fmt.Errorf("stopped but failed to clear presence: %w", err)
	}

	return nil
}

// IsStarted reports whether the heartbeater is running.
func (h *Heartbeater) IsStarted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.started
}

// refreshLoop is the background goroutine refreshing the presence lease. The
// channels and ticker are passed in rather than read from the struct so a
// restarted heartbeater never shares them with a previous run.
func (h *Heartbeater) refreshLoop(stopCh <-chan struct{}, doneCh chan<- struct{}, ticker *time.Ticker) {
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			// Refresh failures are transient; the next tick tries again
			// before the TTL lapses.
			_ = h.tracker.Online(ctx, h.workerID)
			cancel()
		}
	}
}
