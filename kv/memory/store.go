// Package memory provides an in-process CoordinationStore.
//
// It mirrors the Redis-backed store's semantics (atomic conditional-set,
// float increments, TTL expiry) without a server, which makes it suitable for
// tests and single-process deployments. Expiry is evaluated lazily on access
// against an injectable clock.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jcvera13/radiology-worklist/types"
)

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store is an in-memory types.CoordinationStore.
type Store struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

// Compile-time assertion that Store implements CoordinationStore.
var _ types.CoordinationStore = (*Store)(nil)

// New creates an empty in-memory store using the wall clock.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock creates a store that evaluates TTLs against the given clock.
// Tests advance the clock to simulate expiry.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		data: make(map[string]entry),
		now:  now,
	}
}

// get returns the live entry for key, deleting it first if expired.
// Callers must hold s.mu.
func (s *Store) get(key string) (entry, bool) {
	e, ok := s.data[key]
	if !ok {
		return entry{}, false
	}

	if e.expired(s.now()) {
		delete(s.data, key)
		return entry{}, false
	}

	return e, true
}

func (s *Store) SetIfAbsent(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.get(key); ok {
		return false, nil
	}

	s.data[key] = s.newEntry(value, ttl)

	return true, nil
}

func (s *Store) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = s.newEntry(value, ttl)

	return nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.get(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", types.ErrKeyNotFound, key)
	}

	return e.value, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.get(key)

	return ok, nil
}

func (s *Store) IncrByFloat(_ context.Context, key string, delta float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := 0.0

	e, ok := s.get(key)
	if ok {
		parsed, err := strconv.ParseFloat(e.value, 64)
		if err != nil {
			return 0, fmt.Errorf("value at %s is not a number: %w", key, err)
		}
		current = parsed
	}

	current += delta

	// Increment preserves the existing expiry, matching Redis INCRBYFLOAT.
	s.data[key] = entry{
		value:     strconv.FormatFloat(current, 'f', -1, 64),
		expiresAt: e.expiresAt,
	}

	return current, nil
}

func (s *Store) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.get(key)
	if !ok {
		return false, nil
	}

	e.expiresAt = s.now().Add(ttl)
	s.data[key] = e

	return true, nil
}

func (s *Store) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.get(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", types.ErrKeyNotFound, key)
	}

	if e.expiresAt.IsZero() {
		return 0, nil
	}

	return e.expiresAt.Sub(s.now()), nil
}

// Keys supports the "prefix*" patterns the engine uses; other glob forms are
// not implemented.
func (s *Store) Keys(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	keys := make([]string, 0)

	for key, e := range s.data {
		if e.expired(now) {
			delete(s.data, key)
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) newEntry(value string, ttl time.Duration) entry {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	return e
}
