// Package audit provides sinks for the engine's append-only audit trail.
//
// Every mutating operation emits one entry describing who did what to which
// resource. Sinks are write-mostly: the engine only ever calls Record, and the
// query surface exists for operators and tests.
package audit

import (
	"context"
	"sync"

	"github.com/jcvera13/radiology-worklist/types"
)

// NopSink discards every entry. It is the default when no sink is configured.
type NopSink struct{}

// Compile-time assertion that NopSink implements types.AuditSink.
var _ types.AuditSink = (*NopSink)(nil)

// NewNopSink creates a sink that discards entries.
func NewNopSink() *NopSink {
	return &NopSink{}
}

func (*NopSink) Record(context.Context, types.AuditEntry) error {
	return nil
}

// MemorySink keeps entries in memory. Intended for tests and for short-lived
// processes where a durable trail is not needed.
type MemorySink struct {
	mu      sync.Mutex
	entries []types.AuditEntry
}

// Compile-time assertion that MemorySink implements types.AuditSink.
var _ types.AuditSink = (*MemorySink)(nil)

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Record(_ context.Context, entry types.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)

	return nil
}

// Recent returns the most recent n entries, newest-first.
func (s *MemorySink) Recent(n int) []types.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > len(s.entries) {
		n = len(s.entries)
	}

	out := make([]types.AuditEntry, 0, n)
	for i := len(s.entries) - 1; i >= len(s.entries)-n; i-- {
		out = append(out, s.entries[i])
	}

	return out
}

// ByActor returns the entries recorded for an actor, oldest-first.
func (s *MemorySink) ByActor(actor string) []types.AuditEntry {
	return s.filter(func(e types.AuditEntry) bool { return e.Actor == actor })
}

// ByResource returns the entries touching a resource, oldest-first.
func (s *MemorySink) ByResource(resourceType, resourceID string) []types.AuditEntry {
	return s.filter(func(e types.AuditEntry) bool {
		return e.ResourceType == resourceType && e.ResourceID == resourceID
	})
}

// ByAction returns the entries with a given action, oldest-first.
func (s *MemorySink) ByAction(action string) []types.AuditEntry {
	return s.filter(func(e types.AuditEntry) bool { return e.Action == action })
}

// Stats returns entry counts per action.
func (s *MemorySink) Stats() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[string]int)
	for _, e := range s.entries {
		stats[e.Action]++
	}

	return stats
}

func (s *MemorySink) filter(match func(types.AuditEntry) bool) []types.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.AuditEntry, 0)
	for _, e := range s.entries {
		if match(e) {
			out = append(out, e)
		}
	}

	return out
}
