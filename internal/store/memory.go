package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the event log in process memory. Suitable for
// tests and single-instance development setups.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(ctx context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *MemoryStore) CountInRange(ctx context.Context, identifier, endpoint string, start, end time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, e := range s.events {
		if e.Identifier == identifier && e.Endpoint == endpoint && inRange(e.Timestamp, start, end) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ListInRange(ctx context.Context, identifier string, start, end time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, e := range s.events {
		if e.Identifier == identifier && inRange(e.Timestamp, start, end) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// inRange reports start <= ts < end.
func inRange(ts, start, end time.Time) bool {
	return !ts.Before(start) && ts.Before(end)
}
