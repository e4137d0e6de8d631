package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// ProbabilityEventStore is an in-memory implementation of storage.ProbabilityEventStore.
type ProbabilityEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ProbabilityEvent // keyed by (market_id, timestamp_ms, value)
}

// NewProbabilityEventStore creates a new in-memory probability event store.
func NewProbabilityEventStore() *ProbabilityEventStore {
	return &ProbabilityEventStore{
		data: make(map[string]*domain.ProbabilityEvent),
	}
}

// Compile-time interface check.
var _ storage.ProbabilityEventStore = (*ProbabilityEventStore)(nil)

func eventKey(e *domain.ProbabilityEvent) string {
	return fmt.Sprintf("%s|%d|%g", e.MarketID, e.TimestampMs, e.Value)
}

// InsertBulk adds multiple events. Fails entire batch on any duplicate.
func (s *ProbabilityEventStore) InsertBulk(_ context.Context, events []*domain.ProbabilityEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e == nil || e.MarketID == "" {
			return storage.ErrInvalidInput
		}
		key := eventKey(e)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, e := range events {
		eventCopy := *e
		s.data[eventKey(e)] = &eventCopy
	}
	return nil
}

// GetByMarketID retrieves all events for a market, ordered by timestamp ASC.
func (s *ProbabilityEventStore) GetByMarketID(_ context.Context, marketID string) ([]*domain.ProbabilityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ProbabilityEvent
	for _, e := range s.data {
		if e.MarketID == marketID {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TimestampMs < result[j].TimestampMs })
	return result, nil
}
