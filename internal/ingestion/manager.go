package ingestion

import (
	"context"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// EventSource provides raw probability events from external sources.
type EventSource interface {
	// Fetch returns events for a market within time range [from, to]
	// (inclusive, Unix ms). Events may be unordered; Manager enforces
	// deterministic ordering.
	Fetch(ctx context.Context, marketID string, from, to int64) ([]*domain.ProbabilityEvent, error)
}

// Manager orchestrates backfill ingestion from a source to storage.
// It enforces deterministic ordering and uses the storage layer for
// duplicate rejection.
type Manager struct {
	source EventSource
	store  storage.ProbabilityEventStore
}

// NewManager creates a new ingestion manager.
func NewManager(source EventSource, store storage.ProbabilityEventStore) *Manager {
	return &Manager{
		source: source,
		store:  store,
	}
}

// IngestEvents fetches events from the source and stores them. Enforces
// deterministic ordering by (market_id, timestamp_ms, value) and drops exact
// duplicates within the batch. Returns the count of stored events.
// Cross-batch duplicates are rejected by the storage layer (ErrDuplicateKey).
func (m *Manager) IngestEvents(ctx context.Context, marketID string, from, to int64) (int, error) {
	if m.source == nil || m.store == nil {
		return 0, nil
	}

	events, err := m.source.Fetch(ctx, marketID, from, to)
	if err != nil {
		return 0, err
	}

	if len(events) == 0 {
		return 0, nil
	}

	SortEvents(events)
	events = DedupEvents(events)

	if err := m.store.InsertBulk(ctx, events); err != nil {
		return 0, err
	}

	return len(events), nil
}
