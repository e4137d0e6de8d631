package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// DailyProbabilityStore is an in-memory implementation of storage.DailyProbabilityStore.
type DailyProbabilityStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DailyProbability // keyed by (market_id, timestamp_ms)
}

// NewDailyProbabilityStore creates a new in-memory daily probability store.
func NewDailyProbabilityStore() *DailyProbabilityStore {
	return &DailyProbabilityStore{
		data: make(map[string]*domain.DailyProbability),
	}
}

// Compile-time interface check.
var _ storage.DailyProbabilityStore = (*DailyProbabilityStore)(nil)

func dailyKey(marketID string, timestampMs int64) string {
	return fmt.Sprintf("%s|%d", marketID, timestampMs)
}

// InsertBulk adds multiple points. Fails entire batch on any duplicate.
func (s *DailyProbabilityStore) InsertBulk(_ context.Context, points []*domain.DailyProbability) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.MarketID == "" {
			return storage.ErrInvalidInput
		}
		key := dailyKey(p.MarketID, p.TimestampMs)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range points {
		pointCopy := *p
		s.data[dailyKey(p.MarketID, p.TimestampMs)] = &pointCopy
	}
	return nil
}

// GetByMarketID retrieves all points for a market, ordered by timestamp ASC.
func (s *DailyProbabilityStore) GetByMarketID(_ context.Context, marketID string) ([]*domain.DailyProbability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DailyProbability
	for _, p := range s.data {
		if p.MarketID == marketID {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TimestampMs < result[j].TimestampMs })
	return result, nil
}
