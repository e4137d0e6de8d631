package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// CriterionProbabilityStore is an in-memory implementation of storage.CriterionProbabilityStore.
type CriterionProbabilityStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CriterionProbability // keyed by (market_id, criterion)
}

// NewCriterionProbabilityStore creates a new in-memory criterion probability store.
func NewCriterionProbabilityStore() *CriterionProbabilityStore {
	return &CriterionProbabilityStore{
		data: make(map[string]*domain.CriterionProbability),
	}
}

// Compile-time interface check.
var _ storage.CriterionProbabilityStore = (*CriterionProbabilityStore)(nil)

func criterionKey(marketID string, c domain.CriterionType) string {
	return fmt.Sprintf("%s|%s", marketID, c)
}

// InsertBulk adds multiple samples. Fails entire batch on any duplicate.
func (s *CriterionProbabilityStore) InsertBulk(_ context.Context, samples []*domain.CriterionProbability) error {
	if len(samples) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(samples))
	for _, c := range samples {
		if c == nil || c.MarketID == "" {
			return storage.ErrInvalidInput
		}
		key := criterionKey(c.MarketID, c.Criterion)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, c := range samples {
		sampleCopy := *c
		s.data[criterionKey(c.MarketID, c.Criterion)] = &sampleCopy
	}
	return nil
}

// GetByMarketID retrieves all samples for a market, ordered by criterion ASC.
func (s *CriterionProbabilityStore) GetByMarketID(_ context.Context, marketID string) ([]*domain.CriterionProbability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CriterionProbability
	for _, c := range s.data {
		if c.MarketID == marketID {
			sampleCopy := *c
			result = append(result, &sampleCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Criterion < result[j].Criterion })
	return result, nil
}
