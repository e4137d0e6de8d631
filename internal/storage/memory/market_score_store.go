package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// MarketScoreStore is an in-memory implementation of storage.MarketScoreStore.
type MarketScoreStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MarketScore // keyed by (market_id, score_type)
}

// NewMarketScoreStore creates a new in-memory market score store.
func NewMarketScoreStore() *MarketScoreStore {
	return &MarketScoreStore{
		data: make(map[string]*domain.MarketScore),
	}
}

// Compile-time interface check.
var _ storage.MarketScoreStore = (*MarketScoreStore)(nil)

func scoreKey(marketID string, st domain.ScoreType) string {
	return fmt.Sprintf("%s|%s", marketID, st)
}

// InsertBulk adds multiple scores. Fails entire batch on any duplicate.
func (s *MarketScoreStore) InsertBulk(_ context.Context, scores []*domain.MarketScore) error {
	if len(scores) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(scores))
	for _, sc := range scores {
		if sc == nil || sc.MarketID == "" {
			return storage.ErrInvalidInput
		}
		key := scoreKey(sc.MarketID, sc.ScoreType)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, sc := range scores {
		scoreCopy := *sc
		s.data[scoreKey(sc.MarketID, sc.ScoreType)] = &scoreCopy
	}
	return nil
}

// GetByMarketID retrieves all scores for a market, ordered by score type ASC.
func (s *MarketScoreStore) GetByMarketID(_ context.Context, marketID string) ([]*domain.MarketScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MarketScore
	for _, sc := range s.data {
		if sc.MarketID == marketID {
			scoreCopy := *sc
			result = append(result, &scoreCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScoreType < result[j].ScoreType })
	return result, nil
}

// GetAll retrieves all scores, ordered by (market_id, score_type) ASC.
func (s *MarketScoreStore) GetAll(_ context.Context) ([]*domain.MarketScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.MarketScore, 0, len(s.data))
	for _, sc := range s.data {
		scoreCopy := *sc
		result = append(result, &scoreCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].MarketID != result[j].MarketID {
			return result[i].MarketID < result[j].MarketID
		}
		return result[i].ScoreType < result[j].ScoreType
	})
	return result, nil
}
