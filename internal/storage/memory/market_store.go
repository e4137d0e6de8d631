package memory

import (
	"context"
	"sort"
	"sync"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// MarketStore is an in-memory implementation of storage.MarketStore.
type MarketStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Market // keyed by market id
}

// NewMarketStore creates a new in-memory market store.
func NewMarketStore() *MarketStore {
	return &MarketStore{
		data: make(map[string]*domain.Market),
	}
}

// Compile-time interface check.
var _ storage.MarketStore = (*MarketStore)(nil)

// Insert adds a new market. Returns ErrDuplicateKey if the id exists.
func (s *MarketStore) Insert(_ context.Context, m *domain.Market) error {
	if m == nil || m.ID == "" || !m.Platform.Valid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.ID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	marketCopy := *m
	s.data[m.ID] = &marketCopy
	return nil
}

// GetByID retrieves a market by its ID. Returns ErrNotFound if not exists.
func (s *MarketStore) GetByID(_ context.Context, marketID string) (*domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[marketID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	marketCopy := *m
	return &marketCopy, nil
}

// GetAll retrieves all markets, ordered by id ASC.
func (s *MarketStore) GetAll(_ context.Context) ([]*domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(*domain.Market) bool { return true }), nil
}

// GetByPlatform retrieves all markets of a platform, ordered by id ASC.
func (s *MarketStore) GetByPlatform(_ context.Context, p domain.Platform) ([]*domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(m *domain.Market) bool { return m.Platform == p }), nil
}

// GetByQuestionID retrieves the markets of a question group, ordered by id ASC.
func (s *MarketStore) GetByQuestionID(_ context.Context, questionID string) ([]*domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(m *domain.Market) bool {
		return m.QuestionID != nil && *m.QuestionID == questionID
	}), nil
}

// ListQuestionIDs returns the distinct non-null question ids, sorted ASC.
func (s *MarketStore) ListQuestionIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, m := range s.data {
		if m.QuestionID != nil {
			seen[*m.QuestionID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// collect returns copies of all markets matching the filter, ordered by id.
// Caller must hold at least a read lock.
func (s *MarketStore) collect(match func(*domain.Market) bool) []*domain.Market {
	var result []*domain.Market
	for _, m := range s.data {
		if match(m) {
			marketCopy := *m
			result = append(result, &marketCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
