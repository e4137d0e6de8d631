package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// PlatformScoreStore is an in-memory implementation of storage.PlatformScoreStore.
type PlatformScoreStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PlatformScore // keyed by (platform, score_type)
}

// NewPlatformScoreStore creates a new in-memory platform score store.
func NewPlatformScoreStore() *PlatformScoreStore {
	return &PlatformScoreStore{
		data: make(map[string]*domain.PlatformScore),
	}
}

// Compile-time interface check.
var _ storage.PlatformScoreStore = (*PlatformScoreStore)(nil)

func platformScoreKey(p domain.Platform, st domain.ScoreType) string {
	return fmt.Sprintf("%s|%s", p, st)
}

// InsertBulk adds multiple aggregates. Fails entire batch on any duplicate.
func (s *PlatformScoreStore) InsertBulk(_ context.Context, scores []*domain.PlatformScore) error {
	if len(scores) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(scores))
	for _, sc := range scores {
		if sc == nil || !sc.Platform.Valid() {
			return storage.ErrInvalidInput
		}
		key := platformScoreKey(sc.Platform, sc.ScoreType)
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
		s.data[platformScoreKey(sc.Platform, sc.ScoreType)] = &scoreCopy
	}
	return nil
}

// GetAll retrieves all aggregates, ordered by (platform, score_type) ASC.
func (s *PlatformScoreStore) GetAll(_ context.Context) ([]*domain.PlatformScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PlatformScore, 0, len(s.data))
	for _, sc := range s.data {
		scoreCopy := *sc
		result = append(result, &scoreCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Platform != result[j].Platform {
			return result[i].Platform < result[j].Platform
		}
		return result[i].ScoreType < result[j].ScoreType
	})
	return result, nil
}
