package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// SegmentStore is an in-memory implementation of storage.SegmentStore.
type SegmentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ProbSegment // keyed by (market_id, start_ms)
}

// NewSegmentStore creates a new in-memory segment store.
func NewSegmentStore() *SegmentStore {
	return &SegmentStore{
		data: make(map[string]*domain.ProbSegment),
	}
}

// Compile-time interface check.
var _ storage.SegmentStore = (*SegmentStore)(nil)

func segmentKey(marketID string, startMs int64) string {
	return fmt.Sprintf("%s|%d", marketID, startMs)
}

// InsertBulk adds multiple segments. Fails entire batch on any duplicate.
func (s *SegmentStore) InsertBulk(_ context.Context, segments []*domain.ProbSegment) error {
	if len(segments) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(segments))
	for _, seg := range segments {
		if seg == nil || seg.MarketID == "" {
			return storage.ErrInvalidInput
		}
		key := segmentKey(seg.MarketID, seg.StartMs)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, seg := range segments {
		segCopy := *seg
		s.data[segmentKey(seg.MarketID, seg.StartMs)] = &segCopy
	}
	return nil
}

// GetByMarketID retrieves all segments for a market, ordered by start ASC.
func (s *SegmentStore) GetByMarketID(_ context.Context, marketID string) ([]*domain.ProbSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ProbSegment
	for _, seg := range s.data {
		if seg.MarketID == marketID {
			segCopy := *seg
			result = append(result, &segCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartMs < result[j].StartMs })
	return result, nil
}
