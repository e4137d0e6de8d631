package ingestion

import (
	"errors"
	"sort"

	"forecast-lab/internal/domain"
)

// ErrInvalidOrdering is returned when events are not properly ordered.
var ErrInvalidOrdering = errors.New("events are not in deterministic order")

// SortEvents orders events by (market_id ASC, timestamp_ms ASC, value ASC).
// This provides deterministic ordering no matter what order the feed
// delivered them in.
func SortEvents(events []*domain.ProbabilityEvent) {
	sort.Slice(events, func(i, j int) bool {
		return compareEvents(events[i], events[j]) < 0
	})
}

// ValidateOrdering checks if events are properly ordered with no exact
// duplicates. Returns ErrInvalidOrdering if not.
func ValidateOrdering(events []*domain.ProbabilityEvent) error {
	for i := 1; i < len(events); i++ {
		if compareEvents(events[i-1], events[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// DedupEvents removes exact duplicates from a sorted event list, preserving
// order. The input must already be sorted by SortEvents.
func DedupEvents(events []*domain.ProbabilityEvent) []*domain.ProbabilityEvent {
	if len(events) == 0 {
		return events
	}

	out := events[:1]
	for _, e := range events[1:] {
		if compareEvents(out[len(out)-1], e) != 0 {
			out = append(out, e)
		}
	}
	return out
}

// compareEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (market_id ASC, timestamp_ms ASC, value ASC)
func compareEvents(a, b *domain.ProbabilityEvent) int {
	if a.MarketID != b.MarketID {
		if a.MarketID < b.MarketID {
			return -1
		}
		return 1
	}
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	if a.Value != b.Value {
		if a.Value < b.Value {
			return -1
		}
		return 1
	}
	return 0
}
