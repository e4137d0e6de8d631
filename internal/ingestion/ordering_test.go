package ingestion

import (
	"errors"
	"testing"

	"forecast-lab/internal/domain"
)

func TestSortEvents(t *testing.T) {
	events := []*domain.ProbabilityEvent{
		{MarketID: "m2", TimestampMs: 100, Value: 0.5},
		{MarketID: "m1", TimestampMs: 200, Value: 0.3},
		{MarketID: "m1", TimestampMs: 100, Value: 0.7},
		{MarketID: "m1", TimestampMs: 100, Value: 0.2},
	}

	SortEvents(events)

	want := []struct {
		marketID string
		ts       int64
		value    float64
	}{
		{"m1", 100, 0.2},
		{"m1", 100, 0.7},
		{"m1", 200, 0.3},
		{"m2", 100, 0.5},
	}
	for i, w := range want {
		e := events[i]
		if e.MarketID != w.marketID || e.TimestampMs != w.ts || e.Value != w.value {
			t.Errorf("event %d = {%s %d %g}, want {%s %d %g}",
				i, e.MarketID, e.TimestampMs, e.Value, w.marketID, w.ts, w.value)
		}
	}
}

func TestValidateOrdering(t *testing.T) {
	ordered := []*domain.ProbabilityEvent{
		{MarketID: "m1", TimestampMs: 100, Value: 0.2},
		{MarketID: "m1", TimestampMs: 200, Value: 0.3},
		{MarketID: "m2", TimestampMs: 100, Value: 0.5},
	}
	if err := ValidateOrdering(ordered); err != nil {
		t.Errorf("ordered events failed validation: %v", err)
	}

	unordered := []*domain.ProbabilityEvent{
		{MarketID: "m1", TimestampMs: 200, Value: 0.3},
		{MarketID: "m1", TimestampMs: 100, Value: 0.2},
	}
	if err := ValidateOrdering(unordered); !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("expected ErrInvalidOrdering, got %v", err)
	}

	duplicated := []*domain.ProbabilityEvent{
		{MarketID: "m1", TimestampMs: 100, Value: 0.2},
		{MarketID: "m1", TimestampMs: 100, Value: 0.2},
	}
	if err := ValidateOrdering(duplicated); !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("expected ErrInvalidOrdering for duplicates, got %v", err)
	}

	if err := ValidateOrdering(nil); err != nil {
		t.Errorf("empty list failed validation: %v", err)
	}
}

func TestDedupEvents(t *testing.T) {
	events := []*domain.ProbabilityEvent{
		{MarketID: "m1", TimestampMs: 100, Value: 0.2},
		{MarketID: "m1", TimestampMs: 100, Value: 0.2},
		{MarketID: "m1", TimestampMs: 100, Value: 0.7},
		{MarketID: "m1", TimestampMs: 200, Value: 0.7},
		{MarketID: "m1", TimestampMs: 200, Value: 0.7},
	}

	deduped := DedupEvents(events)
	if len(deduped) != 3 {
		t.Fatalf("expected 3 events after dedup, got %d", len(deduped))
	}
	if err := ValidateOrdering(deduped); err != nil {
		t.Errorf("deduped events failed validation: %v", err)
	}
}
