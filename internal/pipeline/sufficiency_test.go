package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage/memory"
)

const dayMs = int64(24 * 60 * 60 * 1000)

func seedSufficientData(t *testing.T, n int) (*memory.MarketStore, *memory.ProbabilityEventStore, *memory.SegmentStore) {
	t.Helper()
	ctx := context.Background()

	markets := memory.NewMarketStore()
	events := memory.NewProbabilityEventStore()
	segments := memory.NewSegmentStore()

	for i := 0; i < n; i++ {
		id := fmt.Sprintf("m-%03d", i)
		if err := markets.Insert(ctx, &domain.Market{
			ID: id, Platform: domain.PlatformKalshi, PlatformID: id, Resolution: 1,
		}); err != nil {
			t.Fatalf("insert market: %v", err)
		}

		evts := []*domain.ProbabilityEvent{
			{MarketID: id, TimestampMs: 0, Value: 0.5},
			{MarketID: id, TimestampMs: dayMs, Value: 0.7},
		}
		if err := events.InsertBulk(ctx, evts); err != nil {
			t.Fatalf("insert events: %v", err)
		}

		segs := []*domain.ProbSegment{
			{MarketID: id, StartMs: 0, EndMs: dayMs, Prob: 0.5},
			{MarketID: id, StartMs: dayMs, EndMs: 2 * dayMs, Prob: 0.7},
		}
		if err := segments.InsertBulk(ctx, segs); err != nil {
			t.Fatalf("insert segments: %v", err)
		}
	}

	return markets, events, segments
}

func TestSufficiencyChecker_AllPass(t *testing.T) {
	markets, events, segments := seedSufficientData(t, 12)

	checker := NewSufficiencyChecker(markets, events, segments)
	result, err := checker.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if !result.AllPass {
		t.Errorf("expected all checks to pass, got %+v", result.Checks)
	}
	if len(result.Checks) != 4 {
		t.Errorf("expected 4 checks, got %d", len(result.Checks))
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no integrity errors, got %v", result.Errors)
	}
}

func TestSufficiencyChecker_TooFewMarkets(t *testing.T) {
	markets, events, segments := seedSufficientData(t, 3)

	checker := NewSufficiencyChecker(markets, events, segments)
	result, err := checker.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if result.AllPass {
		t.Error("expected check failure with 3 markets")
	}
	if result.Checks[0].Pass {
		t.Errorf("market count check should fail: %+v", result.Checks[0])
	}
	if result.Checks[0].Actual != "3" {
		t.Errorf("actual = %q, want %q", result.Checks[0].Actual, "3")
	}

	// Threshold is adjustable
	checker = checker.WithMinMarkets(3)
	result, err = checker.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !result.AllPass {
		t.Errorf("expected pass with min markets 3, got %+v", result.Checks)
	}
}

func TestSufficiencyChecker_ThinEventHistory(t *testing.T) {
	ctx := context.Background()
	markets, events, segments := seedSufficientData(t, 10)

	if err := markets.Insert(ctx, &domain.Market{
		ID: "m-thin", Platform: domain.PlatformManifold, PlatformID: "thin", Resolution: 0,
	}); err != nil {
		t.Fatalf("insert market: %v", err)
	}
	if err := events.InsertBulk(ctx, []*domain.ProbabilityEvent{
		{MarketID: "m-thin", TimestampMs: 0, Value: 0.5},
	}); err != nil {
		t.Fatalf("insert events: %v", err)
	}

	checker := NewSufficiencyChecker(markets, events, segments)
	result, err := checker.Check(ctx)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if result.AllPass {
		t.Error("expected event coverage failure")
	}
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "m-thin") && strings.Contains(e, "1 probability events") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected m-thin coverage error, got %v", result.Errors)
	}
}

func TestSufficiencyChecker_BadResolution(t *testing.T) {
	ctx := context.Background()
	markets, events, segments := seedSufficientData(t, 10)

	if err := markets.Insert(ctx, &domain.Market{
		ID: "m-bad", Platform: domain.PlatformMetaculus, PlatformID: "bad", Resolution: 1.5,
	}); err != nil {
		t.Fatalf("insert market: %v", err)
	}
	if err := events.InsertBulk(ctx, []*domain.ProbabilityEvent{
		{MarketID: "m-bad", TimestampMs: 0, Value: 0.5},
		{MarketID: "m-bad", TimestampMs: dayMs, Value: 0.6},
	}); err != nil {
		t.Fatalf("insert events: %v", err)
	}

	checker := NewSufficiencyChecker(markets, events, segments)
	result, err := checker.Check(ctx)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if result.AllPass {
		t.Error("expected resolution check failure")
	}
	if result.Checks[2].Actual != "1" {
		t.Errorf("resolution check actual = %q, want %q", result.Checks[2].Actual, "1")
	}
}

func TestSufficiencyChecker_GappyTimeline(t *testing.T) {
	ctx := context.Background()
	markets, events, segments := seedSufficientData(t, 10)

	if err := markets.Insert(ctx, &domain.Market{
		ID: "m-gap", Platform: domain.PlatformPolymarket, PlatformID: "gap", Resolution: 1,
	}); err != nil {
		t.Fatalf("insert market: %v", err)
	}
	if err := events.InsertBulk(ctx, []*domain.ProbabilityEvent{
		{MarketID: "m-gap", TimestampMs: 0, Value: 0.5},
		{MarketID: "m-gap", TimestampMs: dayMs, Value: 0.6},
	}); err != nil {
		t.Fatalf("insert events: %v", err)
	}
	// Gap between the two segments
	if err := segments.InsertBulk(ctx, []*domain.ProbSegment{
		{MarketID: "m-gap", StartMs: 0, EndMs: dayMs, Prob: 0.5},
		{MarketID: "m-gap", StartMs: 2 * dayMs, EndMs: 3 * dayMs, Prob: 0.6},
	}); err != nil {
		t.Fatalf("insert segments: %v", err)
	}

	checker := NewSufficiencyChecker(markets, events, segments)
	result, err := checker.Check(ctx)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if result.AllPass {
		t.Error("expected timeline check failure")
	}
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "invalid timeline for market m-gap") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected m-gap timeline error, got %v", result.Errors)
	}
}
