package pipeline

import (
	"context"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// LoadFixtures populates stores with demonstration data: two question-linked
// markets on different platforms plus one ungrouped market, each with a short
// probability history. Running the scoring pipeline over these produces both
// absolute and relative scores.
func LoadFixtures(
	ctx context.Context,
	marketStore storage.MarketStore,
	eventStore storage.ProbabilityEventStore,
) error {
	if err := loadMarkets(ctx, marketStore); err != nil {
		return err
	}
	return loadEvents(ctx, eventStore)
}

func loadMarkets(ctx context.Context, store storage.MarketStore) error {
	q1 := "will-btc-close-above-100k-2024"
	markets := []*domain.Market{
		{
			ID:         "kalshi-BTCZ-24DEC31",
			Platform:   domain.PlatformKalshi,
			PlatformID: "BTCZ-24DEC31",
			Title:      "Will Bitcoin close above $100k in 2024?",
			Resolution: 1,
			QuestionID: &q1,
			CreatedAt:  1704067200000, // 2024-01-01 00:00:00 UTC
		},
		{
			ID:         "polymarket-btc-100k-2024",
			Platform:   domain.PlatformPolymarket,
			PlatformID: "btc-100k-2024",
			Title:      "Bitcoin above $100,000 by Dec 31?",
			Resolution: 1,
			QuestionID: &q1,
			CreatedAt:  1704067200000,
		},
		{
			ID:         "manifold-ai-benchmark-2024",
			Platform:   domain.PlatformManifold,
			PlatformID: "ai-benchmark-2024",
			Title:      "Will the benchmark record be broken this year?",
			Resolution: 0,
			CreatedAt:  1704153600000, // 2024-01-02 00:00:00 UTC
		},
	}

	for _, m := range markets {
		if err := store.Insert(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func loadEvents(ctx context.Context, store storage.ProbabilityEventStore) error {
	events := []*domain.ProbabilityEvent{
		// kalshi trade prices in cents: rises from 0.40 to 0.85 over ten days
		{MarketID: "kalshi-BTCZ-24DEC31", TimestampMs: 1704067200000, Value: 40},
		{MarketID: "kalshi-BTCZ-24DEC31", TimestampMs: 1704326400000, Value: 55},
		{MarketID: "kalshi-BTCZ-24DEC31", TimestampMs: 1704672000000, Value: 70},
		{MarketID: "kalshi-BTCZ-24DEC31", TimestampMs: 1704931200000, Value: 85},
		// polymarket: same question, slightly less confident
		{MarketID: "polymarket-btc-100k-2024", TimestampMs: 1704067200000, Value: 0.35},
		{MarketID: "polymarket-btc-100k-2024", TimestampMs: 1704412800000, Value: 0.50},
		{MarketID: "polymarket-btc-100k-2024", TimestampMs: 1704931200000, Value: 0.75},
		// manifold: drifts down toward the NO outcome
		{MarketID: "manifold-ai-benchmark-2024", TimestampMs: 1704153600000, Value: 0.30},
		{MarketID: "manifold-ai-benchmark-2024", TimestampMs: 1704499200000, Value: 0.20},
		{MarketID: "manifold-ai-benchmark-2024", TimestampMs: 1704844800000, Value: 0.10},
	}

	return store.InsertBulk(ctx, events)
}
