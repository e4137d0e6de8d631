package memory

import (
	"context"
	"errors"
	"testing"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

func TestMarketScoreStore_InsertBulkAndGetAll(t *testing.T) {
	ctx := context.Background()
	s := NewMarketScoreStore()

	st1 := domain.AbsoluteScoreType(domain.MetricBrier, domain.CriterionMidpoint)
	st2 := domain.RelativeScoreType(domain.MetricBrier)
	scores := []*domain.MarketScore{
		{MarketID: "m2", Platform: domain.PlatformKalshi, ScoreType: st1, Score: 0.1, Grade: "A+"},
		{MarketID: "m1", Platform: domain.PlatformManifold, ScoreType: st2, Score: -0.02, Grade: "B"},
		{MarketID: "m1", Platform: domain.PlatformManifold, ScoreType: st1, Score: 0.2, Grade: "C"},
	}
	if err := s.InsertBulk(ctx, scores); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(all))
	}
	// Ordered by (market_id, score_type).
	if all[0].MarketID != "m1" || all[2].MarketID != "m2" {
		t.Errorf("unexpected order: %v, %v, %v", all[0].MarketID, all[1].MarketID, all[2].MarketID)
	}

	forM1, err := s.GetByMarketID(ctx, "m1")
	if err != nil {
		t.Fatalf("GetByMarketID: %v", err)
	}
	if len(forM1) != 2 {
		t.Errorf("expected 2 scores for m1, got %d", len(forM1))
	}
}

func TestMarketScoreStore_IntraBatchDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewMarketScoreStore()

	st := domain.AbsoluteScoreType(domain.MetricSpherical, domain.CriterionTimeAverage)
	scores := []*domain.MarketScore{
		{MarketID: "m1", Platform: domain.PlatformKalshi, ScoreType: st, Score: 0.9},
		{MarketID: "m1", Platform: domain.PlatformKalshi, ScoreType: st, Score: 0.8},
	}
	if err := s.InsertBulk(ctx, scores); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	// Failed batch must not partially insert.
	all, _ := s.GetAll(ctx)
	if len(all) != 0 {
		t.Errorf("expected empty store after failed batch, got %d", len(all))
	}
}
