package scoring

import (
	"math"
	"testing"

	"forecast-lab/internal/domain"
)

func TestPlatformScores_MeanAndFraction(t *testing.T) {
	st := domain.AbsoluteScoreType(domain.MetricBrier, domain.CriterionMidpoint)
	scores := []*domain.MarketScore{
		{MarketID: "k1", Platform: domain.PlatformKalshi, ScoreType: st, Score: 0.1},
		{MarketID: "k2", Platform: domain.PlatformKalshi, ScoreType: st, Score: 0.3},
		{MarketID: "p1", Platform: domain.PlatformPolymarket, ScoreType: st, Score: 0.2},
	}
	counts := map[domain.Platform]int{
		domain.PlatformKalshi:     4,
		domain.PlatformPolymarket: 1,
	}

	result := PlatformScores(scores, counts, 7)
	if len(result) != 2 {
		t.Fatalf("expected 2 platform scores, got %d", len(result))
	}

	// Stable order: kalshi before polymarket.
	kalshi, poly := result[0], result[1]
	if kalshi.Platform != domain.PlatformKalshi || poly.Platform != domain.PlatformPolymarket {
		t.Fatalf("unexpected order: %s, %s", kalshi.Platform, poly.Platform)
	}
	if math.Abs(kalshi.Score-0.2) > 1e-12 {
		t.Errorf("kalshi mean = %f, want 0.2", kalshi.Score)
	}
	if kalshi.SampleFraction != 0.5 || kalshi.Markets != 2 {
		t.Errorf("kalshi fraction = %f markets = %d, want 0.5 / 2", kalshi.SampleFraction, kalshi.Markets)
	}
	if poly.SampleFraction != 1.0 {
		t.Errorf("polymarket fraction = %f, want 1.0", poly.SampleFraction)
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("median odd = %f, want 2", got)
	}
	if got := median([]float64{4, 1, 3, 2}); got != 2.5 {
		t.Errorf("median even = %f, want 2.5", got)
	}
	if got := median(nil); got != 0 {
		t.Errorf("median empty = %f, want 0", got)
	}
	// Input must not be mutated.
	in := []float64{3, 1, 2}
	median(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("median mutated its input: %v", in)
	}
}
