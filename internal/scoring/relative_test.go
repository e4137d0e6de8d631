package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"forecast-lab/internal/domain"
)

func noonMs(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC).UnixMilli()
}

func strPtr(s string) *string { return &s }

func relMarket(id string, platform domain.Platform, resolution float64) *domain.Market {
	return &domain.Market{
		ID:         id,
		Platform:   platform,
		PlatformID: id,
		Resolution: resolution,
		QuestionID: strPtr("q1"),
	}
}

func dailySeries(marketID string, probs map[int64]float64) []*domain.DailyProbability {
	var out []*domain.DailyProbability
	for ts, p := range probs {
		out = append(out, &domain.DailyProbability{MarketID: marketID, TimestampMs: ts, Prob: p})
	}
	return out
}

func TestRelativeScores_ThreeMarketOrdering(t *testing.T) {
	day1 := noonMs(2023, time.January, 1)
	day2 := noonMs(2023, time.January, 2)

	markets := []*domain.Market{
		relMarket("m1", domain.PlatformKalshi, 1),
		relMarket("m2", domain.PlatformManifold, 1),
		relMarket("m3", domain.PlatformPolymarket, 1),
	}
	dailies := map[string][]*domain.DailyProbability{
		"m1": dailySeries("m1", map[int64]float64{day1: 0.8, day2: 0.9}),
		"m2": dailySeries("m2", map[int64]float64{day1: 0.6, day2: 0.7}),
		"m3": dailySeries("m3", map[int64]float64{day1: 0.4, day2: 0.5}),
	}

	scores, err := RelativeScores("q1", markets, dailies, domain.MetricBrier, 0)
	if err != nil {
		t.Fatalf("RelativeScores: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}

	byID := make(map[string]float64)
	for _, s := range scores {
		byID[s.MarketID] = s.Score
	}

	// Day 1 Brier: 0.04, 0.16, 0.36 (baseline 0.16); day 2: 0.01, 0.09, 0.25
	// (baseline 0.09). Means: m1 = -0.10, m2 = 0, m3 = +0.18.
	if math.Abs(byID["m1"]-(-0.10)) > 1e-12 {
		t.Errorf("m1 score = %f, want -0.10", byID["m1"])
	}
	if math.Abs(byID["m2"]) > 1e-12 {
		t.Errorf("m2 score = %f, want 0", byID["m2"])
	}
	if math.Abs(byID["m3"]-0.18) > 1e-12 {
		t.Errorf("m3 score = %f, want 0.18", byID["m3"])
	}

	// For Brier deltas, lower is better: closest to resolution wins.
	if !(byID["m1"] < byID["m2"] && byID["m2"] < byID["m3"]) {
		t.Errorf("expected m1 < m2 < m3, got %v", byID)
	}
}

func TestRelativeScores_TooFewMarkets(t *testing.T) {
	markets := []*domain.Market{relMarket("m1", domain.PlatformKalshi, 1)}
	dailies := map[string][]*domain.DailyProbability{
		"m1": dailySeries("m1", map[int64]float64{noonMs(2023, time.January, 1): 0.5}),
	}

	scores, err := RelativeScores("q1", markets, dailies, domain.MetricBrier, 0)
	if !errors.Is(err, ErrTooFewMarkets) {
		t.Errorf("expected ErrTooFewMarkets, got %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected no scores, got %d", len(scores))
	}
}

func TestRelativeScores_ResolutionMismatch(t *testing.T) {
	day := noonMs(2023, time.January, 1)
	markets := []*domain.Market{
		relMarket("m1", domain.PlatformKalshi, 1),
		relMarket("m2", domain.PlatformManifold, 0),
	}
	dailies := map[string][]*domain.DailyProbability{
		"m1": dailySeries("m1", map[int64]float64{day: 0.5}),
		"m2": dailySeries("m2", map[int64]float64{day: 0.5}),
	}

	if _, err := RelativeScores("q1", markets, dailies, domain.MetricBrier, 0); !errors.Is(err, ErrResolutionMismatch) {
		t.Errorf("expected ErrResolutionMismatch, got %v", err)
	}
}

func TestRelativeScores_InversionReconcilesResolutions(t *testing.T) {
	// m2 tracks the complement: resolution 0, inverted, agrees with m1.
	day1 := noonMs(2023, time.January, 1)
	day2 := noonMs(2023, time.January, 2)

	m2 := relMarket("m2", domain.PlatformManifold, 0)
	m2.QuestionInvert = true
	markets := []*domain.Market{relMarket("m1", domain.PlatformKalshi, 1), m2}

	dailies := map[string][]*domain.DailyProbability{
		"m1": dailySeries("m1", map[int64]float64{day1: 0.8, day2: 0.8}),
		// Inverted prediction: 1 - 0.3 = 0.7, slightly worse than m1's 0.8.
		"m2": dailySeries("m2", map[int64]float64{day1: 0.3, day2: 0.3}),
	}

	scores, err := RelativeScores("q1", markets, dailies, domain.MetricBrier, 0)
	if err != nil {
		t.Fatalf("RelativeScores: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}

	byID := make(map[string]float64)
	for _, s := range scores {
		byID[s.MarketID] = s.Score
	}
	if !(byID["m1"] < byID["m2"]) {
		t.Errorf("expected m1 to beat m2 after inversion, got %v", byID)
	}
}

func TestRelativeScores_ClippingRemovesAllPoints(t *testing.T) {
	day := noonMs(2023, time.January, 1)
	clipStart := noonMs(2023, time.June, 1)

	m1 := relMarket("m1", domain.PlatformKalshi, 1)
	m1.StartDateOverrideMs = &clipStart
	markets := []*domain.Market{m1, relMarket("m2", domain.PlatformManifold, 1)}

	dailies := map[string][]*domain.DailyProbability{
		"m1": dailySeries("m1", map[int64]float64{day: 0.5}),
		"m2": dailySeries("m2", map[int64]float64{day: 0.5}),
	}

	if _, err := RelativeScores("q1", markets, dailies, domain.MetricBrier, 0); !errors.Is(err, ErrNoPointsInRange) {
		t.Errorf("expected ErrNoPointsInRange, got %v", err)
	}
}

func TestRelativeScores_SecondEarliestRangeExcludesSoloDays(t *testing.T) {
	// m1 opens two days before m2; those solo days must not be scored.
	jan1 := noonMs(2023, time.January, 1)
	jan2 := noonMs(2023, time.January, 2)
	jan3 := noonMs(2023, time.January, 3)
	jan4 := noonMs(2023, time.January, 4)

	markets := []*domain.Market{
		relMarket("m1", domain.PlatformKalshi, 1),
		relMarket("m2", domain.PlatformManifold, 1),
	}
	dailies := map[string][]*domain.DailyProbability{
		"m1": dailySeries("m1", map[int64]float64{jan1: 0.1, jan2: 0.1, jan3: 0.8, jan4: 0.8}),
		"m2": dailySeries("m2", map[int64]float64{jan3: 0.8, jan4: 0.8}),
	}

	scores, err := RelativeScores("q1", markets, dailies, domain.MetricBrier, 0)
	if err != nil {
		t.Fatalf("RelativeScores: %v", err)
	}

	// Only Jan 3-4 are scored, where both markets predict 0.8: every daily
	// delta is zero for both.
	for _, s := range scores {
		if s.Score != 0 {
			t.Errorf("market %s score = %f, want 0 (solo days excluded)", s.MarketID, s.Score)
		}
	}
	if len(scores) != 2 {
		t.Errorf("expected 2 scores, got %d", len(scores))
	}
}

func TestRelativeScores_ScoreTypeAndPlatformStamped(t *testing.T) {
	day1 := noonMs(2023, time.January, 1)
	day2 := noonMs(2023, time.January, 2)
	markets := []*domain.Market{
		relMarket("m1", domain.PlatformKalshi, 1),
		relMarket("m2", domain.PlatformManifold, 1),
	}
	dailies := map[string][]*domain.DailyProbability{
		"m1": dailySeries("m1", map[int64]float64{day1: 0.6, day2: 0.6}),
		"m2": dailySeries("m2", map[int64]float64{day1: 0.4, day2: 0.4}),
	}

	scores, err := RelativeScores("q1", markets, dailies, domain.MetricSpherical, 99)
	if err != nil {
		t.Fatalf("RelativeScores: %v", err)
	}
	for _, s := range scores {
		if s.ScoreType != domain.RelativeScoreType(domain.MetricSpherical) {
			t.Errorf("score type = %s, want %s", s.ScoreType, domain.RelativeScoreType(domain.MetricSpherical))
		}
		if s.CreatedAt != 99 {
			t.Errorf("created at = %d, want 99", s.CreatedAt)
		}
	}
}
