package criteria

import (
	"math"
	"testing"
	"time"

	"forecast-lab/internal/domain"
)

func hoursMs(h int) int64 { return int64(h) * int64(time.Hour/time.Millisecond) }

// 48-hour market: first half at 0.3, second half at 0.7.
func twoDaySegments() []*domain.ProbSegment {
	return []*domain.ProbSegment{
		{MarketID: "m1", StartMs: 0, EndMs: hoursMs(24), Prob: 0.3},
		{MarketID: "m1", StartMs: hoursMs(24), EndMs: hoursMs(48), Prob: 0.7},
	}
}

func findResult(t *testing.T, results []*domain.CriterionProbability, c domain.CriterionType) *domain.CriterionProbability {
	t.Helper()
	for _, r := range results {
		if r.Criterion == c {
			return r
		}
	}
	return nil
}

func TestEvaluate_PositionalAndIntegralCriteria(t *testing.T) {
	results, errs := Evaluate("m1", twoDaySegments())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	// Midpoint at t=24h falls in the second segment.
	if r := findResult(t, results, domain.CriterionMidpoint); r == nil || r.Prob != 0.7 {
		t.Errorf("midpoint = %+v, want 0.7", r)
	}
	// Time average: equal halves of 0.3 and 0.7.
	if r := findResult(t, results, domain.CriterionTimeAverage); r == nil || math.Abs(r.Prob-0.5) > 1e-12 {
		t.Errorf("time average = %+v, want 0.5", r)
	}
	if r := findResult(t, results, domain.CriterionDurationPercent25); r == nil || r.Prob != 0.3 {
		t.Errorf("duration-percent-25 = %+v, want 0.3", r)
	}
	if r := findResult(t, results, domain.CriterionDurationPercent75); r == nil || r.Prob != 0.7 {
		t.Errorf("duration-percent-75 = %+v, want 0.7", r)
	}
}

func TestEvaluate_BeforeCloseSkipSemantics(t *testing.T) {
	results, errs := Evaluate("m1", twoDaySegments())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	// 12h and 24h before close are inside the 48h window.
	if r := findResult(t, results, domain.CriterionBeforeCloseHours12); r == nil || r.Prob != 0.7 {
		t.Errorf("before-close-12h = %+v, want 0.7", r)
	}
	if r := findResult(t, results, domain.CriterionBeforeCloseHours24); r == nil || r.Prob != 0.7 {
		t.Errorf("before-close-24h = %+v, want 0.7", r)
	}

	// Every Days* offset exceeds the 48h duration and must be skipped.
	for _, c := range []domain.CriterionType{
		domain.CriterionBeforeCloseDays7,
		domain.CriterionBeforeCloseDays30,
		domain.CriterionBeforeCloseDays60,
		domain.CriterionBeforeCloseDays90,
		domain.CriterionBeforeCloseDays180,
		domain.CriterionBeforeCloseDays365,
	} {
		if r := findResult(t, results, c); r != nil {
			t.Errorf("criterion %s should be skipped for a 48h market, got %+v", c, r)
		}
	}
}

func TestEvaluate_OffsetEqualToDurationIsSkipped(t *testing.T) {
	// Exactly 24 hours long: t = close - 24h == open, which is skipped.
	segments := []*domain.ProbSegment{
		{MarketID: "m1", StartMs: 0, EndMs: hoursMs(24), Prob: 0.5},
	}

	results, errs := Evaluate("m1", segments)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if r := findResult(t, results, domain.CriterionBeforeCloseHours24); r != nil {
		t.Errorf("offset equal to duration should be skipped, got %+v", r)
	}
	if r := findResult(t, results, domain.CriterionBeforeCloseHours12); r == nil || r.Prob != 0.5 {
		t.Errorf("before-close-12h = %+v, want 0.5", r)
	}
}

func TestEvaluate_EmptySegments(t *testing.T) {
	results, errs := Evaluate("m1", nil)
	if len(results) != 0 || len(errs) != 0 {
		t.Errorf("expected no results and no errors for empty segments, got %d/%d", len(results), len(errs))
	}
}
