package segment

import (
	"errors"
	"testing"

	"forecast-lab/internal/domain"
)

func TestValidate_ContiguousSegments(t *testing.T) {
	segments := []*domain.ProbSegment{
		{MarketID: "m1", StartMs: 1000, EndMs: 2000, Prob: 0.4},
		{MarketID: "m1", StartMs: 2000, EndMs: 3000, Prob: 0.6},
	}

	if err := Validate(segments); err != nil {
		t.Errorf("contiguous segments should validate: %v", err)
	}
}

func TestValidate_Gap(t *testing.T) {
	segments := []*domain.ProbSegment{
		{MarketID: "m1", StartMs: 1000, EndMs: 2000, Prob: 0.4},
		{MarketID: "m1", StartMs: 2001, EndMs: 3000, Prob: 0.6},
	}

	err := Validate(segments)
	if !errors.Is(err, ErrGap) {
		t.Errorf("expected ErrGap, got %v", err)
	}
}

func TestValidate_Overlap(t *testing.T) {
	segments := []*domain.ProbSegment{
		{MarketID: "m1", StartMs: 1000, EndMs: 3000, Prob: 0.4},
		{MarketID: "m1", StartMs: 2000, EndMs: 4000, Prob: 0.6},
	}

	err := Validate(segments)
	if !errors.Is(err, ErrOverlap) {
		t.Errorf("expected ErrOverlap, got %v", err)
	}
}

func TestValidate_NonPositiveDuration(t *testing.T) {
	segments := []*domain.ProbSegment{
		{MarketID: "m1", StartMs: 2000, EndMs: 2000, Prob: 0.4},
	}

	err := Validate(segments)
	if !errors.Is(err, ErrNonPositiveDuration) {
		t.Errorf("expected ErrNonPositiveDuration, got %v", err)
	}
}

func TestValidate_DurationCheckedBeforeAdjacency(t *testing.T) {
	// First segment is degenerate and the pair also has a gap; duration is
	// reported first.
	segments := []*domain.ProbSegment{
		{MarketID: "m1", StartMs: 1000, EndMs: 1000, Prob: 0.4},
		{MarketID: "m1", StartMs: 5000, EndMs: 6000, Prob: 0.6},
	}

	err := Validate(segments)
	if !errors.Is(err, ErrNonPositiveDuration) {
		t.Errorf("expected ErrNonPositiveDuration, got %v", err)
	}
}

func TestValidate_TrivialLists(t *testing.T) {
	if err := Validate(nil); err != nil {
		t.Errorf("empty list should validate: %v", err)
	}
	one := []*domain.ProbSegment{{MarketID: "m1", StartMs: 1000, EndMs: 2000, Prob: 0.5}}
	if err := Validate(one); err != nil {
		t.Errorf("single-segment list should validate: %v", err)
	}
}
