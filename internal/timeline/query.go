// Package timeline answers probability queries against a validated,
// time-ascending segment list.
package timeline

import (
	"errors"
	"fmt"

	"forecast-lab/internal/domain"
)

// DefaultProb is returned for queries against an empty timeline: maximal
// uncertainty absent data. Only callers that tolerate this default query
// empty timelines.
const DefaultProb = 0.5

// Errors returned by query functions.
var (
	// ErrOutOfRange is returned when a point query falls outside a non-empty
	// timeline. Out-of-range queries are never silently clamped; the one
	// exception is the timeline's own close timestamp, which returns the
	// final segment's probability.
	ErrOutOfRange = errors.New("timestamp outside timeline")

	// ErrInvalidWindow is returned when a window's end is not after its start.
	ErrInvalidWindow = errors.New("window end must be after start")

	// ErrNoOverlap is returned when an average window does not overlap any
	// segment of a non-empty timeline.
	ErrNoOverlap = errors.New("window does not overlap timeline")
)

// ProbAt returns the probability at time tMs: the Prob of the segment where
// StartMs <= tMs < EndMs. An empty timeline yields DefaultProb. Querying
// exactly the timeline's close returns the final segment's probability.
func ProbAt(segments []*domain.ProbSegment, tMs int64) (float64, error) {
	if len(segments) == 0 {
		return DefaultProb, nil
	}

	last := segments[len(segments)-1]
	if tMs == last.EndMs {
		return last.Prob, nil
	}

	for _, s := range segments {
		if s.StartMs <= tMs && tMs < s.EndMs {
			return s.Prob, nil
		}
	}

	return 0, fmt.Errorf("t=%d not in [%d, %d]: %w", tMs, segments[0].StartMs, last.EndMs, ErrOutOfRange)
}

// ProbTimeAvg returns the duration-weighted mean probability over
// [startMs, endMs). Each segment contributes its probability weighted by its
// overlap with the window. An empty timeline yields DefaultProb.
func ProbTimeAvg(segments []*domain.ProbSegment, startMs, endMs int64) (float64, error) {
	if endMs <= startMs {
		return 0, fmt.Errorf("window [%d, %d): %w", startMs, endMs, ErrInvalidWindow)
	}
	if len(segments) == 0 {
		return DefaultProb, nil
	}

	var weightedSum, totalWeight float64
	for _, s := range segments {
		lo := max64(s.StartMs, startMs)
		hi := min64(s.EndMs, endMs)
		if hi <= lo {
			continue
		}
		w := float64(hi - lo)
		weightedSum += s.Prob * w
		totalWeight += w
	}

	if totalWeight == 0 {
		return 0, fmt.Errorf("window [%d, %d): %w", startMs, endMs, ErrNoOverlap)
	}
	return weightedSum / totalWeight, nil
}

// ProbAtPercent returns the probability at the given fraction of the window:
// t = startMs + (endMs-startMs)*pct. pct=0.5 is the midpoint; pct=1.0 is "at
// close", which equals the final segment's probability when the window is the
// timeline's own span.
func ProbAtPercent(segments []*domain.ProbSegment, startMs, endMs int64, pct float64) (float64, error) {
	if endMs <= startMs {
		return 0, fmt.Errorf("window [%d, %d): %w", startMs, endMs, ErrInvalidWindow)
	}
	t := startMs + int64(float64(endMs-startMs)*pct)
	return ProbAt(segments, t)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
