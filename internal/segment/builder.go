// Package segment converts raw chronological probability-update events into
// validated, non-overlapping probability segments.
//
// Each platform reports probability-bearing values differently (trade price,
// post-bet probability, AMM probability-after), so construction goes through a
// per-platform Builder. Platform end/close timestamps are untrustworthy across
// all source platforms: the timeline is defined by the data itself, ending at
// the final observed event.
package segment

import (
	"fmt"
	"sort"

	"forecast-lab/internal/domain"
)

// Builder constructs probability segments from a market's raw events.
// Implementations normalize platform-native event values to probabilities
// before the shared sweep.
type Builder interface {
	// Platform returns the platform this builder handles.
	Platform() domain.Platform

	// BuildSegments converts raw events (unsorted-safe) into an ordered,
	// contiguous segment list. Returns an empty list for 0 or 1 events.
	BuildSegments(marketID string, events []*domain.ProbabilityEvent) ([]*domain.ProbSegment, error)
}

// BuilderFor returns the Builder for the given platform.
func BuilderFor(p domain.Platform) (Builder, error) {
	switch p {
	case domain.PlatformKalshi:
		return kalshiBuilder{}, nil
	case domain.PlatformManifold:
		return manifoldBuilder{}, nil
	case domain.PlatformMetaculus:
		return metaculusBuilder{}, nil
	case domain.PlatformPolymarket:
		return polymarketBuilder{}, nil
	}
	return nil, fmt.Errorf("no segment builder for platform %q", p)
}

// SortEvents orders events by timestamp ascending. The sort is stable: ties
// keep input order, so the platform-reported event sequence breaks them.
func SortEvents(events []*domain.ProbabilityEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].TimestampMs < events[j].TimestampMs
	})
}

// buildFromEvents runs the shared sweep over sorted events.
//
// Each event i (except the last) yields a segment from its timestamp to the
// next event's timestamp, carrying event i's probability. The last event only
// closes the second-to-last segment. Zero-duration segments from simultaneous
// events are dropped.
func buildFromEvents(marketID string, events []*domain.ProbabilityEvent, normalize func(float64) float64) []*domain.ProbSegment {
	if len(events) < 2 {
		return nil
	}

	sorted := make([]*domain.ProbabilityEvent, len(events))
	copy(sorted, events)
	SortEvents(sorted)

	segments := make([]*domain.ProbSegment, 0, len(sorted)-1)
	for i := 0; i < len(sorted)-1; i++ {
		start := sorted[i].TimestampMs
		end := sorted[i+1].TimestampMs
		if start == end {
			// Simultaneous events: the later one wins the interval.
			continue
		}
		segments = append(segments, &domain.ProbSegment{
			MarketID: marketID,
			StartMs:  start,
			EndMs:    end,
			Prob:     clampProb(normalize(sorted[i].Value)),
		})
	}
	return segments
}

func clampProb(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// kalshiBuilder builds segments from Kalshi trade ticks. Kalshi reports the
// YES-side trade price in cents.
type kalshiBuilder struct{}

func (kalshiBuilder) Platform() domain.Platform { return domain.PlatformKalshi }

func (kalshiBuilder) BuildSegments(marketID string, events []*domain.ProbabilityEvent) ([]*domain.ProbSegment, error) {
	return buildFromEvents(marketID, events, func(v float64) float64 { return v / 100 }), nil
}

// manifoldBuilder builds segments from Manifold bets, which carry the market
// probability after the bet executed.
type manifoldBuilder struct{}

func (manifoldBuilder) Platform() domain.Platform { return domain.PlatformManifold }

func (manifoldBuilder) BuildSegments(marketID string, events []*domain.ProbabilityEvent) ([]*domain.ProbSegment, error) {
	return buildFromEvents(marketID, events, func(v float64) float64 { return v }), nil
}

// metaculusBuilder builds segments from Metaculus community-prediction
// history points.
type metaculusBuilder struct{}

func (metaculusBuilder) Platform() domain.Platform { return domain.PlatformMetaculus }

func (metaculusBuilder) BuildSegments(marketID string, events []*domain.ProbabilityEvent) ([]*domain.ProbSegment, error) {
	return buildFromEvents(marketID, events, func(v float64) float64 { return v }), nil
}

// polymarketBuilder builds segments from Polymarket outcome-token price
// history, already quoted in [0,1].
type polymarketBuilder struct{}

func (polymarketBuilder) Platform() domain.Platform { return domain.PlatformPolymarket }

func (polymarketBuilder) BuildSegments(marketID string, events []*domain.ProbabilityEvent) ([]*domain.ProbSegment, error) {
	return buildFromEvents(marketID, events, func(v float64) float64 { return v }), nil
}
