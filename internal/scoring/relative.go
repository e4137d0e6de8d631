package scoring

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"

	"forecast-lab/internal/domain"
)

// Relative-scoring group errors. Each aborts the whole question group.
var (
	ErrTooFewMarkets      = errors.New("relative scoring requires at least two markets")
	ErrResolutionMismatch = errors.New("markets disagree on consensus resolution")
	ErrNoPointsInRange    = errors.New("market has no probability points in range")
)

// RelativeScores computes baseline-adjusted scores for one question group:
// the set of markets sharing a question id, each with its daily probability
// series keyed by market id.
//
// For every date on which at least two markets were live, each present
// market's daily score is its absolute score minus the median absolute score
// of all present markets. A market's final score is the mean of its daily
// deltas. The scored date range deliberately runs from the second-earliest
// market open to the second-latest market close, so scoring only happens
// while a comparison set exists.
//
// Grades are left empty; the caller applies the grade classifier.
func RelativeScores(
	questionID string,
	markets []*domain.Market,
	dailies map[string][]*domain.DailyProbability,
	metric domain.Metric,
	nowMs int64,
) ([]*domain.MarketScore, error) {
	if len(markets) < 2 {
		return nil, fmt.Errorf("question %s has %d markets: %w", questionID, len(markets), ErrTooFewMarkets)
	}

	consensus, err := consensusResolution(questionID, markets)
	if err != nil {
		return nil, err
	}

	clipped := make(map[string][]*domain.DailyProbability, len(markets))
	for _, m := range markets {
		series := clipSeries(m, dailies[m.ID])
		if len(series) == 0 {
			return nil, fmt.Errorf("question %s market %s: %w", questionID, m.ID, ErrNoPointsInRange)
		}
		clipped[m.ID] = series
	}

	rangeStart, rangeEnd, ok := scoredDateRange(markets, clipped)
	if !ok {
		return nil, nil
	}

	dates := collectDates(clipped, rangeStart, rangeEnd)

	// Per-date baseline and deltas (map over dates), then reduce per market
	// by averaging.
	deltas := make(map[string][]float64, len(markets))
	for _, date := range dates {
		var present []*domain.Market
		var absScores []float64
		for _, m := range markets {
			prob, ok := probOn(clipped[m.ID], date)
			if !ok {
				continue
			}
			prediction := prob
			if m.QuestionInvert {
				prediction = 1 - prob
			}
			score, err := Score(metric, prediction, consensus)
			if err != nil {
				return nil, fmt.Errorf("question %s market %s: %w", questionID, m.ID, err)
			}
			present = append(present, m)
			absScores = append(absScores, score)
		}
		if len(present) == 0 {
			continue
		}

		baseline := median(absScores)
		for i, m := range present {
			deltas[m.ID] = append(deltas[m.ID], absScores[i]-baseline)
		}
	}

	var scores []*domain.MarketScore
	for _, m := range markets {
		d := deltas[m.ID]
		if len(d) == 0 {
			// Present on zero scored days: dropped silently.
			continue
		}
		score := mean(d)
		if math.IsNaN(score) || math.IsInf(score, 0) {
			log.Printf("[scoring] question %s market %s: dropping non-finite %s relative score", questionID, m.ID, metric)
			continue
		}
		scores = append(scores, &domain.MarketScore{
			MarketID:  m.ID,
			Platform:  m.Platform,
			ScoreType: domain.RelativeScoreType(metric),
			Score:     score,
			CreatedAt: nowMs,
		})
	}
	return scores, nil
}

// consensusResolution applies each market's inversion flag and requires the
// group to agree on the resulting value.
func consensusResolution(questionID string, markets []*domain.Market) (float64, error) {
	adjust := func(m *domain.Market) float64 {
		if m.QuestionInvert {
			return 1 - m.Resolution
		}
		return m.Resolution
	}

	consensus := adjust(markets[0])
	for _, m := range markets[1:] {
		if adjust(m) != consensus {
			return 0, fmt.Errorf("question %s: market %s resolves to %f, group consensus %f: %w",
				questionID, m.ID, adjust(m), consensus, ErrResolutionMismatch)
		}
	}
	return consensus, nil
}

// clipSeries returns the market's series restricted to its date-range
// overrides (inclusive), sorted by timestamp.
func clipSeries(m *domain.Market, series []*domain.DailyProbability) []*domain.DailyProbability {
	out := make([]*domain.DailyProbability, 0, len(series))
	for _, p := range series {
		if m.StartDateOverrideMs != nil && p.TimestampMs < *m.StartDateOverrideMs {
			continue
		}
		if m.EndDateOverrideMs != nil && p.TimestampMs > *m.EndDateOverrideMs {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimestampMs < out[j].TimestampMs })
	return out
}

// scoredDateRange returns [second-earliest first date, second-latest last
// date]. ok is false when the range is empty, meaning no two markets were
// ever simultaneously live.
func scoredDateRange(markets []*domain.Market, clipped map[string][]*domain.DailyProbability) (startMs, endMs int64, ok bool) {
	firsts := make([]int64, 0, len(markets))
	lasts := make([]int64, 0, len(markets))
	for _, m := range markets {
		series := clipped[m.ID]
		firsts = append(firsts, series[0].TimestampMs)
		lasts = append(lasts, series[len(series)-1].TimestampMs)
	}
	sort.Slice(firsts, func(i, j int) bool { return firsts[i] < firsts[j] })
	sort.Slice(lasts, func(i, j int) bool { return lasts[i] < lasts[j] })

	startMs = firsts[1]
	endMs = lasts[len(lasts)-2]
	return startMs, endMs, startMs <= endMs
}

// collectDates gathers the distinct point timestamps across all markets that
// fall inside [startMs, endMs], sorted ascending.
func collectDates(clipped map[string][]*domain.DailyProbability, startMs, endMs int64) []int64 {
	seen := make(map[int64]struct{})
	for _, series := range clipped {
		for _, p := range series {
			if p.TimestampMs >= startMs && p.TimestampMs <= endMs {
				seen[p.TimestampMs] = struct{}{}
			}
		}
	}

	dates := make([]int64, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })
	return dates
}

func probOn(series []*domain.DailyProbability, date int64) (float64, bool) {
	for _, p := range series {
		if p.TimestampMs == date {
			return p.Prob, true
		}
	}
	return 0, false
}
