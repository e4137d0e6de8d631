// Package criteria evaluates the fixed catalogue of named probability samples
// per market. The samples feed calibration plots generated downstream.
package criteria

import (
	"fmt"
	"time"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/timeline"
)

const msPerHour = int64(time.Hour / time.Millisecond)

// beforeCloseOffsets maps each BeforeClose* criterion to its offset before
// the market's close, in milliseconds.
var beforeCloseOffsets = map[domain.CriterionType]int64{
	domain.CriterionBeforeCloseHours12: 12 * msPerHour,
	domain.CriterionBeforeCloseHours24: 24 * msPerHour,
	domain.CriterionBeforeCloseDays7:   7 * 24 * msPerHour,
	domain.CriterionBeforeCloseDays30:  30 * 24 * msPerHour,
	domain.CriterionBeforeCloseDays60:  60 * 24 * msPerHour,
	domain.CriterionBeforeCloseDays90:  90 * 24 * msPerHour,
	domain.CriterionBeforeCloseDays180: 180 * 24 * msPerHour,
	domain.CriterionBeforeCloseDays365: 365 * 24 * msPerHour,
}

// Evaluate computes every computable criterion in the catalogue for one
// market's validated segments. The market's [open, close) window is the
// segments' own span. Criteria whose offset exceeds the market's duration are
// skipped, not errors; a failing query aborts only that criterion and is
// reported in errs.
func Evaluate(marketID string, segments []*domain.ProbSegment) (results []*domain.CriterionProbability, errs []error) {
	if len(segments) == 0 {
		return nil, nil
	}

	openMs := segments[0].StartMs
	closeMs := segments[len(segments)-1].EndMs

	for _, c := range domain.AllCriteria {
		prob, skipped, err := evaluateOne(c, segments, openMs, closeMs)
		if err != nil {
			errs = append(errs, fmt.Errorf("market %s criterion %s: %w", marketID, c, err))
			continue
		}
		if skipped {
			continue
		}
		results = append(results, &domain.CriterionProbability{
			MarketID:  marketID,
			Criterion: c,
			Prob:      prob,
		})
	}
	return results, errs
}

func evaluateOne(c domain.CriterionType, segments []*domain.ProbSegment, openMs, closeMs int64) (prob float64, skipped bool, err error) {
	switch c {
	case domain.CriterionMidpoint:
		prob, err = timeline.ProbAtPercent(segments, openMs, closeMs, 0.5)
	case domain.CriterionTimeAverage:
		prob, err = timeline.ProbTimeAvg(segments, openMs, closeMs)
	case domain.CriterionDurationPercent25:
		prob, err = timeline.ProbAtPercent(segments, openMs, closeMs, 0.25)
	case domain.CriterionDurationPercent75:
		prob, err = timeline.ProbAtPercent(segments, openMs, closeMs, 0.75)
	default:
		offset, ok := beforeCloseOffsets[c]
		if !ok {
			return 0, false, fmt.Errorf("unknown criterion %q", c)
		}
		t := closeMs - offset
		if t <= openMs {
			// Offset exceeds the market's actual duration.
			return 0, true, nil
		}
		prob, err = timeline.ProbAt(segments, t)
	}
	return prob, false, err
}
