package timeline

import (
	"time"

	"forecast-lab/internal/domain"
)

const (
	msPerDay  = int64(24 * time.Hour / time.Millisecond)
	msPerNoon = msPerDay / 2
)

// DailyProbabilities partitions the timeline's span into UTC-midnight-aligned
// day buckets and computes the time-weighted average probability over each
// day's covered portion. Days at the edges need not be fully covered; the
// average is taken over whatever overlap exists. Each result is labeled at the
// day's noon. An empty timeline yields an empty result.
func DailyProbabilities(marketID string, segments []*domain.ProbSegment) []*domain.DailyProbability {
	if len(segments) == 0 {
		return nil
	}

	spanStart := segments[0].StartMs
	spanEnd := segments[len(segments)-1].EndMs

	var result []*domain.DailyProbability
	for day := truncateToUTCDay(spanStart); day < spanEnd; day += msPerDay {
		avg, err := ProbTimeAvg(segments, day, day+msPerDay)
		if err != nil {
			// A gap-free timeline overlaps every day of its span; a day
			// without overlap cannot occur on validated input.
			continue
		}
		result = append(result, &domain.DailyProbability{
			MarketID:    marketID,
			TimestampMs: day + msPerNoon,
			Prob:        avg,
		})
	}
	return result
}

// TruncateToUTCDay returns the UTC midnight at or before tMs, in milliseconds.
func TruncateToUTCDay(tMs int64) int64 {
	return truncateToUTCDay(tMs)
}

func truncateToUTCDay(tMs int64) int64 {
	t := time.UnixMilli(tMs).UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.UnixMilli()
}
