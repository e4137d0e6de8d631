package scoring

import (
	"sort"

	"forecast-lab/internal/domain"
)

// PlatformScores aggregates market scores into one mean score per
// (platform, score type). marketsPerPlatform is the total number of markets
// each platform contributed to the batch; SampleFraction reports how many of
// those actually received the score type. Output order is stable:
// platform, then score type.
func PlatformScores(
	scores []*domain.MarketScore,
	marketsPerPlatform map[domain.Platform]int,
	nowMs int64,
) []*domain.PlatformScore {
	type key struct {
		platform  domain.Platform
		scoreType domain.ScoreType
	}

	grouped := make(map[key][]float64)
	for _, s := range scores {
		k := key{s.Platform, s.ScoreType}
		grouped[k] = append(grouped[k], s.Score)
	}

	keys := make([]key, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].platform != keys[j].platform {
			return keys[i].platform < keys[j].platform
		}
		return keys[i].scoreType < keys[j].scoreType
	})

	result := make([]*domain.PlatformScore, 0, len(keys))
	for _, k := range keys {
		values := grouped[k]
		fraction := 0.0
		if total := marketsPerPlatform[k.platform]; total > 0 {
			fraction = float64(len(values)) / float64(total)
		}
		result = append(result, &domain.PlatformScore{
			Platform:       k.platform,
			ScoreType:      k.scoreType,
			Score:          mean(values),
			SampleFraction: fraction,
			Markets:        len(values),
			CreatedAt:      nowMs,
		})
	}
	return result
}
