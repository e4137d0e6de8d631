package scoring

import (
	"fmt"

	"forecast-lab/internal/domain"
)

// AbsoluteScores scores one market's criterion samples: every metric crossed
// with every requested criterion the market has a sample for. A missing
// sample omits that (market, score type) pair and is reported in errs; it
// never aborts the rest of the market's scores.
//
// Grades are left empty; the caller applies the grade classifier.
func AbsoluteScores(
	m *domain.Market,
	samples []*domain.CriterionProbability,
	criteria []domain.CriterionType,
	nowMs int64,
) (scores []*domain.MarketScore, errs []error) {
	byType := make(map[domain.CriterionType]float64, len(samples))
	for _, s := range samples {
		byType[s.Criterion] = s.Prob
	}

	for _, c := range criteria {
		prob, ok := byType[c]
		if !ok {
			errs = append(errs, fmt.Errorf("market %s: no sample for criterion %s", m.ID, c))
			continue
		}
		for _, metric := range domain.AllMetrics {
			score, err := Score(metric, prob, m.Resolution)
			if err != nil {
				errs = append(errs, fmt.Errorf("market %s criterion %s: %w", m.ID, c, err))
				continue
			}
			scores = append(scores, &domain.MarketScore{
				MarketID:  m.ID,
				Platform:  m.Platform,
				ScoreType: domain.AbsoluteScoreType(metric, c),
				Score:     score,
				CreatedAt: nowMs,
			})
		}
	}
	return scores, errs
}
