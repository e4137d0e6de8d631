// Package grading maps numeric forecast scores to letter grades via fixed,
// calibrated cutoff tables.
package grading

import (
	"fmt"
	"math"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/scoring"
)

// GradeError is the sentinel grade for scores no cutoff covers.
const GradeError = "?"

// absoluteCutoff is one row of the absolute grading table: the grade applies
// to any Brier-normalized score up to and including MaxBrier.
type absoluteCutoff struct {
	MaxBrier float64
	Grade    string
}

// absoluteCutoffs is scanned in ascending order; cutoffs are the Brier scores
// of implied probabilities 0.95 down to 0.35 against resolution 1, with F
// covering the rest of the Brier range.
var absoluteCutoffs = []absoluteCutoff{
	{0.0025, "S"},
	{0.01, "A+"},
	{0.0225, "A"},
	{0.04, "A-"},
	{0.0625, "B+"},
	{0.09, "B"},
	{0.1225, "B-"},
	{0.16, "C+"},
	{0.2025, "C"},
	{0.25, "C-"},
	{0.3025, "D+"},
	{0.36, "D"},
	{0.4225, "D-"},
	{1.0, "F"},
}

// relativeGrades pairs each boundary (as a multiple of the metric's width,
// descending) with the grade earned by beating it. C+ sits exactly at the
// zero (baseline-equal) boundary; scores below every boundary grade F.
var relativeGrades = []struct {
	Multiple float64
	Grade    string
}{
	{35, "S"},
	{20, "A+"},
	{8, "A"},
	{5, "A-"},
	{4, "B+"},
	{2, "B"},
	{1, "B-"},
	{0, "C+"},
	{-1, "C"},
	{-2, "C-"},
	{-4, "D+"},
	{-8, "D"},
	{-12, "D-"},
}

// relativeWidths is the scale unit of each metric's relative grading ladder.
var relativeWidths = map[domain.Metric]float64{
	domain.MetricBrier:       0.01,
	domain.MetricLogarithmic: 0.05,
	domain.MetricSpherical:   0.01,
}

// Absolute grades an absolute score of any metric. Scores are first
// normalized to an equivalent Brier value: Brier passes through; Logarithmic
// and Spherical are inverted (assuming resolution 1) to the implied
// probability, then re-scored as Brier against 1.
func Absolute(m domain.Metric, score float64) (string, error) {
	normalized, err := normalizeToBrier(m, score)
	if err != nil {
		return GradeError, err
	}
	if math.IsNaN(normalized) {
		return GradeError, fmt.Errorf("cannot grade non-finite %s score %f", m, score)
	}

	for _, c := range absoluteCutoffs {
		if normalized <= c.MaxBrier {
			return c.Grade, nil
		}
	}
	return GradeError, fmt.Errorf("%s score %f normalizes to %f, beyond the grading table", m, score, normalized)
}

// Relative grades a baseline-adjusted score. The comparison direction follows
// the metric: outperforming the baseline always grades better than C+,
// whether the metric rewards high or low values.
func Relative(m domain.Metric, score float64) (string, error) {
	width, ok := relativeWidths[m]
	if !ok {
		return GradeError, fmt.Errorf("unknown metric %q", m)
	}
	if math.IsNaN(score) {
		return GradeError, fmt.Errorf("cannot grade non-finite %s relative score", m)
	}

	// Normalize so positive always means "beat the baseline".
	outperformance := score
	if !scoring.HigherIsBetter(m) {
		outperformance = -score
	}

	for _, g := range relativeGrades {
		if outperformance >= g.Multiple*width {
			return g.Grade, nil
		}
	}
	return "F", nil
}

func normalizeToBrier(m domain.Metric, score float64) (float64, error) {
	if m == domain.MetricBrier {
		return score, nil
	}
	implied, err := scoring.Invert(m, score)
	if err != nil {
		return 0, err
	}
	normalized, err := scoring.Score(domain.MetricBrier, implied, 1)
	if err != nil {
		return 0, err
	}
	return normalized, nil
}
