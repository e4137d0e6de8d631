// Package scoring computes forecast-accuracy scores: absolute per-market
// scores against criterion samples, and relative per-question-group scores
// against the median of sibling markets.
package scoring

import (
	"fmt"
	"math"

	"forecast-lab/internal/domain"
)

// Score evaluates metric m for prediction p in [0,1] against outcome r in
// [0,1]. Brier is an error (lower is better, range [0,1]); Logarithmic and
// Spherical are rewards (higher is better).
func Score(m domain.Metric, p, r float64) (float64, error) {
	switch m {
	case domain.MetricBrier:
		return brierScore(p, r), nil
	case domain.MetricLogarithmic:
		return logScore(p, r), nil
	case domain.MetricSpherical:
		return sphericalScore(p, r), nil
	}
	return 0, fmt.Errorf("unknown metric %q", m)
}

// Invert reconstructs the implied prediction from a score, assuming the
// outcome resolved to 1. Used only for grade normalization.
func Invert(m domain.Metric, score float64) (float64, error) {
	switch m {
	case domain.MetricBrier:
		return invertBrier(score), nil
	case domain.MetricLogarithmic:
		return invertLog(score), nil
	case domain.MetricSpherical:
		return invertSpherical(score), nil
	}
	return 0, fmt.Errorf("unknown metric %q", m)
}

// HigherIsBetter reports the direction of metric m.
func HigherIsBetter(m domain.Metric) bool {
	return m != domain.MetricBrier
}

func brierScore(p, r float64) float64 {
	d := p - r
	return d * d
}

// logScore is r*ln(p) + (1-r)*ln(1-p). The certain-and-wrong corners are
// mathematically -inf and clamp to the most negative finite float; the
// certain-and-right corners are exactly 0.
func logScore(p, r float64) float64 {
	switch {
	case (p == 0 && r == 1) || (p == 1 && r == 0):
		return -math.MaxFloat64
	case (p == 1 && r == 1) || (p == 0 && r == 0):
		return 0
	}

	s := r*math.Log(p) + (1-r)*math.Log(1-p)
	if math.IsInf(s, -1) {
		// Fractional outcome against a certain prediction.
		return -math.MaxFloat64
	}
	return s
}

func sphericalScore(p, r float64) float64 {
	q := 1 - p
	return (r*p + (1-r)*q) / math.Sqrt(p*p+q*q)
}

// invertBrier solves (p-1)^2 = score for p.
func invertBrier(score float64) float64 {
	return 1 - math.Sqrt(score)
}

// invertLog solves ln(p) = score for p.
func invertLog(score float64) float64 {
	return math.Exp(score)
}

// invertSpherical solves p / sqrt(p^2 + (1-p)^2) = score for p.
func invertSpherical(score float64) float64 {
	if score <= 0 {
		return 0
	}
	if score >= 1 {
		return 1
	}
	return score / (score + math.Sqrt(1-score*score))
}
