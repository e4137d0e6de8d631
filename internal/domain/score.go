package domain

import (
	"fmt"
	"strings"
)

// Metric identifies a proper scoring rule.
type Metric string

// Supported scoring rules.
const (
	MetricBrier       Metric = "brier"
	MetricLogarithmic Metric = "logarithmic"
	MetricSpherical   Metric = "spherical"
)

// AllMetrics lists every scoring rule in stable order.
var AllMetrics = []Metric{MetricBrier, MetricLogarithmic, MetricSpherical}

// ScoreType encodes the kind of a MarketScore: which metric produced it, and
// whether it is absolute (against a criterion sample) or relative (against
// sibling markets of the same question).
type ScoreType string

// AbsoluteScoreType builds the ScoreType for metric scored against criterion.
func AbsoluteScoreType(m Metric, c CriterionType) ScoreType {
	return ScoreType(fmt.Sprintf("%s-abs-%s", m, c))
}

// RelativeScoreType builds the ScoreType for metric scored against the
// question-group baseline.
func RelativeScoreType(m Metric) ScoreType {
	return ScoreType(fmt.Sprintf("%s-rel", m))
}

// Metric reports which scoring rule produced this score type.
func (st ScoreType) Metric() (Metric, bool) {
	for _, m := range AllMetrics {
		if strings.HasPrefix(string(st), string(m)+"-") {
			return m, true
		}
	}
	return "", false
}

// IsRelative reports whether this score type is baseline-adjusted.
func (st ScoreType) IsRelative() bool {
	return strings.HasSuffix(string(st), "-rel")
}

// MarketScore is one market's score under one score type.
// Corresponds to market_scores table in PostgreSQL.
type MarketScore struct {
	MarketID  string   // FK to markets
	Platform  Platform // denormalized for platform aggregation
	ScoreType ScoreType
	Score     float64
	Grade     string // letter grade, S down to F
	CreatedAt int64  // record creation timestamp (ms)
}

// PlatformScore aggregates one score type across a platform's markets.
// Corresponds to platform_scores table in PostgreSQL.
type PlatformScore struct {
	Platform       Platform
	ScoreType      ScoreType
	Score          float64 // arithmetic mean of the platform's market scores
	SampleFraction float64 // scored markets / total platform markets
	Markets        int     // number of markets contributing to the mean
	CreatedAt      int64   // record creation timestamp (ms)
}
