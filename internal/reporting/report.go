package reporting

import "time"

// Report represents the score report structure.
type Report struct {
	// Metadata
	GeneratedAt    time.Time
	PlatformCount  int
	ScoreTypeCount int

	// Data Summary
	DataSummary DataSummary

	// Data Quality (sufficiency checks)
	DataQuality DataQualitySection

	// Platform aggregates (sorted by platform, score_type)
	PlatformScores []PlatformScoreRow

	// Grade distribution across all market scores, in grade order
	GradeDistribution []GradeCountRow

	// Per-market scores (sorted by market_id, score_type)
	MarketScores []MarketScoreRow

	// Calibration samples (sorted by criterion, market_id)
	Calibration []CalibrationRow

	// Reproducibility metadata
	Reproducibility ReproducibilityMetadata
}

// DataQualitySection contains data sufficiency checks and integrity errors.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	IntegrityErrors   []string
	AllChecksPassed   bool
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DataSummary contains data description.
type DataSummary struct {
	TotalMarkets       int
	MarketsPerPlatform []PlatformCountRow
	QuestionGroups     int
	TotalMarketScores  int
	DateRangeStart     int64 // Unix ms, earliest daily probability
	DateRangeEnd       int64 // Unix ms, latest daily probability
}

// PlatformCountRow counts one platform's markets.
type PlatformCountRow struct {
	Platform string
	Markets  int
}

// PlatformScoreRow represents one row in the platform aggregate table.
type PlatformScoreRow struct {
	Platform       string
	ScoreType      string
	Score          float64
	SampleFraction float64
	Markets        int
}

// MarketScoreRow represents one row in the market score table.
type MarketScoreRow struct {
	MarketID  string
	Platform  string
	ScoreType string
	Score     float64
	Grade     string
}

// GradeCountRow counts market scores earning one grade.
type GradeCountRow struct {
	Grade string
	Count int
}

// CalibrationRow pairs a sampled probability with its market's outcome, for
// calibration plots downstream.
type CalibrationRow struct {
	Criterion  string
	MarketID   string
	Platform   string
	Prob       float64
	Resolution float64
}

// ReproducibilityMetadata enables report reproduction.
type ReproducibilityMetadata struct {
	ReportTimestamp  time.Time
	RunID            string
	GeneratorVersion string
	DataVersion      string // hash of score rows
	CommitHash       string
	RerunCommand     string
}
