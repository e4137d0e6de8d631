package domain

// DailyProbability is the duration-weighted average probability of one market
// over one UTC calendar day. TimestampMs labels the day at its noon.
// Corresponds to daily_probabilities table in ClickHouse.
type DailyProbability struct {
	MarketID    string  // FK to markets
	TimestampMs int64   // Unix timestamp in milliseconds at the day's UTC noon
	Prob        float64 // time-weighted mean probability over the day's covered span
}

// CriterionProbability is a single named probability sample taken from a
// market's timeline, used for calibration plots.
// Corresponds to criterion_probabilities table in ClickHouse.
type CriterionProbability struct {
	MarketID  string        // FK to markets
	Criterion CriterionType // which catalogue entry produced the sample
	Prob      float64       // sampled probability in [0,1]
}
