package domain

// Market is the standardized market record consumed by scoring.
// Corresponds to markets table in PostgreSQL.
type Market struct {
	ID                  string   // PRIMARY KEY, deterministic hash of (platform, platform_id)
	Platform            Platform // source platform
	PlatformID          string   // platform-native identifier
	Title               string   // human-readable question text
	Resolution          float64  // ground truth outcome in [0,1]; fractional for split resolutions
	QuestionID          *string  // question-group id shared by sibling markets (nullable)
	QuestionInvert      bool     // whether this market tracks the complement of the group question
	StartDateOverrideMs *int64   // inclusive clip lower bound for relative scoring (nullable)
	EndDateOverrideMs   *int64   // inclusive clip upper bound for relative scoring (nullable)
	CreatedAt           int64    // record creation timestamp (ms)
}
