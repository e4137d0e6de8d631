package storage

import (
	"context"

	"forecast-lab/internal/domain"
)

// MarketStore provides access to markets storage.
type MarketStore interface {
	// Insert adds a new market. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, m *domain.Market) error

	// GetByID retrieves a market by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, marketID string) (*domain.Market, error)

	// GetAll retrieves all markets, ordered by id ASC.
	GetAll(ctx context.Context) ([]*domain.Market, error)

	// GetByPlatform retrieves all markets of a platform, ordered by id ASC.
	GetByPlatform(ctx context.Context, p domain.Platform) ([]*domain.Market, error)

	// GetByQuestionID retrieves the markets of a question group, ordered by id ASC.
	GetByQuestionID(ctx context.Context, questionID string) ([]*domain.Market, error)

	// ListQuestionIDs returns the distinct non-null question ids, sorted ASC.
	ListQuestionIDs(ctx context.Context) ([]string, error)
}

// ProbabilityEventStore provides access to probability_events storage.
type ProbabilityEventStore interface {
	// InsertBulk adds multiple events. Fails entire batch on duplicate
	// (market_id, timestamp_ms, value).
	InsertBulk(ctx context.Context, events []*domain.ProbabilityEvent) error

	// GetByMarketID retrieves all events for a market, ordered by timestamp ASC.
	GetByMarketID(ctx context.Context, marketID string) ([]*domain.ProbabilityEvent, error)
}

// SegmentStore provides access to prob_segments storage.
type SegmentStore interface {
	// InsertBulk adds multiple segments. Fails entire batch on duplicate
	// (market_id, start_ms).
	InsertBulk(ctx context.Context, segments []*domain.ProbSegment) error

	// GetByMarketID retrieves all segments for a market, ordered by start ASC.
	GetByMarketID(ctx context.Context, marketID string) ([]*domain.ProbSegment, error)
}

// DailyProbabilityStore provides access to daily_probabilities storage.
type DailyProbabilityStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate
	// (market_id, timestamp_ms).
	InsertBulk(ctx context.Context, points []*domain.DailyProbability) error

	// GetByMarketID retrieves all points for a market, ordered by timestamp ASC.
	GetByMarketID(ctx context.Context, marketID string) ([]*domain.DailyProbability, error)
}

// CriterionProbabilityStore provides access to criterion_probabilities storage.
type CriterionProbabilityStore interface {
	// InsertBulk adds multiple samples. Fails entire batch on duplicate
	// (market_id, criterion).
	InsertBulk(ctx context.Context, samples []*domain.CriterionProbability) error

	// GetByMarketID retrieves all samples for a market, ordered by criterion ASC.
	GetByMarketID(ctx context.Context, marketID string) ([]*domain.CriterionProbability, error)
}

// MarketScoreStore provides access to market_scores storage.
type MarketScoreStore interface {
	// InsertBulk adds multiple scores. Fails entire batch on duplicate
	// (market_id, score_type).
	InsertBulk(ctx context.Context, scores []*domain.MarketScore) error

	// GetByMarketID retrieves all scores for a market, ordered by score type ASC.
	GetByMarketID(ctx context.Context, marketID string) ([]*domain.MarketScore, error)

	// GetAll retrieves all scores, ordered by (market_id, score_type) ASC.
	GetAll(ctx context.Context) ([]*domain.MarketScore, error)
}

// PlatformScoreStore provides access to platform_scores storage.
type PlatformScoreStore interface {
	// InsertBulk adds multiple aggregates. Fails entire batch on duplicate
	// (platform, score_type).
	InsertBulk(ctx context.Context, scores []*domain.PlatformScore) error

	// GetAll retrieves all aggregates, ordered by (platform, score_type) ASC.
	GetAll(ctx context.Context) ([]*domain.PlatformScore, error)
}
