package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// MarketScoreStore implements storage.MarketScoreStore using PostgreSQL.
type MarketScoreStore struct {
	pool *Pool
}

// NewMarketScoreStore creates a new MarketScoreStore.
func NewMarketScoreStore(pool *Pool) *MarketScoreStore {
	return &MarketScoreStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MarketScoreStore = (*MarketScoreStore)(nil)

// InsertBulk adds multiple scores in one transaction. Fails entire batch on
// any duplicate (market_id, score_type).
func (s *MarketScoreStore) InsertBulk(ctx context.Context, scores []*domain.MarketScore) error {
	if len(scores) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO market_scores (market_id, platform, score_type, score, grade)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, sc := range scores {
		_, err := tx.Exec(ctx, query,
			sc.MarketID,
			string(sc.Platform),
			string(sc.ScoreType),
			sc.Score,
			sc.Grade,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert market score: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByMarketID retrieves all scores for a market, ordered by score type ASC.
func (s *MarketScoreStore) GetByMarketID(ctx context.Context, marketID string) ([]*domain.MarketScore, error) {
	query := `
		SELECT market_id, platform, score_type, score, grade, created_at
		FROM market_scores
		WHERE market_id = $1
		ORDER BY score_type ASC
	`

	rows, err := s.pool.Query(ctx, query, marketID)
	if err != nil {
		return nil, fmt.Errorf("get scores by market id: %w", err)
	}
	defer rows.Close()

	return scanMarketScores(rows)
}

// GetAll retrieves all scores, ordered by (market_id, score_type) ASC.
func (s *MarketScoreStore) GetAll(ctx context.Context) ([]*domain.MarketScore, error) {
	query := `
		SELECT market_id, platform, score_type, score, grade, created_at
		FROM market_scores
		ORDER BY market_id ASC, score_type ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all market scores: %w", err)
	}
	defer rows.Close()

	return scanMarketScores(rows)
}

func scanMarketScores(rows pgx.Rows) ([]*domain.MarketScore, error) {
	var scores []*domain.MarketScore
	for rows.Next() {
		var sc domain.MarketScore
		var platform, scoreType string
		err := rows.Scan(&sc.MarketID, &platform, &scoreType, &sc.Score, &sc.Grade, &sc.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan market score: %w", err)
		}
		sc.Platform = domain.Platform(platform)
		sc.ScoreType = domain.ScoreType(scoreType)
		scores = append(scores, &sc)
	}
	return scores, rows.Err()
}
