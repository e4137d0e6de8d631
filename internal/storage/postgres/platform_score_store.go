package postgres

import (
	"context"
	"fmt"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// PlatformScoreStore implements storage.PlatformScoreStore using PostgreSQL.
type PlatformScoreStore struct {
	pool *Pool
}

// NewPlatformScoreStore creates a new PlatformScoreStore.
func NewPlatformScoreStore(pool *Pool) *PlatformScoreStore {
	return &PlatformScoreStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PlatformScoreStore = (*PlatformScoreStore)(nil)

// InsertBulk adds multiple aggregates in one transaction. Fails entire batch
// on any duplicate (platform, score_type).
func (s *PlatformScoreStore) InsertBulk(ctx context.Context, scores []*domain.PlatformScore) error {
	if len(scores) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO platform_scores (platform, score_type, score, sample_fraction, markets)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, sc := range scores {
		_, err := tx.Exec(ctx, query,
			string(sc.Platform),
			string(sc.ScoreType),
			sc.Score,
			sc.SampleFraction,
			sc.Markets,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert platform score: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves all aggregates, ordered by (platform, score_type) ASC.
func (s *PlatformScoreStore) GetAll(ctx context.Context) ([]*domain.PlatformScore, error) {
	query := `
		SELECT platform, score_type, score, sample_fraction, markets, created_at
		FROM platform_scores
		ORDER BY platform ASC, score_type ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all platform scores: %w", err)
	}
	defer rows.Close()

	var scores []*domain.PlatformScore
	for rows.Next() {
		var sc domain.PlatformScore
		var platform, scoreType string
		err := rows.Scan(&platform, &scoreType, &sc.Score, &sc.SampleFraction, &sc.Markets, &sc.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan platform score: %w", err)
		}
		sc.Platform = domain.Platform(platform)
		sc.ScoreType = domain.ScoreType(scoreType)
		scores = append(scores, &sc)
	}
	return scores, rows.Err()
}
