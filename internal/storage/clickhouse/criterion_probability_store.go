package clickhouse

import (
	"context"
	"fmt"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// CriterionProbabilityStore implements storage.CriterionProbabilityStore using ClickHouse.
type CriterionProbabilityStore struct {
	conn *Conn
}

// NewCriterionProbabilityStore creates a new CriterionProbabilityStore.
func NewCriterionProbabilityStore(conn *Conn) *CriterionProbabilityStore {
	return &CriterionProbabilityStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CriterionProbabilityStore = (*CriterionProbabilityStore)(nil)

// InsertBulk adds multiple samples. Fails entire batch on duplicate (market_id, criterion).
func (s *CriterionProbabilityStore) InsertBulk(ctx context.Context, samples []*domain.CriterionProbability) error {
	if len(samples) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		marketID  string
		criterion domain.CriterionType
	}
	seen := make(map[key]struct{})
	for _, c := range samples {
		k := key{c.MarketID, c.Criterion}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, c := range samples {
		exists, err := s.exists(ctx, c.MarketID, c.Criterion)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO criterion_probabilities (market_id, criterion, prob)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range samples {
		err = batch.Append(c.MarketID, string(c.Criterion), c.Prob)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByMarketID retrieves all samples for a market, ordered by criterion ASC.
func (s *CriterionProbabilityStore) GetByMarketID(ctx context.Context, marketID string) ([]*domain.CriterionProbability, error) {
	query := `
		SELECT market_id, criterion, prob
		FROM criterion_probabilities
		WHERE market_id = ?
		ORDER BY criterion ASC
	`

	rows, err := s.conn.Query(ctx, query, marketID)
	if err != nil {
		return nil, fmt.Errorf("query by market id: %w", err)
	}
	defer rows.Close()

	var samples []*domain.CriterionProbability
	for rows.Next() {
		var c domain.CriterionProbability
		var criterion string

		err := rows.Scan(&c.MarketID, &criterion, &c.Prob)
		if err != nil {
			return nil, fmt.Errorf("scan criterion probability row: %w", err)
		}

		c.Criterion = domain.CriterionType(criterion)
		samples = append(samples, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate criterion probability rows: %w", err)
	}

	return samples, nil
}

// exists checks if a sample with the given key exists.
func (s *CriterionProbabilityStore) exists(ctx context.Context, marketID string, criterion domain.CriterionType) (bool, error) {
	query := `
		SELECT count(*) FROM criterion_probabilities
		WHERE market_id = ? AND criterion = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, marketID, string(criterion)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
