package clickhouse

import (
	"context"
	"fmt"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// DailyProbabilityStore implements storage.DailyProbabilityStore using ClickHouse.
type DailyProbabilityStore struct {
	conn *Conn
}

// NewDailyProbabilityStore creates a new DailyProbabilityStore.
func NewDailyProbabilityStore(conn *Conn) *DailyProbabilityStore {
	return &DailyProbabilityStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DailyProbabilityStore = (*DailyProbabilityStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (market_id, timestamp_ms).
func (s *DailyProbabilityStore) InsertBulk(ctx context.Context, points []*domain.DailyProbability) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		marketID    string
		timestampMs int64
	}
	seen := make(map[key]struct{})
	for _, p := range points {
		k := key{p.MarketID, p.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, p := range points {
		exists, err := s.exists(ctx, p.MarketID, p.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO daily_probabilities (market_id, timestamp_ms, prob)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(p.MarketID, uint64(p.TimestampMs), p.Prob)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByMarketID retrieves all points for a market, ordered by timestamp ASC.
func (s *DailyProbabilityStore) GetByMarketID(ctx context.Context, marketID string) ([]*domain.DailyProbability, error) {
	query := `
		SELECT market_id, timestamp_ms, prob
		FROM daily_probabilities
		WHERE market_id = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, marketID)
	if err != nil {
		return nil, fmt.Errorf("query by market id: %w", err)
	}
	defer rows.Close()

	var points []*domain.DailyProbability
	for rows.Next() {
		var p domain.DailyProbability
		var timestampMs uint64

		err := rows.Scan(&p.MarketID, &timestampMs, &p.Prob)
		if err != nil {
			return nil, fmt.Errorf("scan daily probability row: %w", err)
		}

		p.TimestampMs = int64(timestampMs)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily probability rows: %w", err)
	}

	return points, nil
}

// exists checks if a point with the given key exists.
func (s *DailyProbabilityStore) exists(ctx context.Context, marketID string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM daily_probabilities
		WHERE market_id = ? AND timestamp_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, marketID, uint64(timestampMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
