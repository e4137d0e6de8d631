package postgres

import (
	"context"
	"fmt"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// ProbabilityEventStore implements storage.ProbabilityEventStore using PostgreSQL.
type ProbabilityEventStore struct {
	pool *Pool
}

// NewProbabilityEventStore creates a new ProbabilityEventStore.
func NewProbabilityEventStore(pool *Pool) *ProbabilityEventStore {
	return &ProbabilityEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProbabilityEventStore = (*ProbabilityEventStore)(nil)

// InsertBulk adds multiple events in one transaction. Fails entire batch on
// any duplicate.
func (s *ProbabilityEventStore) InsertBulk(ctx context.Context, events []*domain.ProbabilityEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO probability_events (market_id, timestamp_ms, value)
		VALUES ($1, $2, $3)
	`
	for _, e := range events {
		if _, err := tx.Exec(ctx, query, e.MarketID, e.TimestampMs, e.Value); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert event: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByMarketID retrieves all events for a market, ordered by timestamp ASC.
func (s *ProbabilityEventStore) GetByMarketID(ctx context.Context, marketID string) ([]*domain.ProbabilityEvent, error) {
	query := `
		SELECT market_id, timestamp_ms, value
		FROM probability_events
		WHERE market_id = $1
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, marketID)
	if err != nil {
		return nil, fmt.Errorf("get events by market id: %w", err)
	}
	defer rows.Close()

	var events []*domain.ProbabilityEvent
	for rows.Next() {
		var e domain.ProbabilityEvent
		if err := rows.Scan(&e.MarketID, &e.TimestampMs, &e.Value); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
