package clickhouse

import (
	"context"
	"fmt"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// SegmentStore implements storage.SegmentStore using ClickHouse.
type SegmentStore struct {
	conn *Conn
}

// NewSegmentStore creates a new SegmentStore.
func NewSegmentStore(conn *Conn) *SegmentStore {
	return &SegmentStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SegmentStore = (*SegmentStore)(nil)

// InsertBulk adds multiple segments. Fails entire batch on duplicate (market_id, start_ms).
func (s *SegmentStore) InsertBulk(ctx context.Context, segments []*domain.ProbSegment) error {
	if len(segments) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		marketID string
		startMs  int64
	}
	seen := make(map[key]struct{})
	for _, seg := range segments {
		k := key{seg.MarketID, seg.StartMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, seg := range segments {
		exists, err := s.exists(ctx, seg.MarketID, seg.StartMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO prob_segments (market_id, start_ms, end_ms, prob)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, seg := range segments {
		err = batch.Append(seg.MarketID, uint64(seg.StartMs), uint64(seg.EndMs), seg.Prob)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByMarketID retrieves all segments for a market, ordered by start ASC.
func (s *SegmentStore) GetByMarketID(ctx context.Context, marketID string) ([]*domain.ProbSegment, error) {
	query := `
		SELECT market_id, start_ms, end_ms, prob
		FROM prob_segments
		WHERE market_id = ?
		ORDER BY start_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, marketID)
	if err != nil {
		return nil, fmt.Errorf("query by market id: %w", err)
	}
	defer rows.Close()

	var segments []*domain.ProbSegment
	for rows.Next() {
		var seg domain.ProbSegment
		var startMs, endMs uint64

		err := rows.Scan(&seg.MarketID, &startMs, &endMs, &seg.Prob)
		if err != nil {
			return nil, fmt.Errorf("scan segment row: %w", err)
		}

		seg.StartMs = int64(startMs)
		seg.EndMs = int64(endMs)
		segments = append(segments, &seg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segment rows: %w", err)
	}

	return segments, nil
}

// exists checks if a segment with the given key exists.
func (s *SegmentStore) exists(ctx context.Context, marketID string, startMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM prob_segments
		WHERE market_id = ? AND start_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, marketID, uint64(startMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
