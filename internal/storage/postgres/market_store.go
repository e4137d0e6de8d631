package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// MarketStore implements storage.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *Pool
}

// NewMarketStore creates a new MarketStore.
func NewMarketStore(pool *Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MarketStore = (*MarketStore)(nil)

const marketColumns = `id, platform, platform_id, title, resolution, question_id, question_invert, start_date_override_ms, end_date_override_ms, created_at`

// Insert adds a new market. Returns ErrDuplicateKey if the id exists.
func (s *MarketStore) Insert(ctx context.Context, m *domain.Market) error {
	query := `
		INSERT INTO markets (
			id, platform, platform_id, title, resolution, question_id, question_invert,
			start_date_override_ms, end_date_override_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		m.ID,
		string(m.Platform),
		m.PlatformID,
		m.Title,
		m.Resolution,
		m.QuestionID,
		m.QuestionInvert,
		m.StartDateOverrideMs,
		m.EndDateOverrideMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert market: %w", err)
	}
	return nil
}

// GetByID retrieves a market by its ID. Returns ErrNotFound if not exists.
func (s *MarketStore) GetByID(ctx context.Context, marketID string) (*domain.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, marketID)
	m, err := scanMarket(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get market by id: %w", err)
	}
	return m, nil
}

// GetAll retrieves all markets, ordered by id ASC.
func (s *MarketStore) GetAll(ctx context.Context) ([]*domain.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all markets: %w", err)
	}
	defer rows.Close()

	return scanMarkets(rows)
}

// GetByPlatform retrieves all markets of a platform, ordered by id ASC.
func (s *MarketStore) GetByPlatform(ctx context.Context, p domain.Platform) ([]*domain.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE platform = $1 ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query, string(p))
	if err != nil {
		return nil, fmt.Errorf("get markets by platform: %w", err)
	}
	defer rows.Close()

	return scanMarkets(rows)
}

// GetByQuestionID retrieves the markets of a question group, ordered by id ASC.
func (s *MarketStore) GetByQuestionID(ctx context.Context, questionID string) ([]*domain.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE question_id = $1 ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("get markets by question id: %w", err)
	}
	defer rows.Close()

	return scanMarkets(rows)
}

// ListQuestionIDs returns the distinct non-null question ids, sorted ASC.
func (s *MarketStore) ListQuestionIDs(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT question_id FROM markets WHERE question_id IS NOT NULL ORDER BY question_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list question ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanMarket(row pgx.Row) (*domain.Market, error) {
	var m domain.Market
	var platform string
	err := row.Scan(
		&m.ID,
		&platform,
		&m.PlatformID,
		&m.Title,
		&m.Resolution,
		&m.QuestionID,
		&m.QuestionInvert,
		&m.StartDateOverrideMs,
		&m.EndDateOverrideMs,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Platform = domain.Platform(platform)
	return &m, nil
}

func scanMarkets(rows pgx.Rows) ([]*domain.Market, error) {
	var markets []*domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}
