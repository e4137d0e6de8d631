package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

func TestCriterionProbabilityStore_InsertBulkAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCriterionProbabilityStore(conn)
	ctx := context.Background()

	samples := []*domain.CriterionProbability{
		{MarketID: "m1", Criterion: domain.CriterionTimeAverage, Prob: 0.62},
		{MarketID: "m1", Criterion: domain.CriterionMidpoint, Prob: 0.55},
		{MarketID: "m2", Criterion: domain.CriterionMidpoint, Prob: 0.4},
	}
	require.NoError(t, store.InsertBulk(ctx, samples))

	retrieved, err := store.GetByMarketID(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, retrieved, 2)

	// Ordered by criterion ASC
	assert.Equal(t, domain.CriterionMidpoint, retrieved[0].Criterion)
	assert.Equal(t, 0.55, retrieved[0].Prob)
	assert.Equal(t, domain.CriterionTimeAverage, retrieved[1].Criterion)
}

func TestCriterionProbabilityStore_Duplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCriterionProbabilityStore(conn)
	ctx := context.Background()

	first := []*domain.CriterionProbability{
		{MarketID: "m1", Criterion: domain.CriterionMidpoint, Prob: 0.5},
	}
	require.NoError(t, store.InsertBulk(ctx, first))

	err := store.InsertBulk(ctx, first)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
