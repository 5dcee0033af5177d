package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocknexus/internal/service/inventory/domain"
)

type fakeAvailabilityCache struct {
	values map[int64]int
	hits   int
	writes int
}

func newFakeAvailabilityCache() *fakeAvailabilityCache {
	return &fakeAvailabilityCache{values: make(map[int64]int)}
}

func (c *fakeAvailabilityCache) GetAvailable(ctx context.Context, productID int64) (int, bool) {
	v, ok := c.values[productID]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *fakeAvailabilityCache) SetAvailable(ctx context.Context, productID int64, available int) {
	c.writes++
	c.values[productID] = available
}

func TestCheckAvailability(t *testing.T) {
	ledger := newFakeLedger(&domain.InventoryRecord{ProductID: 100, QuantityAvailable: 30})
	svc, _, _ := newTestService(ledger, newFakeReservations())
	ctx := context.Background()

	assert.True(t, svc.CheckAvailability(ctx, 100, 30))
	assert.False(t, svc.CheckAvailability(ctx, 100, 31))
	assert.False(t, svc.CheckAvailability(ctx, 100, 0))
	assert.False(t, svc.CheckAvailability(ctx, 100, -5))
}

func TestCheckAvailability_UnknownProductIsFalse(t *testing.T) {
	svc, _, _ := newTestService(newFakeLedger(), newFakeReservations())

	assert.False(t, svc.CheckAvailability(context.Background(), 999, 1))
}

func TestCheckAvailability_PopulatesAndServesCache(t *testing.T) {
	ledger := newFakeLedger(&domain.InventoryRecord{ProductID: 100, QuantityAvailable: 30})
	svc, _, _ := newTestService(ledger, newFakeReservations())
	cache := newFakeAvailabilityCache()
	svc.SetAvailabilityCache(cache)
	ctx := context.Background()

	assert.True(t, svc.CheckAvailability(ctx, 100, 10))
	assert.Equal(t, 1, cache.writes)
	assert.Equal(t, 0, cache.hits)

	assert.True(t, svc.CheckAvailability(ctx, 100, 10))
	assert.Equal(t, 1, cache.writes)
	assert.Equal(t, 1, cache.hits)
}

func TestFindProductsNeedingReorder(t *testing.T) {
	ledger := newFakeLedger(
		&domain.InventoryRecord{ProductID: 100, QuantityAvailable: 50, ReorderLevel: 10},
		&domain.InventoryRecord{ProductID: 101, QuantityAvailable: 3, QuantityReserved: 2, ReorderLevel: 10},
		&domain.InventoryRecord{ProductID: 102, QuantityAvailable: 0, ReorderLevel: 5},
	)
	svc, _, _ := newTestService(ledger, newFakeReservations())

	records, err := svc.FindProductsNeedingReorder(context.Background())
	require.NoError(t, err)

	var ids []int64
	for _, r := range records {
		ids = append(ids, r.ProductID)
	}
	assert.ElementsMatch(t, []int64{101, 102}, ids)
}
