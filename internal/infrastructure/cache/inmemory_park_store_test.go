package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pos/backend/internal/application/checkout"
	"github.com/pos/backend/internal/domain/shared"
)

func parkedSale(tenantID, storeID uuid.UUID, key string) *checkout.ParkedSale {
	return &checkout.ParkedSale{
		Key:       key,
		TenantID:  tenantID,
		StoreID:   storeID,
		CashierID: uuid.New(),
		Cart: checkout.CreateSaleInput{
			StoreID: storeID,
			Lines: []checkout.SaleLineInput{
				{ProductID: uuid.New(), Quantity: 2},
			},
		},
		ParkedAt: time.Now(),
	}
}

func TestInMemoryParkStore(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	storeID := uuid.New()

	t.Run("save and load round trip", func(t *testing.T) {
		store := NewInMemoryParkStore(time.Hour)
		sale := parkedSale(tenantID, storeID, "park-1")
		require.NoError(t, store.Save(ctx, sale))

		loaded, err := store.Load(ctx, tenantID, "park-1")
		require.NoError(t, err)
		assert.Equal(t, sale.Key, loaded.Key)
		assert.Equal(t, sale.CashierID, loaded.CashierID)
		assert.Len(t, loaded.Cart.Lines, 1)
	})

	t.Run("load missing key returns not found", func(t *testing.T) {
		store := NewInMemoryParkStore(time.Hour)
		_, err := store.Load(ctx, tenantID, "absent")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("keys are tenant scoped", func(t *testing.T) {
		store := NewInMemoryParkStore(time.Hour)
		require.NoError(t, store.Save(ctx, parkedSale(tenantID, storeID, "park-1")))

		_, err := store.Load(ctx, uuid.New(), "park-1")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("expired cart behaves as missing", func(t *testing.T) {
		store := NewInMemoryParkStore(time.Nanosecond)
		require.NoError(t, store.Save(ctx, parkedSale(tenantID, storeID, "park-1")))
		time.Sleep(time.Millisecond)

		_, err := store.Load(ctx, tenantID, "park-1")
		assert.ErrorIs(t, err, shared.ErrNotFound)

		sales, err := store.ListByStore(ctx, tenantID, storeID)
		require.NoError(t, err)
		assert.Empty(t, sales)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := NewInMemoryParkStore(time.Hour)
		require.NoError(t, store.Save(ctx, parkedSale(tenantID, storeID, "park-1")))
		require.NoError(t, store.Delete(ctx, tenantID, "park-1"))
		require.NoError(t, store.Delete(ctx, tenantID, "park-1"))

		_, err := store.Load(ctx, tenantID, "park-1")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("list filters by store", func(t *testing.T) {
		store := NewInMemoryParkStore(time.Hour)
		otherStore := uuid.New()
		require.NoError(t, store.Save(ctx, parkedSale(tenantID, storeID, "park-1")))
		require.NoError(t, store.Save(ctx, parkedSale(tenantID, storeID, "park-2")))
		require.NoError(t, store.Save(ctx, parkedSale(tenantID, otherStore, "park-3")))

		sales, err := store.ListByStore(ctx, tenantID, storeID)
		require.NoError(t, err)
		assert.Len(t, sales, 2)
	})
}
