package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
)

// StockItemRepository persists StockItem projections.
// FindForUpdate must acquire a row-level lock (SELECT ... FOR UPDATE) so
// that reads feeding a negative-stock decision see committed state and
// concurrent sales of the same item serialize on the row.
type StockItemRepository interface {
	// FindByStoreAndProduct loads the projection without locking
	FindByStoreAndProduct(ctx context.Context, tenantID, storeID, productID uuid.UUID) (*StockItem, error)
	// FindForUpdate loads the projection under a row lock; must be called
	// inside a transaction
	FindForUpdate(ctx context.Context, tenantID, storeID, productID uuid.UUID) (*StockItem, error)
	// GetOrCreateForUpdate loads the projection under a row lock, creating a
	// zero-quantity row first if none exists
	GetOrCreateForUpdate(ctx context.Context, tenantID, storeID, productID uuid.UUID) (*StockItem, error)
	// Save persists the projection state
	Save(ctx context.Context, item *StockItem) error
	// FindAllForTenant lists projections for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockItem, error)
	// CountForTenant counts projections matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// StockMovementRepository is the append-only ledger store. There is
// deliberately no update or delete method: the absence is structural
// enforcement of the ledger's immutability.
type StockMovementRepository interface {
	// Create appends one ledger entry
	Create(ctx context.Context, movement *StockMovement) error
	// FindByStoreAndProduct returns the ledger for one (store, product),
	// ordered by creation time ascending
	FindByStoreAndProduct(ctx context.Context, tenantID, storeID, productID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
	// FindByReference returns all movements caused by one document
	FindByReference(ctx context.Context, tenantID uuid.UUID, refType ReferenceType, refID uuid.UUID) ([]StockMovement, error)
	// FindAllForTenant lists movements for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
	// CountForTenant counts movements matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}
