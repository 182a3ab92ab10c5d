package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultParkTTL is how long a parked cart survives before it expires
const DefaultParkTTL = 24 * time.Hour

// ParkedSale is a cart snapshot held aside while the cashier serves another
// customer. It has no stock or ledger effect until recalled and completed
// as a normal sale.
type ParkedSale struct {
	Key       string          `json:"key"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	StoreID   uuid.UUID       `json:"store_id"`
	CashierID uuid.UUID       `json:"cashier_id"`
	Cart      CreateSaleInput `json:"cart"`
	Note      string          `json:"note,omitempty"`
	ParkedAt  time.Time       `json:"parked_at"`
}

// ParkStore holds parked carts with a TTL. Keys are tenant-scoped by the
// implementation; Load never returns another tenant's cart.
type ParkStore interface {
	// Save stores the snapshot under its key with the store's TTL
	Save(ctx context.Context, sale *ParkedSale) error
	// Load returns the snapshot, or shared.ErrNotFound when absent or expired
	Load(ctx context.Context, tenantID uuid.UUID, key string) (*ParkedSale, error)
	// Delete removes the snapshot; deleting a missing key is not an error
	Delete(ctx context.Context, tenantID uuid.UUID, key string) error
	// ListByStore returns all live snapshots for one store
	ListByStore(ctx context.Context, tenantID, storeID uuid.UUID) ([]ParkedSale, error)
}
