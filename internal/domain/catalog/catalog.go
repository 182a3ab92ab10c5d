package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductInfo is the pricing and stock-policy snapshot the checkout engine
// needs for one product. CostPrice is copied onto receipt lines at sale time
// and never re-resolved.
type ProductInfo struct {
	ProductID          uuid.UUID
	SellPrice          decimal.Decimal
	CostPrice          decimal.Decimal
	TaxRate            decimal.Decimal
	TrackStock         bool
	AllowNegativeStock bool
}

// Lookup is the read-only catalog collaborator. Product/category/brand CRUD
// lives outside this core; the engine only ever asks for pricing snapshots.
type Lookup interface {
	// Lookup returns the product snapshot, or shared.ErrNotFound
	Lookup(ctx context.Context, tenantID, productID uuid.UUID) (*ProductInfo, error)
}
