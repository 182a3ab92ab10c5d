package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
)

// productRow is the slice of the products table the checkout engine
// reads. Product management writes the table from outside this core.
type productRow struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID           uuid.UUID       `gorm:"type:uuid;not null"`
	SellPrice          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CostPrice          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate            decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	TrackStock         bool            `gorm:"not null;default:true"`
	AllowNegativeStock bool            `gorm:"not null;default:false"`
	Active             bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (productRow) TableName() string {
	return "products"
}

// GormCatalogLookup resolves read-only product pricing snapshots
type GormCatalogLookup struct {
	db *gorm.DB
}

// NewGormCatalogLookup creates a new GormCatalogLookup
func NewGormCatalogLookup(db *gorm.DB) *GormCatalogLookup {
	return &GormCatalogLookup{db: db}
}

// Lookup returns the product snapshot, or shared.ErrNotFound.
// Inactive products are invisible to checkout.
func (l *GormCatalogLookup) Lookup(ctx context.Context, tenantID, productID uuid.UUID) (*catalog.ProductInfo, error) {
	var row productRow
	if err := l.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ? AND active = true", tenantID, productID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	return &catalog.ProductInfo{
		ProductID:          row.ID,
		SellPrice:          row.SellPrice,
		CostPrice:          row.CostPrice,
		TaxRate:            row.TaxRate,
		TrackStock:         row.TrackStock,
		AllowNegativeStock: row.AllowNegativeStock,
	}, nil
}

var _ catalog.Lookup = (*GormCatalogLookup)(nil)
