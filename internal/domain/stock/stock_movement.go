package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReferenceType identifies the document that caused a stock movement
type ReferenceType string

const (
	// ReferenceTypeSale is a completed sale receipt
	ReferenceTypeSale ReferenceType = "SALE"
	// ReferenceTypeReturn is a refund restoring sold stock
	ReferenceTypeReturn ReferenceType = "RETURN"
	// ReferenceTypeGRN is a goods-received note (purchase receiving)
	ReferenceTypeGRN ReferenceType = "GRN"
	// ReferenceTypeTransferOut is stock leaving for another store
	ReferenceTypeTransferOut ReferenceType = "TRANSFER_OUT"
	// ReferenceTypeTransferIn is stock arriving from another store
	ReferenceTypeTransferIn ReferenceType = "TRANSFER_IN"
	// ReferenceTypeAdjustment is a manual quantity correction
	ReferenceTypeAdjustment ReferenceType = "ADJUSTMENT"
	// ReferenceTypeStockCount is a physical count reconciliation
	ReferenceTypeStockCount ReferenceType = "STOCK_COUNT"
)

// IsValid returns true if the reference type is known
func (t ReferenceType) IsValid() bool {
	switch t {
	case ReferenceTypeSale, ReferenceTypeReturn, ReferenceTypeGRN,
		ReferenceTypeTransferOut, ReferenceTypeTransferIn,
		ReferenceTypeAdjustment, ReferenceTypeStockCount:
		return true
	}
	return false
}

// String returns the string representation of ReferenceType
func (t ReferenceType) String() string {
	return string(t)
}

// StockMovement is one immutable entry in the stock ledger. Once written it
// is never updated or deleted; corrections are new movements. For a given
// (store, product), ordered by creation time, each entry's QuantityBefore
// equals the previous entry's QuantityAfter, and the latest QuantityAfter
// equals the StockItem projection quantity.
type StockMovement struct {
	shared.BaseEntity
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_mv_tenant_time,priority:1"`
	StoreID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_mv_store_product,priority:1"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_mv_store_product,priority:2"`
	StockItemID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	QuantityDelta  decimal.Decimal `gorm:"type:decimal(18,4);not null"` // signed
	QuantityBefore decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityAfter  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReferenceType  ReferenceType   `gorm:"type:varchar(20);not null;index"`
	ReferenceID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReferenceLine  *uuid.UUID      `gorm:"type:uuid"`
	ActorID        uuid.UUID       `gorm:"type:uuid;not null"`
	Reason         string          `gorm:"type:varchar(255)"`
	MovedAt        time.Time       `gorm:"type:timestamptz;not null;index:idx_stock_mv_tenant_time,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a ledger entry for a quantity change already
// applied to the given stock item. The before/after pair is derived from the
// item's state so the chain invariant holds by construction.
func NewStockMovement(item *StockItem, delta decimal.Decimal, refType ReferenceType, refID, actorID uuid.UUID) (*StockMovement, error) {
	if delta.IsZero() {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity delta cannot be zero")
	}
	if !refType.IsValid() {
		return nil, shared.NewValidationError("INVALID_REFERENCE_TYPE", "Unknown stock movement reference type")
	}
	if refID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_REFERENCE", "Reference ID cannot be empty")
	}
	if actorID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ACTOR", "Actor ID cannot be empty")
	}

	after := item.QuantityOnHand
	return &StockMovement{
		BaseEntity:     shared.NewBaseEntity(),
		TenantID:       item.TenantID,
		StoreID:        item.StoreID,
		ProductID:      item.ProductID,
		StockItemID:    item.ID,
		QuantityDelta:  delta,
		QuantityBefore: after.Sub(delta),
		QuantityAfter:  after,
		UnitCost:       item.AverageCost,
		ReferenceType:  refType,
		ReferenceID:    refID,
		ActorID:        actorID,
		MovedAt:        time.Now(),
	}, nil
}

// WithReferenceLine links the movement to the specific document line
func (m *StockMovement) WithReferenceLine(lineID uuid.UUID) *StockMovement {
	m.ReferenceLine = &lineID
	return m
}

// WithReason records why the movement happened (adjustments, counts)
func (m *StockMovement) WithReason(reason string) *StockMovement {
	m.Reason = reason
	return m
}

// IsInbound returns true if the movement increased stock
func (m *StockMovement) IsInbound() bool {
	return m.QuantityDelta.IsPositive()
}
