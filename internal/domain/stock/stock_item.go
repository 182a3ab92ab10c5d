package stock

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockItem is the current-quantity projection for one (store, product) pair.
// It is mutated only by operations that also append a StockMovement in the
// same database transaction; the two writes are inseparable and the
// projection must always equal the ledger's running sum.
type StockItem struct {
	shared.TenantAggregateRoot
	StoreID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_item_store_product,priority:2"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_item_store_product,priority:3"`
	QuantityOnHand   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReservedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AverageCost      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // moving weighted average
	AllowNegative    bool            `gorm:"not null;default:false"`
	LastReceivedAt   *time.Time      `gorm:"type:timestamptz"`
	LastSoldAt       *time.Time      `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (StockItem) TableName() string {
	return "stock_items"
}

// NewStockItem creates a stock projection row for a store-product combination
func NewStockItem(tenantID, storeID, productID uuid.UUID) (*StockItem, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	return &StockItem{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		StoreID:             storeID,
		ProductID:           productID,
		QuantityOnHand:      decimal.Zero,
		ReservedQuantity:    decimal.Zero,
		AverageCost:         decimal.Zero,
	}, nil
}

// Available returns the quantity free for sale (on hand minus reserved)
func (s *StockItem) Available() decimal.Decimal {
	return s.QuantityOnHand.Sub(s.ReservedQuantity)
}

// Deduct removes quantity for a sale. When negative stock is disallowed the
// caller must hold the row lock so this check runs against committed state.
func (s *StockItem) Deduct(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("INVALID_QUANTITY", "Deduct quantity must be positive")
	}
	after := s.QuantityOnHand.Sub(quantity)
	if after.IsNegative() && !s.AllowNegative {
		return shared.NewConflictError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Insufficient stock: requested %s, available %s", quantity, s.QuantityOnHand))
	}
	s.QuantityOnHand = after
	now := time.Now()
	s.LastSoldAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewStockDeductedEvent(s, quantity))
	if after.IsNegative() {
		s.AddDomainEvent(NewStockBelowZeroEvent(s))
	}
	return nil
}

// Restore returns quantity to stock (refunds)
func (s *StockItem) Restore(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("INVALID_QUANTITY", "Restore quantity must be positive")
	}
	s.QuantityOnHand = s.QuantityOnHand.Add(quantity)
	s.Touch()
	s.IncrementVersion()
	s.AddDomainEvent(NewStockRestoredEvent(s, quantity))
	return nil
}

// Receive adds purchased quantity and recalculates the moving weighted average cost
func (s *StockItem) Receive(quantity, unitCost decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("INVALID_QUANTITY", "Receive quantity must be positive")
	}
	if unitCost.IsNegative() {
		return shared.NewValidationError("INVALID_COST", "Unit cost cannot be negative")
	}

	oldQuantity := s.QuantityOnHand
	if oldQuantity.LessThanOrEqual(decimal.Zero) {
		s.AverageCost = unitCost
	} else {
		totalValue := oldQuantity.Mul(s.AverageCost).Add(quantity.Mul(unitCost))
		s.AverageCost = totalValue.Div(oldQuantity.Add(quantity)).Round(4)
	}

	s.QuantityOnHand = s.QuantityOnHand.Add(quantity)
	now := time.Now()
	s.LastReceivedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()
	s.AddDomainEvent(NewStockReceivedEvent(s, quantity, unitCost))
	return nil
}

// AdjustTo sets the on-hand quantity to a counted actual value.
// Returns the signed difference applied.
func (s *StockItem) AdjustTo(actual decimal.Decimal) (decimal.Decimal, error) {
	if actual.IsNegative() && !s.AllowNegative {
		return decimal.Zero, shared.NewValidationError("INVALID_QUANTITY", "Counted quantity cannot be negative")
	}
	diff := actual.Sub(s.QuantityOnHand)
	s.QuantityOnHand = actual
	s.Touch()
	s.IncrementVersion()
	s.AddDomainEvent(NewStockAdjustedEvent(s, diff))
	return diff, nil
}

// Reserve moves quantity from available to reserved
func (s *StockItem) Reserve(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("INVALID_QUANTITY", "Reserve quantity must be positive")
	}
	if s.Available().LessThan(quantity) {
		return shared.ErrInsufficientStock
	}
	s.ReservedQuantity = s.ReservedQuantity.Add(quantity)
	s.Touch()
	s.IncrementVersion()
	return nil
}

// Release returns reserved quantity to available
func (s *StockItem) Release(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("INVALID_QUANTITY", "Release quantity must be positive")
	}
	if s.ReservedQuantity.LessThan(quantity) {
		return shared.NewConflictError("INVALID_STATE", "Cannot release more than is reserved")
	}
	s.ReservedQuantity = s.ReservedQuantity.Sub(quantity)
	s.Touch()
	s.IncrementVersion()
	return nil
}

// SetAllowNegative toggles whether this item may be oversold
func (s *StockItem) SetAllowNegative(allow bool) {
	s.AllowNegative = allow
	s.Touch()
}
