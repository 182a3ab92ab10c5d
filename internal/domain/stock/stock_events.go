package stock

import (
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types emitted by the stock context
const (
	EventTypeStockDeducted  = "stock.deducted"
	EventTypeStockRestored  = "stock.restored"
	EventTypeStockReceived  = "stock.received"
	EventTypeStockAdjusted  = "stock.adjusted"
	EventTypeStockBelowZero = "stock.below_zero"
)

// AggregateTypeStockItem is the aggregate type name used in events
const AggregateTypeStockItem = "StockItem"

// StockDeductedEvent is emitted when stock is removed by a sale
type StockDeductedEvent struct {
	shared.BaseDomainEvent
	StoreID   string          `json:"store_id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	OnHand    decimal.Decimal `json:"on_hand"`
}

// NewStockDeductedEvent creates a StockDeductedEvent
func NewStockDeductedEvent(item *StockItem, quantity decimal.Decimal) *StockDeductedEvent {
	return &StockDeductedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDeducted, AggregateTypeStockItem, item.ID, item.TenantID),
		StoreID:         item.StoreID.String(),
		ProductID:       item.ProductID.String(),
		Quantity:        quantity,
		OnHand:          item.QuantityOnHand,
	}
}

// StockRestoredEvent is emitted when a refund returns stock
type StockRestoredEvent struct {
	shared.BaseDomainEvent
	StoreID   string          `json:"store_id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	OnHand    decimal.Decimal `json:"on_hand"`
}

// NewStockRestoredEvent creates a StockRestoredEvent
func NewStockRestoredEvent(item *StockItem, quantity decimal.Decimal) *StockRestoredEvent {
	return &StockRestoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRestored, AggregateTypeStockItem, item.ID, item.TenantID),
		StoreID:         item.StoreID.String(),
		ProductID:       item.ProductID.String(),
		Quantity:        quantity,
		OnHand:          item.QuantityOnHand,
	}
}

// StockReceivedEvent is emitted when purchased stock arrives
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	StoreID   string          `json:"store_id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	OnHand    decimal.Decimal `json:"on_hand"`
}

// NewStockReceivedEvent creates a StockReceivedEvent
func NewStockReceivedEvent(item *StockItem, quantity, unitCost decimal.Decimal) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReceived, AggregateTypeStockItem, item.ID, item.TenantID),
		StoreID:         item.StoreID.String(),
		ProductID:       item.ProductID.String(),
		Quantity:        quantity,
		UnitCost:        unitCost,
		OnHand:          item.QuantityOnHand,
	}
}

// StockAdjustedEvent is emitted when a manual adjustment or count changes stock
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	StoreID    string          `json:"store_id"`
	ProductID  string          `json:"product_id"`
	Difference decimal.Decimal `json:"difference"`
	OnHand     decimal.Decimal `json:"on_hand"`
}

// NewStockAdjustedEvent creates a StockAdjustedEvent
func NewStockAdjustedEvent(item *StockItem, difference decimal.Decimal) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeStockItem, item.ID, item.TenantID),
		StoreID:         item.StoreID.String(),
		ProductID:       item.ProductID.String(),
		Difference:      difference,
		OnHand:          item.QuantityOnHand,
	}
}

// StockBelowZeroEvent is emitted when an oversell drives quantity negative
type StockBelowZeroEvent struct {
	shared.BaseDomainEvent
	StoreID   string          `json:"store_id"`
	ProductID string          `json:"product_id"`
	OnHand    decimal.Decimal `json:"on_hand"`
}

// NewStockBelowZeroEvent creates a StockBelowZeroEvent
func NewStockBelowZeroEvent(item *StockItem) *StockBelowZeroEvent {
	return &StockBelowZeroEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowZero, AggregateTypeStockItem, item.ID, item.TenantID),
		StoreID:         item.StoreID.String(),
		ProductID:       item.ProductID.String(),
		OnHand:          item.QuantityOnHand,
	}
}
