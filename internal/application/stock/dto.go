package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// ReceiveStockInput records a goods receipt (GRN) for one product
type ReceiveStockInput struct {
	StoreID     uuid.UUID       `json:"store_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	ReferenceID uuid.UUID       `json:"reference_id"`
	ActorID     uuid.UUID       `json:"actor_id"`
	Reason      string          `json:"reason,omitempty"`
}

// TransferStockInput moves quantity between two stores of the same tenant
type TransferStockInput struct {
	FromStoreID uuid.UUID       `json:"from_store_id"`
	ToStoreID   uuid.UUID       `json:"to_store_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	ReferenceID uuid.UUID       `json:"reference_id"`
	ActorID     uuid.UUID       `json:"actor_id"`
	Reason      string          `json:"reason,omitempty"`
}

// AdjustStockInput corrects the on-hand quantity to an absolute value
type AdjustStockInput struct {
	StoreID        uuid.UUID       `json:"store_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	ActualQuantity decimal.Decimal `json:"actual_quantity"`
	ReferenceID    uuid.UUID       `json:"reference_id"`
	ActorID        uuid.UUID       `json:"actor_id"`
	Reason         string          `json:"reason"`
}

// StockCountLineInput is one counted product in a stock count
type StockCountLineInput struct {
	ProductID       uuid.UUID       `json:"product_id"`
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
}

// RecordStockCountInput applies a full stock count at one store
type RecordStockCountInput struct {
	StoreID     uuid.UUID             `json:"store_id"`
	Lines       []StockCountLineInput `json:"lines"`
	ReferenceID uuid.UUID             `json:"reference_id"`
	ActorID     uuid.UUID             `json:"actor_id"`
	Reason      string                `json:"reason,omitempty"`
}

// StockItemResponse is a stock projection row in API responses
type StockItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	StoreID          uuid.UUID       `json:"store_id"`
	ProductID        uuid.UUID       `json:"product_id"`
	QuantityOnHand   decimal.Decimal `json:"quantity_on_hand"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity"`
	Available        decimal.Decimal `json:"available"`
	AverageCost      decimal.Decimal `json:"average_cost"`
	AllowNegative    bool            `json:"allow_negative"`
	LastReceivedAt   *time.Time      `json:"last_received_at,omitempty"`
	LastSoldAt       *time.Time      `json:"last_sold_at,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// StockMovementResponse is one ledger entry in API responses
type StockMovementResponse struct {
	ID             uuid.UUID           `json:"id"`
	StoreID        uuid.UUID           `json:"store_id"`
	ProductID      uuid.UUID           `json:"product_id"`
	QuantityDelta  decimal.Decimal     `json:"quantity_delta"`
	QuantityBefore decimal.Decimal     `json:"quantity_before"`
	QuantityAfter  decimal.Decimal     `json:"quantity_after"`
	UnitCost       decimal.Decimal     `json:"unit_cost"`
	ReferenceType  stock.ReferenceType `json:"reference_type"`
	ReferenceID    uuid.UUID           `json:"reference_id"`
	ReferenceLine  *uuid.UUID          `json:"reference_line,omitempty"`
	ActorID        uuid.UUID           `json:"actor_id"`
	Reason         string              `json:"reason,omitempty"`
	MovedAt        time.Time           `json:"moved_at"`
}

// AdjustmentResponse reports the applied correction
type AdjustmentResponse struct {
	Item          *StockItemResponse `json:"item"`
	QuantityDelta decimal.Decimal    `json:"quantity_delta"`
}

// StockCountResponse reports every non-zero correction applied by a count
type StockCountResponse struct {
	StoreID     uuid.UUID            `json:"store_id"`
	Adjustments []AdjustmentResponse `json:"adjustments"`
}

// MovementListFilter represents filter options for ledger queries
type MovementListFilter struct {
	StoreID       *uuid.UUID `form:"store_id"`
	ProductID     *uuid.UUID `form:"product_id"`
	ReferenceType string     `form:"reference_type"`
	From          *time.Time `form:"from" time_format:"2006-01-02"`
	To            *time.Time `form:"to" time_format:"2006-01-02"`
	Page          int        `form:"page" binding:"min=1"`
	PageSize      int        `form:"page_size" binding:"min=1,max=100"`
}

// ToStockItemResponse converts a stock projection into its API representation
func ToStockItemResponse(item *stock.StockItem) *StockItemResponse {
	return &StockItemResponse{
		ID:               item.ID,
		StoreID:          item.StoreID,
		ProductID:        item.ProductID,
		QuantityOnHand:   item.QuantityOnHand,
		ReservedQuantity: item.ReservedQuantity,
		Available:        item.Available(),
		AverageCost:      item.AverageCost,
		AllowNegative:    item.AllowNegative,
		LastReceivedAt:   item.LastReceivedAt,
		LastSoldAt:       item.LastSoldAt,
		UpdatedAt:        item.UpdatedAt,
	}
}

// ToStockMovementResponse converts a ledger entry into its API representation
func ToStockMovementResponse(m *stock.StockMovement) *StockMovementResponse {
	return &StockMovementResponse{
		ID:             m.ID,
		StoreID:        m.StoreID,
		ProductID:      m.ProductID,
		QuantityDelta:  m.QuantityDelta,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		UnitCost:       m.UnitCost,
		ReferenceType:  m.ReferenceType,
		ReferenceID:    m.ReferenceID,
		ReferenceLine:  m.ReferenceLine,
		ActorID:        m.ActorID,
		Reason:         m.Reason,
		MovedAt:        m.MovedAt,
	}
}
