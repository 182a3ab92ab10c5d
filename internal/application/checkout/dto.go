package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/checkout"
	"github.com/shopspring/decimal"
)

// SaleLineInput is one cart line in a sale request. UnitPriceOverride, when
// set, replaces the catalog sell price (price-override permission is checked
// at the interface layer, not here).
type SaleLineInput struct {
	ProductID         uuid.UUID             `json:"product_id"`
	VariantID         *uuid.UUID            `json:"variant_id,omitempty"`
	Quantity          decimal.Decimal       `json:"quantity"`
	UnitPriceOverride *decimal.Decimal      `json:"unit_price_override,omitempty"`
	DiscountKind      checkout.DiscountKind `json:"discount_kind,omitempty"`
	DiscountValue     decimal.Decimal       `json:"discount_value,omitempty"`
}

// DiscountInput is a cart-level discount in a sale request
type DiscountInput struct {
	Scope checkout.DiscountScope `json:"scope"`
	Kind  checkout.DiscountKind  `json:"kind"`
	Value decimal.Decimal        `json:"value"`
	Code  string                 `json:"code,omitempty"`
}

// PaymentInput is one payment tender in a sale or refund request
type PaymentInput struct {
	Method    checkout.PaymentMethod `json:"method"`
	Amount    decimal.Decimal        `json:"amount"`
	Reference string                 `json:"reference,omitempty"`
}

// CreateSaleInput is the full sale request processed by SaleService.CreateSale
type CreateSaleInput struct {
	StoreID        uuid.UUID       `json:"store_id"`
	CashierID      uuid.UUID       `json:"cashier_id"`
	ShiftID        *uuid.UUID      `json:"shift_id,omitempty"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
	Lines          []SaleLineInput `json:"lines"`
	CartDiscounts  []DiscountInput `json:"cart_discounts,omitempty"`
	Payments       []PaymentInput  `json:"payments"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	OfflineCreated bool            `json:"offline_created,omitempty"`
}

// RefundLineInput selects one original line and the quantity to refund
type RefundLineInput struct {
	LineID   uuid.UUID       `json:"line_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason,omitempty"`
}

// ProcessRefundInput is the refund request processed by RefundService
type ProcessRefundInput struct {
	OriginalReceiptID uuid.UUID         `json:"original_receipt_id"`
	CashierID         uuid.UUID         `json:"cashier_id"`
	ShiftID           *uuid.UUID        `json:"shift_id,omitempty"`
	Lines             []RefundLineInput `json:"lines"`
	Payments          []PaymentInput    `json:"payments,omitempty"`
	IdempotencyKey    string            `json:"idempotency_key,omitempty"`
	RestockItems      bool              `json:"restock_items"`
}

// ReceiptLineResponse is one receipt line in API responses
type ReceiptLineResponse struct {
	ID               uuid.UUID                `json:"id"`
	LineNumber       int                      `json:"line_number"`
	ProductID        uuid.UUID                `json:"product_id"`
	VariantID        *uuid.UUID               `json:"variant_id,omitempty"`
	Quantity         decimal.Decimal          `json:"quantity"`
	UnitPrice        decimal.Decimal          `json:"unit_price"`
	Discount         *checkout.DiscountDetail `json:"discount,omitempty"`
	DiscountAmount   decimal.Decimal          `json:"discount_amount"`
	TaxRate          decimal.Decimal          `json:"tax_rate"`
	TaxAmount        decimal.Decimal          `json:"tax_amount"`
	LineTotal        decimal.Decimal          `json:"line_total"`
	RefundedQuantity decimal.Decimal          `json:"refunded_quantity"`
	OriginalLineID   *uuid.UUID               `json:"original_line_id,omitempty"`
	Reason           string                   `json:"reason,omitempty"`
}

// ReceiptResponse is a full receipt in API responses
type ReceiptResponse struct {
	ID                uuid.UUID                 `json:"id"`
	ReceiptNumber     string                    `json:"receipt_number"`
	Type              checkout.ReceiptType      `json:"type"`
	Status            checkout.ReceiptStatus    `json:"status"`
	StoreID           uuid.UUID                 `json:"store_id"`
	ShiftID           *uuid.UUID                `json:"shift_id,omitempty"`
	CashierID         uuid.UUID                 `json:"cashier_id"`
	CustomerID        *uuid.UUID                `json:"customer_id,omitempty"`
	Subtotal          decimal.Decimal           `json:"subtotal"`
	DiscountTotal     decimal.Decimal           `json:"discount_total"`
	TaxTotal          decimal.Decimal           `json:"tax_total"`
	Total             decimal.Decimal           `json:"total"`
	PaidTotal         decimal.Decimal           `json:"paid_total"`
	ChangeDue         decimal.Decimal           `json:"change_due"`
	Discounts         []checkout.DiscountDetail `json:"discounts,omitempty"`
	Payments          []checkout.Payment        `json:"payments"`
	Lines             []ReceiptLineResponse     `json:"lines"`
	OriginalReceiptID *uuid.UUID                `json:"original_receipt_id,omitempty"`
	OfflineCreated    bool                      `json:"offline_created"`
	CompletedAt       *time.Time                `json:"completed_at,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
}

// ReceiptListFilter represents filter options for receipt search
type ReceiptListFilter struct {
	Search    string     `form:"search"`
	StoreID   *uuid.UUID `form:"store_id"`
	CashierID *uuid.UUID `form:"cashier_id"`
	ShiftID   *uuid.UUID `form:"shift_id"`
	Type      string     `form:"type" binding:"omitempty,oneof=SALE REFUND EXCHANGE"`
	Status    string     `form:"status" binding:"omitempty,oneof=PARKED COMPLETED VOIDED REFUNDED"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"min=1"`
	PageSize  int        `form:"page_size" binding:"min=1,max=100"`
}

// ToReceiptResponse converts a receipt aggregate into its API representation
func ToReceiptResponse(r *checkout.Receipt) *ReceiptResponse {
	lines := make([]ReceiptLineResponse, 0, len(r.Lines))
	for i := range r.Lines {
		l := &r.Lines[i]
		lines = append(lines, ReceiptLineResponse{
			ID:               l.ID,
			LineNumber:       l.LineNumber,
			ProductID:        l.ProductID,
			VariantID:        l.VariantID,
			Quantity:         l.Quantity,
			UnitPrice:        l.UnitPrice,
			Discount:         l.Discount,
			DiscountAmount:   l.DiscountAmount,
			TaxRate:          l.TaxRate,
			TaxAmount:        l.TaxAmount,
			LineTotal:        l.LineTotal,
			RefundedQuantity: l.RefundedQuantity,
			OriginalLineID:   l.OriginalLineID,
			Reason:           l.Reason,
		})
	}

	return &ReceiptResponse{
		ID:                r.ID,
		ReceiptNumber:     r.ReceiptNumber,
		Type:              r.Type,
		Status:            r.Status,
		StoreID:           r.StoreID,
		ShiftID:           r.ShiftID,
		CashierID:         r.CashierID,
		CustomerID:        r.CustomerID,
		Subtotal:          r.Subtotal,
		DiscountTotal:     r.DiscountTotal,
		TaxTotal:          r.TaxTotal,
		Total:             r.Total,
		PaidTotal:         r.PaidTotal,
		ChangeDue:         r.ChangeDue,
		Discounts:         r.Discounts,
		Payments:          r.Payments,
		Lines:             lines,
		OriginalReceiptID: r.OriginalReceiptID,
		OfflineCreated:    r.OfflineCreated,
		CompletedAt:       r.CompletedAt,
		CreatedAt:         r.CreatedAt,
	}
}
