package checkout

import (
	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types emitted by the checkout context
const (
	EventTypeReceiptCompleted = "checkout.receipt.completed"
	EventTypeReceiptRefunded  = "checkout.receipt.refunded"
	EventTypeReceiptVoided    = "checkout.receipt.voided"
)

// AggregateTypeReceipt is the aggregate type name used in events
const AggregateTypeReceipt = "Receipt"

// ReceiptCompletedEvent is emitted when a sale or refund receipt is committed.
// Downstream consumers (audit log, reporting) receive it after the
// transaction has committed; delivery is best-effort.
type ReceiptCompletedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber string          `json:"receipt_number"`
	ReceiptType   ReceiptType     `json:"receipt_type"`
	StoreID       uuid.UUID       `json:"store_id"`
	CashierID     uuid.UUID       `json:"cashier_id"`
	ShiftID       *uuid.UUID      `json:"shift_id,omitempty"`
	Total         decimal.Decimal `json:"total"`
	PaidTotal     decimal.Decimal `json:"paid_total"`
	LineCount     int             `json:"line_count"`
}

// NewReceiptCompletedEvent creates a ReceiptCompletedEvent from a receipt
func NewReceiptCompletedEvent(r *Receipt) *ReceiptCompletedEvent {
	return &ReceiptCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptCompleted, AggregateTypeReceipt, r.ID, r.TenantID),
		ReceiptNumber:   r.ReceiptNumber,
		ReceiptType:     r.Type,
		StoreID:         r.StoreID,
		CashierID:       r.CashierID,
		ShiftID:         r.ShiftID,
		Total:           r.Total,
		PaidTotal:       r.PaidTotal,
		LineCount:       len(r.Lines),
	}
}

// ReceiptRefundedEvent is emitted when an original receipt is marked refunded
type ReceiptRefundedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber string    `json:"receipt_number"`
	StoreID       uuid.UUID `json:"store_id"`
}

// NewReceiptRefundedEvent creates a ReceiptRefundedEvent from a receipt
func NewReceiptRefundedEvent(r *Receipt) *ReceiptRefundedEvent {
	return &ReceiptRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptRefunded, AggregateTypeReceipt, r.ID, r.TenantID),
		ReceiptNumber:   r.ReceiptNumber,
		StoreID:         r.StoreID,
	}
}

// ReceiptVoidedEvent is emitted when a receipt is voided
type ReceiptVoidedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber string    `json:"receipt_number"`
	StoreID       uuid.UUID `json:"store_id"`
	Reason        string    `json:"reason"`
}

// NewReceiptVoidedEvent creates a ReceiptVoidedEvent from a receipt
func NewReceiptVoidedEvent(r *Receipt, reason string) *ReceiptVoidedEvent {
	return &ReceiptVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptVoided, AggregateTypeReceipt, r.ID, r.TenantID),
		ReceiptNumber:   r.ReceiptNumber,
		StoreID:         r.StoreID,
		Reason:          reason,
	}
}
