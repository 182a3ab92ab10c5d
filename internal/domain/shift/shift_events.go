package shift

import (
	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types emitted by the shift context
const (
	EventTypeShiftOpened = "shift.opened"
	EventTypeShiftClosed = "shift.closed"
)

// AggregateTypeShift is the aggregate type name used in events
const AggregateTypeShift = "Shift"

// ShiftOpenedEvent is emitted when a cashier opens a drawer session
type ShiftOpenedEvent struct {
	shared.BaseDomainEvent
	ShiftNumber string          `json:"shift_number"`
	StoreID     uuid.UUID       `json:"store_id"`
	CashierID   uuid.UUID       `json:"cashier_id"`
	OpeningCash decimal.Decimal `json:"opening_cash"`
}

// NewShiftOpenedEvent creates a ShiftOpenedEvent
func NewShiftOpenedEvent(s *Shift) *ShiftOpenedEvent {
	return &ShiftOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShiftOpened, AggregateTypeShift, s.ID, s.TenantID),
		ShiftNumber:     s.ShiftNumber,
		StoreID:         s.StoreID,
		CashierID:       s.CashierID,
		OpeningCash:     s.OpeningCash,
	}
}

// ShiftClosedEvent is emitted when a shift is reconciled and closed
type ShiftClosedEvent struct {
	shared.BaseDomainEvent
	ShiftNumber    string          `json:"shift_number"`
	StoreID        uuid.UUID       `json:"store_id"`
	CashierID      uuid.UUID       `json:"cashier_id"`
	ExpectedCash   decimal.Decimal `json:"expected_cash"`
	ClosingCash    decimal.Decimal `json:"closing_cash"`
	CashDifference decimal.Decimal `json:"cash_difference"`
}

// NewShiftClosedEvent creates a ShiftClosedEvent
func NewShiftClosedEvent(s *Shift) *ShiftClosedEvent {
	e := &ShiftClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShiftClosed, AggregateTypeShift, s.ID, s.TenantID),
		ShiftNumber:     s.ShiftNumber,
		StoreID:         s.StoreID,
		CashierID:       s.CashierID,
	}
	if s.ExpectedCash != nil {
		e.ExpectedCash = *s.ExpectedCash
	}
	if s.ClosingCash != nil {
		e.ClosingCash = *s.ClosingCash
	}
	if s.CashDifference != nil {
		e.CashDifference = *s.CashDifference
	}
	return e
}
