package shift

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a shift
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// MovementType classifies a manual cash movement against the drawer.
// Canonical drawer-direction mapping: cash_in and drop add money to the
// drawer, cash_out and pickup remove money from it.
type MovementType string

const (
	MovementTypeCashIn  MovementType = "CASH_IN"
	MovementTypeCashOut MovementType = "CASH_OUT"
	MovementTypeDrop    MovementType = "DROP"
	MovementTypePickup  MovementType = "PICKUP"
)

// IsValid returns true if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeCashIn, MovementTypeCashOut, MovementTypeDrop, MovementTypePickup:
		return true
	}
	return false
}

// IsInflow returns true for movement types that add cash to the drawer
func (t MovementType) IsInflow() bool {
	return t == MovementTypeCashIn || t == MovementTypeDrop
}

// CashMovement is one manual cash event on an open shift. Append-only.
type CashMovement struct {
	shared.BaseEntity
	ShiftID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type       MovementType    `gorm:"type:varchar(20);not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,4);not null"` // always positive
	Reason     string          `gorm:"type:varchar(255)"`
	ApproverID *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (CashMovement) TableName() string {
	return "shift_cash_movements"
}

// Shift is one cashier's bounded cash-drawer session. Running totals are
// incremented by each completed sale or refund that references the shift;
// Close freezes everything and computes the reconciliation fields.
// At most one open shift may exist per (tenant, cashier, store).
type Shift struct {
	shared.TenantAggregateRoot
	StoreID           uuid.UUID        `gorm:"type:uuid;not null;index"`
	CashierID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	ShiftNumber       string           `gorm:"type:varchar(30);not null"`
	Status            Status           `gorm:"type:varchar(10);not null"`
	OpeningCash       decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	SalesTotal        decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	RefundTotal       decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	CashPaymentsTotal decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	CardPaymentsTotal decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TransactionCount  int              `gorm:"not null;default:0"`
	ClosingCash       *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ExpectedCash      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	CashDifference    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Notes             string           `gorm:"type:varchar(500)"`
	OpenedAt          time.Time        `gorm:"type:timestamptz;not null"`
	ClosedAt          *time.Time       `gorm:"type:timestamptz"`
	Movements         []CashMovement   `gorm:"foreignKey:ShiftID;references:ID"`
}

// TableName returns the table name for GORM
func (Shift) TableName() string {
	return "shifts"
}

// Open creates a new open shift with zeroed running totals
func Open(tenantID, storeID, cashierID uuid.UUID, shiftNumber string, openingCash decimal.Decimal) (*Shift, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if cashierID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CASHIER", "Cashier ID cannot be empty")
	}
	if shiftNumber == "" {
		return nil, shared.NewValidationError("INVALID_SHIFT_NUMBER", "Shift number cannot be empty")
	}
	if openingCash.IsNegative() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Opening cash cannot be negative")
	}

	s := &Shift{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		StoreID:             storeID,
		CashierID:           cashierID,
		ShiftNumber:         shiftNumber,
		Status:              StatusOpen,
		OpeningCash:         openingCash,
		SalesTotal:          decimal.Zero,
		RefundTotal:         decimal.Zero,
		CashPaymentsTotal:   decimal.Zero,
		CardPaymentsTotal:   decimal.Zero,
		OpenedAt:            time.Now(),
		Movements:           make([]CashMovement, 0),
	}
	s.AddDomainEvent(NewShiftOpenedEvent(s))
	return s, nil
}

// IsOpen returns true while the shift accepts sales and movements
func (s *Shift) IsOpen() bool {
	return s.Status == StatusOpen
}

// RecordSale increments running totals for one completed sale
func (s *Shift) RecordSale(total, cashPaid, cardPaid decimal.Decimal) error {
	if !s.IsOpen() {
		return shared.ErrShiftClosed
	}
	s.SalesTotal = s.SalesTotal.Add(total)
	s.CashPaymentsTotal = s.CashPaymentsTotal.Add(cashPaid)
	s.CardPaymentsTotal = s.CardPaymentsTotal.Add(cardPaid)
	s.TransactionCount++
	s.Touch()
	s.IncrementVersion()
	return nil
}

// RecordRefund increments running totals for one completed refund.
// Amounts arrive negated (refund receipts carry negative totals); cash
// returned to the customer reduces the expected drawer cash.
func (s *Shift) RecordRefund(total, cashRefunded, cardRefunded decimal.Decimal) error {
	if !s.IsOpen() {
		return shared.ErrShiftClosed
	}
	s.RefundTotal = s.RefundTotal.Add(total)
	s.CashPaymentsTotal = s.CashPaymentsTotal.Add(cashRefunded)
	s.CardPaymentsTotal = s.CardPaymentsTotal.Add(cardRefunded)
	s.TransactionCount++
	s.Touch()
	s.IncrementVersion()
	return nil
}

// RecordCashMovement appends a manual cash movement to an open shift
func (s *Shift) RecordCashMovement(movementType MovementType, amount decimal.Decimal, reason string, approverID *uuid.UUID) (*CashMovement, error) {
	if !s.IsOpen() {
		return nil, shared.ErrShiftClosed
	}
	if !movementType.IsValid() {
		return nil, shared.NewValidationError("INVALID_MOVEMENT_TYPE", "Unknown cash movement type")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Cash movement amount must be positive")
	}

	m := CashMovement{
		BaseEntity: shared.NewBaseEntity(),
		ShiftID:    s.ID,
		Type:       movementType,
		Amount:     valueobject.RoundCurrency(amount),
		Reason:     reason,
		ApproverID: approverID,
	}
	s.Movements = append(s.Movements, m)
	s.Touch()
	s.IncrementVersion()
	return &s.Movements[len(s.Movements)-1], nil
}

// CashInTotal sums movements that added cash to the drawer
func (s *Shift) CashInTotal() decimal.Decimal {
	total := decimal.Zero
	for _, m := range s.Movements {
		if m.Type.IsInflow() {
			total = total.Add(m.Amount)
		}
	}
	return total
}

// CashOutTotal sums movements that removed cash from the drawer
func (s *Shift) CashOutTotal() decimal.Decimal {
	total := decimal.Zero
	for _, m := range s.Movements {
		if !m.Type.IsInflow() {
			total = total.Add(m.Amount)
		}
	}
	return total
}

// Close ends the shift exactly once and computes reconciliation:
//
//	expected = opening + cash payments + cash in - cash out
//	difference = actual closing - expected
//
// Close is terminal: no movements or totals updates are accepted afterwards.
func (s *Shift) Close(actualClosingCash decimal.Decimal, notes string) error {
	if !s.IsOpen() {
		return shared.ErrShiftClosed
	}
	if actualClosingCash.IsNegative() {
		return shared.NewValidationError("INVALID_AMOUNT", "Closing cash cannot be negative")
	}

	expected := valueobject.RoundCurrency(s.OpeningCash.
		Add(s.CashPaymentsTotal).
		Add(s.CashInTotal()).
		Sub(s.CashOutTotal()))
	difference := valueobject.RoundCurrency(actualClosingCash.Sub(expected))
	closing := valueobject.RoundCurrency(actualClosingCash)

	now := time.Now()
	s.Status = StatusClosed
	s.ClosingCash = &closing
	s.ExpectedCash = &expected
	s.CashDifference = &difference
	s.Notes = notes
	s.ClosedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewShiftClosedEvent(s))
	return nil
}

// Reconciliation returns the close-time figures, or an error while still open
func (s *Shift) Reconciliation() (expected, difference decimal.Decimal, err error) {
	if s.IsOpen() || s.ExpectedCash == nil || s.CashDifference == nil {
		return decimal.Zero, decimal.Zero,
			shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Shift %s is not closed", s.ShiftNumber))
	}
	return *s.ExpectedCash, *s.CashDifference, nil
}
