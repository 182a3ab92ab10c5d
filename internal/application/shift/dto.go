package shift

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shift"
	"github.com/shopspring/decimal"
)

// OpenShiftInput is the request to open a new cash drawer session
type OpenShiftInput struct {
	StoreID     uuid.UUID       `json:"store_id"`
	CashierID   uuid.UUID       `json:"cashier_id"`
	OpeningCash decimal.Decimal `json:"opening_cash"`
}

// CashMovementInput is the request to record a manual cash event
type CashMovementInput struct {
	Type       shift.MovementType `json:"type"`
	Amount     decimal.Decimal    `json:"amount"`
	Reason     string             `json:"reason,omitempty"`
	ApproverID *uuid.UUID         `json:"approver_id,omitempty"`
}

// CloseShiftInput is the request to close a shift with the counted drawer
type CloseShiftInput struct {
	ActualClosingCash decimal.Decimal `json:"actual_closing_cash"`
	Notes             string          `json:"notes,omitempty"`
}

// CashMovementResponse is one cash movement in API responses
type CashMovementResponse struct {
	ID         uuid.UUID          `json:"id"`
	Type       shift.MovementType `json:"type"`
	Amount     decimal.Decimal    `json:"amount"`
	Reason     string             `json:"reason,omitempty"`
	ApproverID *uuid.UUID         `json:"approver_id,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ShiftResponse is a full shift in API responses
type ShiftResponse struct {
	ID                uuid.UUID              `json:"id"`
	ShiftNumber       string                 `json:"shift_number"`
	Status            shift.Status           `json:"status"`
	StoreID           uuid.UUID              `json:"store_id"`
	CashierID         uuid.UUID              `json:"cashier_id"`
	OpeningCash       decimal.Decimal        `json:"opening_cash"`
	SalesTotal        decimal.Decimal        `json:"sales_total"`
	RefundTotal       decimal.Decimal        `json:"refund_total"`
	CashPaymentsTotal decimal.Decimal        `json:"cash_payments_total"`
	CardPaymentsTotal decimal.Decimal        `json:"card_payments_total"`
	TransactionCount  int                    `json:"transaction_count"`
	ClosingCash       *decimal.Decimal       `json:"closing_cash,omitempty"`
	ExpectedCash      *decimal.Decimal       `json:"expected_cash,omitempty"`
	CashDifference    *decimal.Decimal       `json:"cash_difference,omitempty"`
	Notes             string                 `json:"notes,omitempty"`
	Movements         []CashMovementResponse `json:"movements"`
	OpenedAt          time.Time              `json:"opened_at"`
	ClosedAt          *time.Time             `json:"closed_at,omitempty"`
}

// ShiftListFilter represents filter options for shift listings
type ShiftListFilter struct {
	StoreID   *uuid.UUID `form:"store_id"`
	CashierID *uuid.UUID `form:"cashier_id"`
	Status    string     `form:"status" binding:"omitempty,oneof=OPEN CLOSED"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"min=1"`
	PageSize  int        `form:"page_size" binding:"min=1,max=100"`
}

// ToShiftResponse converts a shift aggregate into its API representation
func ToShiftResponse(s *shift.Shift) *ShiftResponse {
	movements := make([]CashMovementResponse, 0, len(s.Movements))
	for i := range s.Movements {
		m := &s.Movements[i]
		movements = append(movements, CashMovementResponse{
			ID:         m.ID,
			Type:       m.Type,
			Amount:     m.Amount,
			Reason:     m.Reason,
			ApproverID: m.ApproverID,
			CreatedAt:  m.CreatedAt,
		})
	}

	return &ShiftResponse{
		ID:                s.ID,
		ShiftNumber:       s.ShiftNumber,
		Status:            s.Status,
		StoreID:           s.StoreID,
		CashierID:         s.CashierID,
		OpeningCash:       s.OpeningCash,
		SalesTotal:        s.SalesTotal,
		RefundTotal:       s.RefundTotal,
		CashPaymentsTotal: s.CashPaymentsTotal,
		CardPaymentsTotal: s.CardPaymentsTotal,
		TransactionCount:  s.TransactionCount,
		ClosingCash:       s.ClosingCash,
		ExpectedCash:      s.ExpectedCash,
		CashDifference:    s.CashDifference,
		Notes:             s.Notes,
		Movements:         movements,
		OpenedAt:          s.OpenedAt,
		ClosedAt:          s.ClosedAt,
	}
}
