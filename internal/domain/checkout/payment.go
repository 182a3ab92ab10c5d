package checkout

import (
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how a payment was tendered.
// Payments are recorded, never processed - gateway integration lives elsewhere.
type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "CASH"
	PaymentMethodCard    PaymentMethod = "CARD"
	PaymentMethodVoucher PaymentMethod = "VOUCHER"
	PaymentMethodLoyalty PaymentMethod = "LOYALTY"
)

// IsValid returns true if the method is a known PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodVoucher, PaymentMethodLoyalty:
		return true
	}
	return false
}

// IsCash returns true for payments that move physical cash through the drawer
func (m PaymentMethod) IsCash() bool {
	return m == PaymentMethodCash
}

// Payment records one tendered payment on a receipt
type Payment struct {
	Method    PaymentMethod   `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"` // card auth code, voucher number
}

// NewPayment validates and constructs a payment
func NewPayment(method PaymentMethod, amount decimal.Decimal, reference string) (Payment, error) {
	if !method.IsValid() {
		return Payment{}, shared.NewValidationError("INVALID_PAYMENT_METHOD", "Unknown payment method")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return Payment{}, shared.NewValidationError("INVALID_PAYMENT_AMOUNT", "Payment amount must be positive")
	}
	return Payment{Method: method, Amount: valueobject.RoundCurrency(amount), Reference: reference}, nil
}
