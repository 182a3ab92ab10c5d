package checkout

import (
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DiscountScope identifies what a discount applies to
type DiscountScope string

const (
	DiscountScopeLine    DiscountScope = "LINE"
	DiscountScopeCart    DiscountScope = "CART"
	DiscountScopeCoupon  DiscountScope = "COUPON"
	DiscountScopeLoyalty DiscountScope = "LOYALTY"
)

// IsValid returns true if the scope is a known DiscountScope
func (s DiscountScope) IsValid() bool {
	switch s {
	case DiscountScopeLine, DiscountScopeCart, DiscountScopeCoupon, DiscountScopeLoyalty:
		return true
	}
	return false
}

// DiscountKind determines how a discount value is interpreted
type DiscountKind string

const (
	// DiscountKindPercentage interprets Value as a percentage of the base amount
	DiscountKindPercentage DiscountKind = "PERCENTAGE"
	// DiscountKindFixed interprets Value as an absolute amount
	DiscountKindFixed DiscountKind = "FIXED"
)

// IsValid returns true if the kind is a known DiscountKind
func (k DiscountKind) IsValid() bool {
	return k == DiscountKindPercentage || k == DiscountKindFixed
}

// DiscountDetail records one applied discount. Amount is the computed
// monetary value, frozen at sale time.
type DiscountDetail struct {
	Scope  DiscountScope   `json:"scope"`
	Kind   DiscountKind    `json:"kind"`
	Value  decimal.Decimal `json:"value"`
	Amount decimal.Decimal `json:"amount"`
	Code   string          `json:"code,omitempty"` // coupon/loyalty reference
}

// NewDiscountDetail validates and constructs a discount with its computed amount.
// A fixed discount is capped at the base amount so the discounted total can
// never go negative. Percentage values must be within [0, 100].
func NewDiscountDetail(scope DiscountScope, kind DiscountKind, value, base decimal.Decimal) (DiscountDetail, error) {
	if !scope.IsValid() {
		return DiscountDetail{}, shared.NewValidationError("INVALID_DISCOUNT_SCOPE", "Unknown discount scope")
	}
	if !kind.IsValid() {
		return DiscountDetail{}, shared.NewValidationError("INVALID_DISCOUNT_KIND", "Unknown discount kind")
	}
	if value.IsNegative() {
		return DiscountDetail{}, shared.NewValidationError("INVALID_DISCOUNT_VALUE", "Discount value cannot be negative")
	}

	var amount decimal.Decimal
	switch kind {
	case DiscountKindPercentage:
		if value.GreaterThan(decimal.NewFromInt(100)) {
			return DiscountDetail{}, shared.NewValidationError("INVALID_DISCOUNT_VALUE", "Percentage discount cannot exceed 100")
		}
		amount = valueobject.RoundCurrency(base.Mul(value).Div(decimal.NewFromInt(100)))
	case DiscountKindFixed:
		amount = value
		if amount.GreaterThan(base) {
			amount = base
		}
		amount = valueobject.RoundCurrency(amount)
	}

	return DiscountDetail{
		Scope:  scope,
		Kind:   kind,
		Value:  value,
		Amount: amount,
	}, nil
}
