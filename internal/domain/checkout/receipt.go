package checkout

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ReceiptType distinguishes sales from their reversals
type ReceiptType string

const (
	ReceiptTypeSale     ReceiptType = "SALE"
	ReceiptTypeRefund   ReceiptType = "REFUND"
	ReceiptTypeExchange ReceiptType = "EXCHANGE"
)

// IsValid returns true if the type is a known ReceiptType
func (t ReceiptType) IsValid() bool {
	switch t {
	case ReceiptTypeSale, ReceiptTypeRefund, ReceiptTypeExchange:
		return true
	}
	return false
}

// ReceiptStatus represents the lifecycle state of a receipt
type ReceiptStatus string

const (
	ReceiptStatusParked    ReceiptStatus = "PARKED"
	ReceiptStatusCompleted ReceiptStatus = "COMPLETED"
	ReceiptStatusVoided    ReceiptStatus = "VOIDED"
	ReceiptStatusRefunded  ReceiptStatus = "REFUNDED"
)

// CanTransitionTo checks if the status can transition to the target status.
// Receipts are immutable once completed except for these two transitions;
// they are never physically deleted.
func (s ReceiptStatus) CanTransitionTo(target ReceiptStatus) bool {
	if s == ReceiptStatusCompleted {
		return target == ReceiptStatusRefunded || target == ReceiptStatusVoided
	}
	return false
}

// String returns the string representation of ReceiptStatus
func (s ReceiptStatus) String() string {
	return string(s)
}

// ReceiptLine is one line item on a receipt. Monetary amounts are frozen at
// sale time; CostPrice is a snapshot from the catalog, never re-resolved.
// Refund lines carry negated Quantity and amounts.
type ReceiptLine struct {
	shared.BaseEntity
	ReceiptID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNumber       int             `gorm:"not null"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID        *uuid.UUID      `gorm:"type:uuid"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount         *DiscountDetail `gorm:"serializer:json"`
	DiscountAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate          decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	TaxAmount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LineTotal        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CostPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PromotionID      *uuid.UUID      `gorm:"type:uuid"`
	TrackStock       bool            `gorm:"not null;default:true"`
	RefundedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	OriginalLineID   *uuid.UUID      `gorm:"type:uuid"` // set on refund lines
	Reason           string          `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (ReceiptLine) TableName() string {
	return "receipt_lines"
}

// RemainingRefundable returns the quantity of this line not yet refunded
func (l *ReceiptLine) RemainingRefundable() decimal.Decimal {
	return l.Quantity.Sub(l.RefundedQuantity)
}

// LineSpec is the input for adding a line to a receipt
type LineSpec struct {
	ProductID     uuid.UUID
	VariantID     *uuid.UUID
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	DiscountKind  DiscountKind    // zero value means no line discount
	DiscountValue decimal.Decimal
	TaxRate       decimal.Decimal
	CostPrice     decimal.Decimal
	TrackStock    bool
	PromotionID   *uuid.UUID
}

// Receipt is the persisted record of one sale or refund transaction.
// It is the aggregate root for the checkout context.
type Receipt struct {
	shared.TenantAggregateRoot
	StoreID           uuid.UUID        `gorm:"type:uuid;not null;index"`
	ShiftID           *uuid.UUID       `gorm:"type:uuid;index"`
	CashierID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	CustomerID        *uuid.UUID       `gorm:"type:uuid;index"`
	ReceiptNumber     string           `gorm:"type:varchar(30);not null"`
	Type              ReceiptType      `gorm:"type:varchar(20);not null"`
	Status            ReceiptStatus    `gorm:"type:varchar(20);not null"`
	Subtotal          decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountTotal     decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TaxTotal          decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Total             decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	PaidTotal         decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	ChangeDue         decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Discounts         []DiscountDetail `gorm:"serializer:json"`
	Payments          []Payment        `gorm:"serializer:json"`
	OriginalReceiptID *uuid.UUID       `gorm:"type:uuid;index"`
	IdempotencyKey    *string          `gorm:"type:varchar(100)"`
	OfflineCreated    bool             `gorm:"not null;default:false"`
	CompletedAt       *time.Time       `gorm:"type:timestamptz"`
	Lines             []ReceiptLine    `gorm:"foreignKey:ReceiptID;references:ID"`
}

// TableName returns the table name for GORM
func (Receipt) TableName() string {
	return "receipts"
}

// NewSaleReceipt creates a new sale receipt shell. Lines, discounts and
// payments are added before Complete seals the totals.
func NewSaleReceipt(tenantID, storeID, cashierID uuid.UUID, receiptNumber string) (*Receipt, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if cashierID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CASHIER", "Cashier ID cannot be empty")
	}
	if receiptNumber == "" {
		return nil, shared.NewValidationError("INVALID_RECEIPT_NUMBER", "Receipt number cannot be empty")
	}

	return &Receipt{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		StoreID:             storeID,
		CashierID:           cashierID,
		ReceiptNumber:       receiptNumber,
		Type:                ReceiptTypeSale,
		Subtotal:            decimal.Zero,
		DiscountTotal:       decimal.Zero,
		TaxTotal:            decimal.Zero,
		Total:               decimal.Zero,
		PaidTotal:           decimal.Zero,
		ChangeDue:           decimal.Zero,
		Discounts:           make([]DiscountDetail, 0),
		Payments:            make([]Payment, 0),
		Lines:               make([]ReceiptLine, 0),
	}, nil
}

// NewRefundReceipt creates a refund receipt linked to its original sale
func NewRefundReceipt(tenantID, storeID, cashierID uuid.UUID, receiptNumber string, original *Receipt) (*Receipt, error) {
	r, err := NewSaleReceipt(tenantID, storeID, cashierID, receiptNumber)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, shared.NewValidationError("INVALID_ORIGINAL", "Original receipt is required for a refund")
	}
	if original.Status != ReceiptStatusCompleted && original.Status != ReceiptStatusRefunded {
		return nil, shared.NewConflictError("INVALID_STATE", "Only completed receipts can be refunded")
	}
	r.Type = ReceiptTypeRefund
	originalID := original.ID
	r.OriginalReceiptID = &originalID
	r.ShiftID = original.ShiftID
	r.CustomerID = original.CustomerID
	return r, nil
}

// SetShift attaches the receipt to a cashier shift
func (r *Receipt) SetShift(shiftID uuid.UUID) {
	r.ShiftID = &shiftID
}

// SetCustomer attaches an optional customer
func (r *Receipt) SetCustomer(customerID uuid.UUID) {
	r.CustomerID = &customerID
}

// SetIdempotencyKey records the client-supplied deduplication key
func (r *Receipt) SetIdempotencyKey(key string) {
	r.IdempotencyKey = &key
}

// AddLine computes line amounts from the given LineSpec and appends the line.
// discount_amount -> line_subtotal = qty*price - discount -> tax = subtotal*rate
// -> line_total = subtotal + tax, all rounded to currency precision.
func (r *Receipt) AddLine(spec LineSpec) (*ReceiptLine, error) {
	if spec.ProductID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if spec.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if spec.UnitPrice.IsNegative() {
		return nil, shared.NewValidationError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if spec.TaxRate.IsNegative() {
		return nil, shared.NewValidationError("INVALID_TAX_RATE", "Tax rate cannot be negative")
	}

	gross := valueobject.RoundCurrency(spec.Quantity.Mul(spec.UnitPrice))

	var detail *DiscountDetail
	discountAmount := decimal.Zero
	if spec.DiscountKind != "" {
		d, err := NewDiscountDetail(DiscountScopeLine, spec.DiscountKind, spec.DiscountValue, gross)
		if err != nil {
			return nil, err
		}
		detail = &d
		discountAmount = d.Amount
	}

	lineSubtotal := gross.Sub(discountAmount)
	taxAmount := valueobject.RoundCurrency(lineSubtotal.Mul(spec.TaxRate))
	lineTotal := lineSubtotal.Add(taxAmount)

	line := ReceiptLine{
		BaseEntity:       shared.NewBaseEntity(),
		ReceiptID:        r.ID,
		LineNumber:       len(r.Lines) + 1,
		ProductID:        spec.ProductID,
		VariantID:        spec.VariantID,
		Quantity:         spec.Quantity,
		UnitPrice:        spec.UnitPrice,
		Discount:         detail,
		DiscountAmount:   discountAmount,
		TaxRate:          spec.TaxRate,
		TaxAmount:        taxAmount,
		LineTotal:        lineTotal,
		CostPrice:        spec.CostPrice,
		PromotionID:      spec.PromotionID,
		TrackStock:       spec.TrackStock,
		RefundedQuantity: decimal.Zero,
	}
	r.Lines = append(r.Lines, line)
	r.Subtotal = r.Subtotal.Add(gross)

	return &r.Lines[len(r.Lines)-1], nil
}

// AddRefundLine mirrors an original sale line with negated quantity and
// amounts, proportional to the refunded share of the original quantity.
func (r *Receipt) AddRefundLine(original *ReceiptLine, quantity decimal.Decimal, reason string) (*ReceiptLine, error) {
	if r.Type != ReceiptTypeRefund {
		return nil, shared.NewConflictError("INVALID_STATE", "Refund lines can only be added to refund receipts")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Refund quantity must be positive")
	}
	if quantity.GreaterThan(original.Quantity) {
		return nil, shared.NewValidationError("INVALID_QUANTITY",
			fmt.Sprintf("Refund quantity %s exceeds original quantity %s", quantity, original.Quantity))
	}
	if quantity.GreaterThan(original.RemainingRefundable()) {
		return nil, shared.ErrOverRefund
	}

	ratio := quantity.Div(original.Quantity)
	originalID := original.ID

	line := ReceiptLine{
		BaseEntity:     shared.NewBaseEntity(),
		ReceiptID:      r.ID,
		LineNumber:     len(r.Lines) + 1,
		ProductID:      original.ProductID,
		VariantID:      original.VariantID,
		Quantity:       quantity.Neg(),
		UnitPrice:      original.UnitPrice,
		DiscountAmount: valueobject.RoundCurrency(original.DiscountAmount.Mul(ratio)).Neg(),
		TaxRate:        original.TaxRate,
		TaxAmount:      valueobject.RoundCurrency(original.TaxAmount.Mul(ratio)).Neg(),
		LineTotal:      valueobject.RoundCurrency(original.LineTotal.Mul(ratio)).Neg(),
		CostPrice:      original.CostPrice,
		TrackStock:     original.TrackStock,
		OriginalLineID: &originalID,
		Reason:         reason,
	}
	r.Lines = append(r.Lines, line)
	r.Subtotal = r.Subtotal.Add(valueobject.RoundCurrency(quantity.Neg().Mul(original.UnitPrice)))

	return &r.Lines[len(r.Lines)-1], nil
}

// ApplyCartDiscount applies a cart-level discount against the current subtotal.
// Lines must be added first so percentage discounts have their base.
func (r *Receipt) ApplyCartDiscount(scope DiscountScope, kind DiscountKind, value decimal.Decimal, code string) error {
	if scope == DiscountScopeLine {
		return shared.NewValidationError("INVALID_DISCOUNT_SCOPE", "Line discounts belong to individual lines")
	}
	d, err := NewDiscountDetail(scope, kind, value, r.Subtotal.Sub(r.lineDiscountTotal()))
	if err != nil {
		return err
	}
	d.Code = code
	r.Discounts = append(r.Discounts, d)
	return nil
}

// AddPayment records one tendered payment
func (r *Receipt) AddPayment(method PaymentMethod, amount decimal.Decimal, reference string) error {
	p, err := NewPayment(method, amount, reference)
	if err != nil {
		return err
	}
	r.Payments = append(r.Payments, p)
	return nil
}

func (r *Receipt) lineDiscountTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range r.Lines {
		total = total.Add(r.Lines[i].DiscountAmount)
	}
	return total
}

func (r *Receipt) cartDiscountTotal() decimal.Decimal {
	total := decimal.Zero
	for _, d := range r.Discounts {
		total = total.Add(d.Amount)
	}
	return total
}

// PaymentsTotal sums all tendered payments
func (r *Receipt) PaymentsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range r.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// CashPaymentsTotal sums payments that move physical cash
func (r *Receipt) CashPaymentsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range r.Payments {
		if p.Method.IsCash() {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// Complete seals the receipt: aggregates totals, computes change and
// freezes the status. total = subtotal - discount + tax and
// change = max(0, paid - total) hold by construction.
func (r *Receipt) Complete() error {
	if r.Status != "" {
		return shared.NewConflictError("INVALID_STATE", "Receipt is already finalized")
	}
	if len(r.Lines) == 0 {
		return shared.NewValidationError("EMPTY_CART", "Receipt must contain at least one line")
	}

	r.DiscountTotal = r.lineDiscountTotal().Add(r.cartDiscountTotal())
	r.TaxTotal = decimal.Zero
	for i := range r.Lines {
		r.TaxTotal = r.TaxTotal.Add(r.Lines[i].TaxAmount)
	}
	r.Total = r.Subtotal.Sub(r.DiscountTotal).Add(r.TaxTotal)

	if r.Type == ReceiptTypeRefund {
		// Refund payments are money returned to the customer
		r.PaidTotal = r.PaymentsTotal().Neg()
		r.ChangeDue = decimal.Zero
	} else {
		r.PaidTotal = r.PaymentsTotal()
		r.ChangeDue = decimal.Max(decimal.Zero, r.PaidTotal.Sub(r.Total))
	}

	now := time.Now()
	r.Status = ReceiptStatusCompleted
	r.CompletedAt = &now
	r.UpdatedAt = now

	r.AddDomainEvent(NewReceiptCompletedEvent(r))
	return nil
}

// MarkRefunded transitions a completed receipt to refunded.
// Called when a refund receipt referencing this one is committed.
func (r *Receipt) MarkRefunded() error {
	if r.Status == ReceiptStatusRefunded {
		return nil
	}
	if !r.Status.CanTransitionTo(ReceiptStatusRefunded) {
		return shared.NewConflictError("INVALID_STATE",
			fmt.Sprintf("Cannot refund a receipt in status %s", r.Status))
	}
	r.Status = ReceiptStatusRefunded
	r.Touch()
	r.IncrementVersion()
	r.AddDomainEvent(NewReceiptRefundedEvent(r))
	return nil
}

// Void transitions a completed receipt to voided
func (r *Receipt) Void(reason string) error {
	if !r.Status.CanTransitionTo(ReceiptStatusVoided) {
		return shared.NewConflictError("INVALID_STATE",
			fmt.Sprintf("Cannot void a receipt in status %s", r.Status))
	}
	r.Status = ReceiptStatusVoided
	r.Touch()
	r.IncrementVersion()
	r.AddDomainEvent(NewReceiptVoidedEvent(r, reason))
	return nil
}

// RecordRefundedQuantity accumulates the refunded quantity against an
// original line, guarding against over-refund across multiple partial refunds.
func (r *Receipt) RecordRefundedQuantity(lineID uuid.UUID, quantity decimal.Decimal) error {
	for i := range r.Lines {
		if r.Lines[i].ID != lineID {
			continue
		}
		if quantity.GreaterThan(r.Lines[i].RemainingRefundable()) {
			return shared.ErrOverRefund
		}
		r.Lines[i].RefundedQuantity = r.Lines[i].RefundedQuantity.Add(quantity)
		r.Lines[i].Touch()
		return nil
	}
	return shared.NewDomainError(shared.KindNotFound, "LINE_NOT_FOUND", "Original receipt line not found")
}

// GetLine returns the line with the given ID, or nil
func (r *Receipt) GetLine(lineID uuid.UUID) *ReceiptLine {
	for i := range r.Lines {
		if r.Lines[i].ID == lineID {
			return &r.Lines[i]
		}
	}
	return nil
}

// FullyRefunded reports whether every line has been refunded in full
func (r *Receipt) FullyRefunded() bool {
	for i := range r.Lines {
		if r.Lines[i].RemainingRefundable().GreaterThan(decimal.Zero) {
			return false
		}
	}
	return true
}
