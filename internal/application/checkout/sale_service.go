package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/checkout"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/stock"
	"github.com/pos/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultMaxRetries bounds transparent retries of a sale that failed on
	// lock contention or a serialization failure
	DefaultMaxRetries = 3
)

// SaleService drives the sale side of the checkout engine. Every CreateSale
// runs as one database transaction: receipt, lines, stock projection
// updates, ledger entries and shift totals commit together or not at all.
type SaleService struct {
	txScope        TransactionScope
	catalogLookup  catalog.Lookup
	parkStore      ParkStore
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	maxRetries     int
}

// NewSaleService creates a new SaleService
func NewSaleService(txScope TransactionScope, catalogLookup catalog.Lookup, logger *zap.Logger) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		txScope:       txScope,
		catalogLookup: catalogLookup,
		logger:        logger,
		maxRetries:    DefaultMaxRetries,
	}
}

// SetEventPublisher sets the event publisher for post-commit domain events
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetParkStore sets the store used by ParkSale/RecallSale
func (s *SaleService) SetParkStore(store ParkStore) {
	s.parkStore = store
}

// SetMaxRetries overrides the bounded retry count for concurrency failures
func (s *SaleService) SetMaxRetries(n int) {
	if n >= 0 {
		s.maxRetries = n
	}
}

// CreateSale processes a complete sale. The idempotency key, when supplied,
// makes retries safe: a second call with the same (tenant, key) returns the
// receipt created by the first call and writes nothing.
func (s *SaleService) CreateSale(ctx context.Context, tenantID uuid.UUID, input CreateSaleInput) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "create_sale",
		telemetry.WithAttribute("tenant_id", tenantID),
		telemetry.WithAttribute("store_id", input.StoreID),
		telemetry.WithAttribute("line_count", len(input.Lines)),
	)
	defer span.End()

	if err := validateCreateSale(tenantID, input); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var receipt *checkout.Receipt
	var alreadyExisted bool

	for attempt := 0; ; attempt++ {
		receipt, alreadyExisted = nil, false

		err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			r, existed, txErr := s.createSaleTx(ctx, repos, tenantID, input)
			if txErr != nil {
				return txErr
			}
			receipt, alreadyExisted = r, existed
			return nil
		})
		if err == nil {
			break
		}

		// Lost the idempotency race on commit: another request with the same
		// key won. Resolve by returning the winner.
		if errors.Is(err, checkout.ErrDuplicateIdempotencyKey) && input.IdempotencyKey != "" {
			winner, findErr := s.findByIdempotencyKey(ctx, tenantID, input.IdempotencyKey)
			if findErr != nil {
				telemetry.RecordError(span, findErr)
				return nil, findErr
			}
			telemetry.AddEvent(span, "idempotency_key_collision_resolved", "receipt_id", winner.ID)
			return ToReceiptResponse(winner), nil
		}

		if shared.IsKind(err, shared.KindConcurrency) && attempt < s.maxRetries {
			s.logger.Warn("Retrying sale after concurrency conflict",
				zap.String("tenant_id", tenantID.String()),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		telemetry.RecordError(span, err)
		return nil, err
	}

	if !alreadyExisted {
		s.publishDomainEvents(ctx, receipt)
	}

	telemetry.SetAttributes(span,
		"receipt_number", receipt.ReceiptNumber,
		"total", receipt.Total,
		"idempotent_replay", alreadyExisted,
	)
	return ToReceiptResponse(receipt), nil
}

// createSaleTx is the body of the sale transaction. The bool result reports
// an idempotent replay: the receipt already existed and nothing was written.
func (s *SaleService) createSaleTx(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, input CreateSaleInput) (*checkout.Receipt, bool, error) {
	// Advisory idempotency lookup. The unique constraint on
	// (tenant_id, idempotency_key) remains the authority on commit.
	if input.IdempotencyKey != "" {
		existing, err := repos.Receipts().FindByIdempotencyKey(ctx, tenantID, input.IdempotencyKey)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, false, err
		}
	}

	number, err := repos.Numbers().Next(ctx, tenantID, input.StoreID, checkout.ReceiptNumberPrefix, time.Now())
	if err != nil {
		return nil, false, err
	}

	receipt, err := checkout.NewSaleReceipt(tenantID, input.StoreID, input.CashierID, number)
	if err != nil {
		return nil, false, err
	}
	if input.ShiftID != nil {
		receipt.SetShift(*input.ShiftID)
	}
	if input.CustomerID != nil {
		receipt.SetCustomer(*input.CustomerID)
	}
	if input.IdempotencyKey != "" {
		receipt.SetIdempotencyKey(input.IdempotencyKey)
	}
	receipt.OfflineCreated = input.OfflineCreated

	// Catalog snapshots are resolved once per line and frozen onto it.
	snapshots := make(map[uuid.UUID]*catalog.ProductInfo, len(input.Lines))
	for _, li := range input.Lines {
		info, ok := snapshots[li.ProductID]
		if !ok {
			info, err = s.catalogLookup.Lookup(ctx, tenantID, li.ProductID)
			if err != nil {
				return nil, false, err
			}
			snapshots[li.ProductID] = info
		}

		unitPrice := info.SellPrice
		if li.UnitPriceOverride != nil {
			unitPrice = *li.UnitPriceOverride
		}

		if _, err = receipt.AddLine(checkout.LineSpec{
			ProductID:     li.ProductID,
			VariantID:     li.VariantID,
			Quantity:      li.Quantity,
			UnitPrice:     unitPrice,
			DiscountKind:  li.DiscountKind,
			DiscountValue: li.DiscountValue,
			TaxRate:       info.TaxRate,
			CostPrice:     info.CostPrice,
			TrackStock:    info.TrackStock,
		}); err != nil {
			return nil, false, err
		}
	}

	for _, d := range input.CartDiscounts {
		if err = receipt.ApplyCartDiscount(d.Scope, d.Kind, d.Value, d.Code); err != nil {
			return nil, false, err
		}
	}
	for _, p := range input.Payments {
		if err = receipt.AddPayment(p.Method, p.Amount, p.Reference); err != nil {
			return nil, false, err
		}
	}
	if err = receipt.Complete(); err != nil {
		return nil, false, err
	}

	if err = repos.Receipts().Create(ctx, receipt); err != nil {
		return nil, false, err
	}

	// Stock: the row lock taken here is the same lock the write happens
	// under, so the negative-stock decision never races a concurrent sale.
	for i := range receipt.Lines {
		line := &receipt.Lines[i]
		if !line.TrackStock {
			continue
		}
		if err = s.deductLineStock(ctx, repos, receipt, line, snapshots[line.ProductID]); err != nil {
			return nil, false, err
		}
	}

	if input.ShiftID != nil {
		if err = s.applySaleToShift(ctx, repos, tenantID, *input.ShiftID, receipt); err != nil {
			return nil, false, err
		}
	}

	return receipt, false, nil
}

func (s *SaleService) deductLineStock(ctx context.Context, repos TransactionalRepositories, receipt *checkout.Receipt, line *checkout.ReceiptLine, info *catalog.ProductInfo) error {
	item, err := repos.StockItems().GetOrCreateForUpdate(ctx, receipt.TenantID, receipt.StoreID, line.ProductID)
	if err != nil {
		return err
	}
	if info != nil && info.AllowNegativeStock {
		item.SetAllowNegative(true)
	}

	if err = item.Deduct(line.Quantity); err != nil {
		return err
	}
	if err = repos.StockItems().Save(ctx, item); err != nil {
		return err
	}

	movement, err := stock.NewStockMovement(item, line.Quantity.Neg(), stock.ReferenceTypeSale, receipt.ID, receipt.CashierID)
	if err != nil {
		return err
	}
	if err = repos.StockMovements().Create(ctx, movement.WithReferenceLine(line.ID)); err != nil {
		return err
	}

	// Carry stock events (deducted, below zero) onto the receipt so they are
	// published together after commit.
	for _, e := range item.GetDomainEvents() {
		receipt.AddDomainEvent(e)
	}
	item.ClearDomainEvents()
	return nil
}

// applySaleToShift increments the shift's running totals. Net cash intake is
// cash tendered minus change given, since change is always paid from the
// drawer.
func (s *SaleService) applySaleToShift(ctx context.Context, repos TransactionalRepositories, tenantID, shiftID uuid.UUID, receipt *checkout.Receipt) error {
	sh, err := repos.Shifts().FindForUpdate(ctx, tenantID, shiftID)
	if err != nil {
		return err
	}

	netCash := receipt.CashPaymentsTotal().Sub(receipt.ChangeDue)
	nonCash := receipt.PaymentsTotal().Sub(receipt.CashPaymentsTotal())
	if err = sh.RecordSale(receipt.Total, netCash, nonCash); err != nil {
		return err
	}
	return repos.Shifts().Save(ctx, sh)
}

// GetReceipt loads one receipt by ID
func (s *SaleService) GetReceipt(ctx context.Context, tenantID, receiptID uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.findReceipt(ctx, tenantID, receiptID)
	if err != nil {
		return nil, err
	}
	return ToReceiptResponse(receipt), nil
}

// GetReceiptByNumber loads one receipt by its human-readable number
func (s *SaleService) GetReceiptByNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*ReceiptResponse, error) {
	var receipt *checkout.Receipt
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		receipt, txErr = repos.Receipts().FindByNumberForTenant(ctx, tenantID, receiptNumber)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return ToReceiptResponse(receipt), nil
}

// SearchReceipts returns a page of receipts matching the filter
func (s *SaleService) SearchReceipts(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[ReceiptResponse], error) {
	var receipts []checkout.Receipt
	var total int64

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		receipts, txErr = repos.Receipts().SearchForTenant(ctx, tenantID, filter)
		if txErr != nil {
			return txErr
		}
		total, txErr = repos.Receipts().CountForTenant(ctx, tenantID, filter)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	items := make([]ReceiptResponse, 0, len(receipts))
	for i := range receipts {
		items = append(items, *ToReceiptResponse(&receipts[i]))
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// VoidReceipt voids a completed receipt. Voiding reverses nothing in stock
// or cash; it only marks the document. Managers use it for same-moment
// mistakes before the drawer moves.
func (s *SaleService) VoidReceipt(ctx context.Context, tenantID, receiptID uuid.UUID, reason string) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "void_receipt",
		telemetry.WithAttribute("tenant_id", tenantID),
		telemetry.WithAttribute("receipt_id", receiptID),
	)
	defer span.End()

	var receipt *checkout.Receipt
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, txErr := repos.Receipts().FindByIDForTenant(ctx, tenantID, receiptID)
		if txErr != nil {
			return txErr
		}
		if txErr = r.Void(reason); txErr != nil {
			return txErr
		}
		if txErr = repos.Receipts().UpdateStatus(ctx, tenantID, r.ID, r.Status); txErr != nil {
			return txErr
		}
		receipt = r
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishDomainEvents(ctx, receipt)
	return ToReceiptResponse(receipt), nil
}

// ParkSale stores a cart snapshot with a 24-hour expiry and returns its key.
// Parked carts never touch stock or the ledger.
func (s *SaleService) ParkSale(ctx context.Context, tenantID uuid.UUID, input CreateSaleInput, note string) (string, error) {
	if s.parkStore == nil {
		return "", shared.NewInternalError("PARK_UNAVAILABLE", "Parked sale storage is not configured")
	}
	if input.StoreID == uuid.Nil || input.CashierID == uuid.Nil {
		return "", shared.NewValidationError("INVALID_INPUT", "Store ID and cashier ID are required")
	}
	if len(input.Lines) == 0 {
		return "", shared.NewValidationError("EMPTY_CART", "Cannot park an empty cart")
	}

	parked := &ParkedSale{
		Key:       uuid.NewString(),
		TenantID:  tenantID,
		StoreID:   input.StoreID,
		CashierID: input.CashierID,
		Cart:      input,
		Note:      note,
		ParkedAt:  time.Now(),
	}
	if err := s.parkStore.Save(ctx, parked); err != nil {
		return "", err
	}
	return parked.Key, nil
}

// RecallSale removes a parked cart and returns its snapshot so the register
// can continue it as a live sale
func (s *SaleService) RecallSale(ctx context.Context, tenantID uuid.UUID, key string) (*ParkedSale, error) {
	if s.parkStore == nil {
		return nil, shared.NewInternalError("PARK_UNAVAILABLE", "Parked sale storage is not configured")
	}
	parked, err := s.parkStore.Load(ctx, tenantID, key)
	if err != nil {
		return nil, err
	}
	if err := s.parkStore.Delete(ctx, tenantID, key); err != nil {
		s.logger.Warn("Failed to delete recalled parked sale",
			zap.String("tenant_id", tenantID.String()),
			zap.String("key", key),
			zap.Error(err))
	}
	return parked, nil
}

// ListParkedSales returns the live parked carts at one store
func (s *SaleService) ListParkedSales(ctx context.Context, tenantID, storeID uuid.UUID) ([]ParkedSale, error) {
	if s.parkStore == nil {
		return nil, shared.NewInternalError("PARK_UNAVAILABLE", "Parked sale storage is not configured")
	}
	return s.parkStore.ListByStore(ctx, tenantID, storeID)
}

func (s *SaleService) findReceipt(ctx context.Context, tenantID, receiptID uuid.UUID) (*checkout.Receipt, error) {
	var receipt *checkout.Receipt
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		receipt, txErr = repos.Receipts().FindByIDForTenant(ctx, tenantID, receiptID)
		return txErr
	})
	return receipt, err
}

func (s *SaleService) findByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*checkout.Receipt, error) {
	var receipt *checkout.Receipt
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		receipt, txErr = repos.Receipts().FindByIdempotencyKey(ctx, tenantID, key)
		return txErr
	})
	return receipt, err
}

// publishDomainEvents publishes the aggregate's pending events after commit.
// Errors are logged by the event bus, never propagated.
func (s *SaleService) publishDomainEvents(ctx context.Context, aggregate interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}) {
	if s.eventPublisher == nil || aggregate == nil {
		return
	}
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	aggregate.ClearDomainEvents()
}

func validateCreateSale(tenantID uuid.UUID, input CreateSaleInput) error {
	if tenantID == uuid.Nil {
		return shared.NewValidationError("INVALID_TENANT", "Tenant ID is required")
	}
	if input.StoreID == uuid.Nil {
		return shared.NewValidationError("INVALID_STORE", "Store ID is required")
	}
	if input.CashierID == uuid.Nil {
		return shared.NewValidationError("INVALID_CASHIER", "Cashier ID is required")
	}
	if len(input.Lines) == 0 {
		return shared.NewValidationError("EMPTY_CART", "A sale requires at least one line")
	}
	for i, li := range input.Lines {
		if li.ProductID == uuid.Nil {
			return shared.NewValidationError("INVALID_PRODUCT", fmt.Sprintf("Line %d has no product", i+1))
		}
		if li.Quantity.LessThanOrEqual(decimal.Zero) {
			return shared.NewValidationError("INVALID_QUANTITY", fmt.Sprintf("Line %d quantity must be positive", i+1))
		}
	}
	return nil
}
