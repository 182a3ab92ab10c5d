package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/checkout"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/stock"
	"github.com/pos/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RefundService processes refunds against completed receipts. Refund
// amounts are always derived proportionally from the original line, never
// taken from the request, so a refund can never exceed what was paid.
type RefundService struct {
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	maxRetries     int
}

// NewRefundService creates a new RefundService
func NewRefundService(txScope TransactionScope, logger *zap.Logger) *RefundService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefundService{
		txScope:    txScope,
		logger:     logger,
		maxRetries: DefaultMaxRetries,
	}
}

// SetEventPublisher sets the event publisher for post-commit domain events
func (s *RefundService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMaxRetries overrides the bounded retry count for concurrency failures
func (s *RefundService) SetMaxRetries(n int) {
	if n >= 0 {
		s.maxRetries = n
	}
}

// ProcessRefund creates a refund receipt for part or all of an original
// sale, restores stock when requested, and marks the original refunded.
// Cumulative refunded quantities on the original lines guard against
// over-refunding across multiple partial refunds.
func (s *RefundService) ProcessRefund(ctx context.Context, tenantID uuid.UUID, input ProcessRefundInput) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "process_refund",
		telemetry.WithAttribute("tenant_id", tenantID),
		telemetry.WithAttribute("original_receipt_id", input.OriginalReceiptID),
		telemetry.WithAttribute("line_count", len(input.Lines)),
	)
	defer span.End()

	if err := validateProcessRefund(tenantID, input); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var refund, original *checkout.Receipt
	var alreadyExisted bool

	for attempt := 0; ; attempt++ {
		refund, original, alreadyExisted = nil, nil, false

		err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			r, orig, existed, txErr := s.processRefundTx(ctx, repos, tenantID, input)
			if txErr != nil {
				return txErr
			}
			refund, original, alreadyExisted = r, orig, existed
			return nil
		})
		if err == nil {
			break
		}

		if errors.Is(err, checkout.ErrDuplicateIdempotencyKey) && input.IdempotencyKey != "" {
			winner, findErr := s.findByIdempotencyKey(ctx, tenantID, input.IdempotencyKey)
			if findErr != nil {
				telemetry.RecordError(span, findErr)
				return nil, findErr
			}
			return ToReceiptResponse(winner), nil
		}

		if shared.IsKind(err, shared.KindConcurrency) && attempt < s.maxRetries {
			s.logger.Warn("Retrying refund after concurrency conflict",
				zap.String("tenant_id", tenantID.String()),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		telemetry.RecordError(span, err)
		return nil, err
	}

	if !alreadyExisted {
		s.publishDomainEvents(ctx, refund)
		s.publishDomainEvents(ctx, original)
	}

	telemetry.SetAttributes(span,
		"refund_number", refund.ReceiptNumber,
		"refund_total", refund.Total,
	)
	return ToReceiptResponse(refund), nil
}

func (s *RefundService) processRefundTx(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, input ProcessRefundInput) (refund, original *checkout.Receipt, existed bool, err error) {
	if input.IdempotencyKey != "" {
		existing, findErr := repos.Receipts().FindByIdempotencyKey(ctx, tenantID, input.IdempotencyKey)
		if findErr == nil {
			return existing, nil, true, nil
		}
		if !errors.Is(findErr, shared.ErrNotFound) {
			return nil, nil, false, findErr
		}
	}

	// The original receipt is locked for the whole transaction, so two
	// concurrent refunds of the same receipt serialize here and the
	// second one sees the first one's refunded quantities.
	original, err = repos.Receipts().FindByIDForTenantForUpdate(ctx, tenantID, input.OriginalReceiptID)
	if err != nil {
		return nil, nil, false, err
	}

	number, err := repos.Numbers().Next(ctx, tenantID, original.StoreID, checkout.ReceiptNumberPrefix, time.Now())
	if err != nil {
		return nil, nil, false, err
	}

	refund, err = checkout.NewRefundReceipt(tenantID, original.StoreID, input.CashierID, number, original)
	if err != nil {
		return nil, nil, false, err
	}
	if input.ShiftID != nil {
		refund.SetShift(*input.ShiftID)
	}
	if input.IdempotencyKey != "" {
		refund.SetIdempotencyKey(input.IdempotencyKey)
	}
	if original.CustomerID != nil {
		refund.SetCustomer(*original.CustomerID)
	}

	for _, li := range input.Lines {
		origLine := original.GetLine(li.LineID)
		if origLine == nil {
			return nil, nil, false, shared.NewDomainError(shared.KindNotFound, "LINE_NOT_FOUND",
				fmt.Sprintf("Receipt %s has no line %s", original.ReceiptNumber, li.LineID))
		}
		if _, err = refund.AddRefundLine(origLine, li.Quantity, li.Reason); err != nil {
			return nil, nil, false, err
		}
	}

	for _, p := range input.Payments {
		if err = refund.AddPayment(p.Method, p.Amount, p.Reference); err != nil {
			return nil, nil, false, err
		}
	}
	if err = refund.Complete(); err != nil {
		return nil, nil, false, err
	}

	if err = repos.Receipts().Create(ctx, refund); err != nil {
		return nil, nil, false, err
	}

	if input.RestockItems {
		for i := range refund.Lines {
			line := &refund.Lines[i]
			if !line.TrackStock {
				continue
			}
			if err = s.restoreLineStock(ctx, repos, refund, line); err != nil {
				return nil, nil, false, err
			}
		}
	}

	// Cumulative refunded quantities are incremented by the repository
	// under a guard that keeps the stored total within the line quantity,
	// a backstop on top of the locked read above.
	for _, li := range input.Lines {
		if err = original.RecordRefundedQuantity(li.LineID, li.Quantity); err != nil {
			return nil, nil, false, err
		}
		if err = repos.Receipts().AddLineRefundedQuantity(ctx, tenantID, original.ID, li.LineID, li.Quantity); err != nil {
			return nil, nil, false, err
		}
	}

	// The original flips to REFUNDED only once every line is refunded in
	// full; partial refunds leave it COMPLETED.
	if original.FullyRefunded() {
		if err = original.MarkRefunded(); err != nil {
			return nil, nil, false, err
		}
		if err = repos.Receipts().UpdateStatus(ctx, tenantID, original.ID, original.Status); err != nil {
			return nil, nil, false, err
		}
	}

	if input.ShiftID != nil {
		if err = s.applyRefundToShift(ctx, repos, tenantID, *input.ShiftID, refund); err != nil {
			return nil, nil, false, err
		}
	}

	return refund, original, false, nil
}

func (s *RefundService) restoreLineStock(ctx context.Context, repos TransactionalRepositories, refund *checkout.Receipt, line *checkout.ReceiptLine) error {
	item, err := repos.StockItems().GetOrCreateForUpdate(ctx, refund.TenantID, refund.StoreID, line.ProductID)
	if err != nil {
		return err
	}

	// Refund lines carry negated quantity; the restore delta is positive.
	restoreQty := line.Quantity.Neg()
	if err = item.Restore(restoreQty); err != nil {
		return err
	}
	if err = repos.StockItems().Save(ctx, item); err != nil {
		return err
	}

	movement, err := stock.NewStockMovement(item, restoreQty, stock.ReferenceTypeReturn, refund.ID, refund.CashierID)
	if err != nil {
		return err
	}
	if err = repos.StockMovements().Create(ctx, movement.WithReferenceLine(line.ID)); err != nil {
		return err
	}

	for _, e := range item.GetDomainEvents() {
		refund.AddDomainEvent(e)
	}
	item.ClearDomainEvents()
	return nil
}

func (s *RefundService) applyRefundToShift(ctx context.Context, repos TransactionalRepositories, tenantID, shiftID uuid.UUID, refund *checkout.Receipt) error {
	sh, err := repos.Shifts().FindForUpdate(ctx, tenantID, shiftID)
	if err != nil {
		return err
	}

	cashOut := refund.CashPaymentsTotal().Neg()
	nonCashOut := refund.PaymentsTotal().Sub(refund.CashPaymentsTotal()).Neg()
	if err = sh.RecordRefund(refund.Total, cashOut, nonCashOut); err != nil {
		return err
	}
	return repos.Shifts().Save(ctx, sh)
}

func (s *RefundService) findByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*checkout.Receipt, error) {
	var receipt *checkout.Receipt
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		receipt, txErr = repos.Receipts().FindByIdempotencyKey(ctx, tenantID, key)
		return txErr
	})
	return receipt, err
}

func (s *RefundService) publishDomainEvents(ctx context.Context, receipt *checkout.Receipt) {
	if s.eventPublisher == nil || receipt == nil {
		return
	}
	events := receipt.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	receipt.ClearDomainEvents()
}

func validateProcessRefund(tenantID uuid.UUID, input ProcessRefundInput) error {
	if tenantID == uuid.Nil {
		return shared.NewValidationError("INVALID_TENANT", "Tenant ID is required")
	}
	if input.OriginalReceiptID == uuid.Nil {
		return shared.NewValidationError("INVALID_RECEIPT", "Original receipt ID is required")
	}
	if input.CashierID == uuid.Nil {
		return shared.NewValidationError("INVALID_CASHIER", "Cashier ID is required")
	}
	if len(input.Lines) == 0 {
		return shared.NewValidationError("EMPTY_REFUND", "A refund requires at least one line")
	}
	for i, li := range input.Lines {
		if li.LineID == uuid.Nil {
			return shared.NewValidationError("INVALID_LINE", fmt.Sprintf("Refund line %d has no original line reference", i+1))
		}
		if li.Quantity.LessThanOrEqual(decimal.Zero) {
			return shared.NewValidationError("INVALID_QUANTITY", fmt.Sprintf("Refund line %d quantity must be positive", i+1))
		}
	}
	return nil
}
