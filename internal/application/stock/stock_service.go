package stock

import (
	"bytes"
	"context"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/stock"
	"github.com/pos/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockService covers the stock operations that happen off the register:
// goods receipts, transfers between stores, corrections and counts. Every
// write follows the same discipline as the sale path: lock the projection
// row, mutate it, append the ledger entry, all in one transaction.
type StockService struct {
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(txScope TransactionScope, logger *zap.Logger) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{txScope: txScope, logger: logger}
}

// SetEventPublisher sets the event publisher for post-commit domain events
func (s *StockService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ReceiveStock records a goods receipt: on-hand quantity increases and the
// average cost moves toward the received unit cost.
func (s *StockService) ReceiveStock(ctx context.Context, tenantID uuid.UUID, input ReceiveStockInput) (*StockItemResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "receive",
		telemetry.WithAttribute("tenant_id", tenantID),
		telemetry.WithAttribute("store_id", input.StoreID),
		telemetry.WithAttribute("product_id", input.ProductID),
		telemetry.WithAttribute("quantity", input.Quantity),
	)
	defer span.End()

	var item *stock.StockItem
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		loaded, txErr := repos.StockItems().GetOrCreateForUpdate(ctx, tenantID, input.StoreID, input.ProductID)
		if txErr != nil {
			return txErr
		}
		if txErr = loaded.Receive(input.Quantity, input.UnitCost); txErr != nil {
			return txErr
		}
		if txErr = repos.StockItems().Save(ctx, loaded); txErr != nil {
			return txErr
		}

		movement, txErr := stock.NewStockMovement(loaded, input.Quantity, stock.ReferenceTypeGRN, input.ReferenceID, input.ActorID)
		if txErr != nil {
			return txErr
		}
		if txErr = repos.StockMovements().Create(ctx, movement.WithReason(input.Reason)); txErr != nil {
			return txErr
		}
		item = loaded
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishDomainEvents(ctx, item)
	return ToStockItemResponse(item), nil
}

// TransferStock moves quantity between two stores in one transaction: a
// TRANSFER_OUT movement at the source and a TRANSFER_IN at the destination,
// both chained against their own projections. Rows are locked in a
// deterministic order so two opposing transfers cannot deadlock.
func (s *StockService) TransferStock(ctx context.Context, tenantID uuid.UUID, input TransferStockInput) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "transfer",
		telemetry.WithAttribute("tenant_id", tenantID),
		telemetry.WithAttribute("from_store_id", input.FromStoreID),
		telemetry.WithAttribute("to_store_id", input.ToStoreID),
		telemetry.WithAttribute("quantity", input.Quantity),
	)
	defer span.End()

	if input.FromStoreID == input.ToStoreID {
		err := shared.NewValidationError("INVALID_TRANSFER", "Source and destination store must differ")
		telemetry.RecordError(span, err)
		return err
	}
	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		err := shared.NewValidationError("INVALID_QUANTITY", "Transfer quantity must be positive")
		telemetry.RecordError(span, err)
		return err
	}

	var sourceItem, destItem *stock.StockItem
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		first, second := input.FromStoreID, input.ToStoreID
		if bytes.Compare(second[:], first[:]) < 0 {
			first, second = second, first
		}

		items := make(map[uuid.UUID]*stock.StockItem, 2)
		for _, storeID := range []uuid.UUID{first, second} {
			loaded, txErr := repos.StockItems().GetOrCreateForUpdate(ctx, tenantID, storeID, input.ProductID)
			if txErr != nil {
				return txErr
			}
			items[storeID] = loaded
		}
		source, dest := items[input.FromStoreID], items[input.ToStoreID]

		if txErr := source.Deduct(input.Quantity); txErr != nil {
			return txErr
		}
		if txErr := repos.StockItems().Save(ctx, source); txErr != nil {
			return txErr
		}
		outMove, txErr := stock.NewStockMovement(source, input.Quantity.Neg(), stock.ReferenceTypeTransferOut, input.ReferenceID, input.ActorID)
		if txErr != nil {
			return txErr
		}
		if txErr = repos.StockMovements().Create(ctx, outMove.WithReason(input.Reason)); txErr != nil {
			return txErr
		}

		// The destination receives at the source's average cost.
		if txErr = dest.Receive(input.Quantity, source.AverageCost); txErr != nil {
			return txErr
		}
		if txErr = repos.StockItems().Save(ctx, dest); txErr != nil {
			return txErr
		}
		inMove, txErr := stock.NewStockMovement(dest, input.Quantity, stock.ReferenceTypeTransferIn, input.ReferenceID, input.ActorID)
		if txErr != nil {
			return txErr
		}
		if txErr = repos.StockMovements().Create(ctx, inMove.WithReason(input.Reason)); txErr != nil {
			return txErr
		}

		sourceItem, destItem = source, dest
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.publishDomainEvents(ctx, sourceItem)
	s.publishDomainEvents(ctx, destItem)
	return nil
}

// AdjustStock corrects the on-hand quantity to an absolute counted value
func (s *StockService) AdjustStock(ctx context.Context, tenantID uuid.UUID, input AdjustStockInput) (*AdjustmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "adjust",
		telemetry.WithAttribute("tenant_id", tenantID),
		telemetry.WithAttribute("store_id", input.StoreID),
		telemetry.WithAttribute("product_id", input.ProductID),
	)
	defer span.End()

	if input.Reason == "" {
		err := shared.NewValidationError("MISSING_REASON", "Stock adjustments require a reason")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var item *stock.StockItem
	var delta decimal.Decimal
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		loaded, txErr := repos.StockItems().GetOrCreateForUpdate(ctx, tenantID, input.StoreID, input.ProductID)
		if txErr != nil {
			return txErr
		}
		d, txErr := loaded.AdjustTo(input.ActualQuantity)
		if txErr != nil {
			return txErr
		}
		if d.IsZero() {
			item, delta = loaded, d
			return nil
		}
		if txErr = repos.StockItems().Save(ctx, loaded); txErr != nil {
			return txErr
		}

		movement, txErr := stock.NewStockMovement(loaded, d, stock.ReferenceTypeAdjustment, input.ReferenceID, input.ActorID)
		if txErr != nil {
			return txErr
		}
		if txErr = repos.StockMovements().Create(ctx, movement.WithReason(input.Reason)); txErr != nil {
			return txErr
		}
		item, delta = loaded, d
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishDomainEvents(ctx, item)
	return &AdjustmentResponse{Item: ToStockItemResponse(item), QuantityDelta: delta}, nil
}

// RecordStockCount applies a full count at one store. Every counted line
// whose quantity differs from the projection produces one STOCK_COUNT
// movement; matching lines produce nothing. The whole count is one
// transaction.
func (s *StockService) RecordStockCount(ctx context.Context, tenantID uuid.UUID, input RecordStockCountInput) (*StockCountResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "record_count",
		telemetry.WithAttribute("tenant_id", tenantID),
		telemetry.WithAttribute("store_id", input.StoreID),
		telemetry.WithAttribute("line_count", len(input.Lines)),
	)
	defer span.End()

	if len(input.Lines) == 0 {
		err := shared.NewValidationError("EMPTY_COUNT", "A stock count requires at least one line")
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &StockCountResponse{StoreID: input.StoreID}
	var touched []*stock.StockItem

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		for _, line := range input.Lines {
			item, txErr := repos.StockItems().GetOrCreateForUpdate(ctx, tenantID, input.StoreID, line.ProductID)
			if txErr != nil {
				return txErr
			}
			delta, txErr := item.AdjustTo(line.CountedQuantity)
			if txErr != nil {
				return txErr
			}
			if delta.IsZero() {
				continue
			}
			if txErr = repos.StockItems().Save(ctx, item); txErr != nil {
				return txErr
			}

			movement, txErr := stock.NewStockMovement(item, delta, stock.ReferenceTypeStockCount, input.ReferenceID, input.ActorID)
			if txErr != nil {
				return txErr
			}
			if txErr = repos.StockMovements().Create(ctx, movement.WithReason(input.Reason)); txErr != nil {
				return txErr
			}

			touched = append(touched, item)
			result.Adjustments = append(result.Adjustments, AdjustmentResponse{
				Item:          ToStockItemResponse(item),
				QuantityDelta: delta,
			})
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	for _, item := range touched {
		s.publishDomainEvents(ctx, item)
	}
	return result, nil
}

// GetStockItem returns the projection for one (store, product)
func (s *StockService) GetStockItem(ctx context.Context, tenantID, storeID, productID uuid.UUID) (*StockItemResponse, error) {
	var item *stock.StockItem
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		item, txErr = repos.StockItems().FindByStoreAndProduct(ctx, tenantID, storeID, productID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return ToStockItemResponse(item), nil
}

// ListStockItems returns a page of stock projections
func (s *StockService) ListStockItems(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[StockItemResponse], error) {
	var items []stock.StockItem
	var total int64

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		items, txErr = repos.StockItems().FindAllForTenant(ctx, tenantID, filter)
		if txErr != nil {
			return txErr
		}
		total, txErr = repos.StockItems().CountForTenant(ctx, tenantID, filter)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	responses := make([]StockItemResponse, 0, len(items))
	for i := range items {
		responses = append(responses, *ToStockItemResponse(&items[i]))
	}
	return shared.NewPaginated(responses, total, filter.Page, filter.PageSize), nil
}

// ListMovements returns a page of ledger entries for a tenant
func (s *StockService) ListMovements(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[StockMovementResponse], error) {
	var movements []stock.StockMovement
	var total int64

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		movements, txErr = repos.StockMovements().FindAllForTenant(ctx, tenantID, filter)
		if txErr != nil {
			return txErr
		}
		total, txErr = repos.StockMovements().CountForTenant(ctx, tenantID, filter)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	responses := make([]StockMovementResponse, 0, len(movements))
	for i := range movements {
		responses = append(responses, *ToStockMovementResponse(&movements[i]))
	}
	return shared.NewPaginated(responses, total, filter.Page, filter.PageSize), nil
}

// GetMovementsByReference returns every ledger entry caused by one document
func (s *StockService) GetMovementsByReference(ctx context.Context, tenantID uuid.UUID, refType stock.ReferenceType, refID uuid.UUID) ([]StockMovementResponse, error) {
	var movements []stock.StockMovement
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		movements, txErr = repos.StockMovements().FindByReference(ctx, tenantID, refType, refID)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	responses := make([]StockMovementResponse, 0, len(movements))
	for i := range movements {
		responses = append(responses, *ToStockMovementResponse(&movements[i]))
	}
	return responses, nil
}

func (s *StockService) publishDomainEvents(ctx context.Context, item *stock.StockItem) {
	if s.eventPublisher == nil || item == nil {
		return
	}
	events := item.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	item.ClearDomainEvents()
}
