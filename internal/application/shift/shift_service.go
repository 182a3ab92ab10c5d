package shift

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/checkout"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shift"
	"github.com/pos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ShiftService manages cash drawer sessions: opening, manual cash
// movements, and terminal close with reconciliation.
type ShiftService struct {
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewShiftService creates a new ShiftService
func NewShiftService(txScope TransactionScope, logger *zap.Logger) *ShiftService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShiftService{txScope: txScope, logger: logger}
}

// SetEventPublisher sets the event publisher for post-commit domain events
func (s *ShiftService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// OpenShift opens a new drawer session for a cashier at a store. At most one
// open shift may exist per (tenant, cashier, store): the check here is
// advisory, the partial unique index behind the repository is the authority.
func (s *ShiftService) OpenShift(ctx context.Context, tenantID uuid.UUID, input OpenShiftInput) (*ShiftResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shift", "open",
		telemetry.WithAttribute("tenant_id", tenantID),
		telemetry.WithAttribute("store_id", input.StoreID),
		telemetry.WithAttribute("cashier_id", input.CashierID),
	)
	defer span.End()

	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TENANT", "Tenant ID is required")
	}

	var opened *shift.Shift
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		_, findErr := repos.Shifts().FindOpenByCashier(ctx, tenantID, input.CashierID, input.StoreID)
		if findErr == nil {
			return shared.ErrDuplicateOpenShift
		}
		if !errors.Is(findErr, shared.ErrNotFound) {
			return findErr
		}

		number, numErr := repos.Numbers().Next(ctx, tenantID, input.StoreID, checkout.ShiftNumberPrefix, time.Now())
		if numErr != nil {
			return numErr
		}

		sh, openErr := shift.Open(tenantID, input.StoreID, input.CashierID, number, input.OpeningCash)
		if openErr != nil {
			return openErr
		}
		if createErr := repos.Shifts().Create(ctx, sh); createErr != nil {
			return createErr
		}
		opened = sh
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishDomainEvents(ctx, opened)
	telemetry.SetAttributes(span, "shift_number", opened.ShiftNumber)
	return ToShiftResponse(opened), nil
}

// RecordCashMovement records a manual cash event on an open shift
func (s *ShiftService) RecordCashMovement(ctx context.Context, tenantID, shiftID uuid.UUID, input CashMovementInput) (*ShiftResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shift", "record_cash_movement",
		telemetry.WithAttribute("tenant_id", tenantID),
		telemetry.WithAttribute("shift_id", shiftID),
		telemetry.WithAttribute("movement_type", string(input.Type)),
	)
	defer span.End()

	var sh *shift.Shift
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		loaded, txErr := repos.Shifts().FindForUpdate(ctx, tenantID, shiftID)
		if txErr != nil {
			return txErr
		}
		if _, txErr = loaded.RecordCashMovement(input.Type, input.Amount, input.Reason, input.ApproverID); txErr != nil {
			return txErr
		}
		if txErr = repos.Shifts().Save(ctx, loaded); txErr != nil {
			return txErr
		}
		sh = loaded
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return ToShiftResponse(sh), nil
}

// CloseShift closes a shift against the counted drawer cash. Closing is
// terminal; the computed expected cash and difference are frozen on the
// shift record.
func (s *ShiftService) CloseShift(ctx context.Context, tenantID, shiftID uuid.UUID, input CloseShiftInput) (*ShiftResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shift", "close",
		telemetry.WithAttribute("tenant_id", tenantID),
		telemetry.WithAttribute("shift_id", shiftID),
	)
	defer span.End()

	var sh *shift.Shift
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		loaded, txErr := repos.Shifts().FindForUpdate(ctx, tenantID, shiftID)
		if txErr != nil {
			return txErr
		}
		if txErr = loaded.Close(input.ActualClosingCash, input.Notes); txErr != nil {
			return txErr
		}
		if txErr = repos.Shifts().Save(ctx, loaded); txErr != nil {
			return txErr
		}
		sh = loaded
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishDomainEvents(ctx, sh)
	if sh.CashDifference != nil && !sh.CashDifference.IsZero() {
		s.logger.Info("Shift closed with cash difference",
			zap.String("tenant_id", tenantID.String()),
			zap.String("shift_number", sh.ShiftNumber),
			zap.String("difference", sh.CashDifference.String()))
	}
	return ToShiftResponse(sh), nil
}

// GetShift loads one shift with its cash movements
func (s *ShiftService) GetShift(ctx context.Context, tenantID, shiftID uuid.UUID) (*ShiftResponse, error) {
	var sh *shift.Shift
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		sh, txErr = repos.Shifts().FindByIDForTenant(ctx, tenantID, shiftID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return ToShiftResponse(sh), nil
}

// GetOpenShift returns the cashier's open shift at a store, if any
func (s *ShiftService) GetOpenShift(ctx context.Context, tenantID, cashierID, storeID uuid.UUID) (*ShiftResponse, error) {
	var sh *shift.Shift
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		sh, txErr = repos.Shifts().FindOpenByCashier(ctx, tenantID, cashierID, storeID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return ToShiftResponse(sh), nil
}

// ListShifts returns a page of shifts matching the filter
func (s *ShiftService) ListShifts(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[ShiftResponse], error) {
	var shifts []shift.Shift
	var total int64

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		shifts, txErr = repos.Shifts().FindAllForTenant(ctx, tenantID, filter)
		if txErr != nil {
			return txErr
		}
		total, txErr = repos.Shifts().CountForTenant(ctx, tenantID, filter)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	items := make([]ShiftResponse, 0, len(shifts))
	for i := range shifts {
		items = append(items, *ToShiftResponse(&shifts[i]))
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

func (s *ShiftService) publishDomainEvents(ctx context.Context, sh *shift.Shift) {
	if s.eventPublisher == nil || sh == nil {
		return
	}
	events := sh.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	sh.ClearDomainEvents()
}
