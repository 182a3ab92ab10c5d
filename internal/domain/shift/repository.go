package shift

import (
	"context"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
)

// ShiftRepository persists Shift aggregates with their cash movements.
// A partial unique index on (tenant_id, cashier_id, store_id) WHERE status =
// 'OPEN' backs the one-open-shift rule; FindOpenForUpdate re-checks it under
// a row lock inside the opening transaction.
type ShiftRepository interface {
	// FindByIDForTenant loads a shift with its movements
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Shift, error)
	// FindOpenByCashier returns the cashier's open shift at a store,
	// or shared.ErrNotFound
	FindOpenByCashier(ctx context.Context, tenantID, cashierID, storeID uuid.UUID) (*Shift, error)
	// FindOpenForUpdate is FindOpenByCashier under a row lock; must be called
	// inside a transaction
	FindOpenForUpdate(ctx context.Context, tenantID, cashierID, storeID uuid.UUID) (*Shift, error)
	// FindForUpdate loads a shift by ID under a row lock for totals updates
	FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Shift, error)
	// Create persists a newly opened shift.
	// Returns shared.ErrDuplicateOpenShift when the partial unique index rejects it.
	Create(ctx context.Context, shift *Shift) error
	// Save persists shift totals, movements and close state
	Save(ctx context.Context, shift *Shift) error
	// FindAllForTenant lists shifts for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Shift, error)
	// CountForTenant counts shifts matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}
