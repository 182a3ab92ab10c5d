package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ErrDuplicateIdempotencyKey is returned by Create when the receipt's
// (tenant, idempotency key) pair already exists. Callers resolve it by
// reloading the winning receipt - it is never surfaced to clients.
var ErrDuplicateIdempotencyKey = shared.NewConflictError("DUPLICATE_IDEMPOTENCY_KEY", "A receipt with this idempotency key already exists")

// ReceiptRepository persists Receipt aggregates. Receipts are append-mostly:
// Create writes header and lines once; only status and refunded quantities
// may change afterwards.
type ReceiptRepository interface {
	// FindByIDForTenant loads a receipt with its lines
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Receipt, error)
	// FindByIDForTenantForUpdate loads a receipt with its lines and locks the
	// header row for the rest of the transaction, serializing concurrent
	// refunds and voids of the same receipt
	FindByIDForTenantForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Receipt, error)
	// FindByNumberForTenant loads a receipt by its human-readable number
	FindByNumberForTenant(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*Receipt, error)
	// FindByIdempotencyKey loads the receipt created under the given client key,
	// or shared.ErrNotFound when no such receipt exists
	FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*Receipt, error)
	// Create persists the receipt header and all lines.
	// Returns ErrDuplicateIdempotencyKey on an idempotency-key collision.
	Create(ctx context.Context, receipt *Receipt) error
	// UpdateStatus applies a status transition to an existing receipt
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status ReceiptStatus) error
	// AddLineRefundedQuantity increments the cumulative refunded quantity of
	// one line, guarded so the stored total can never exceed the line quantity.
	// Returns shared.ErrOverRefund when the guard rejects the increment.
	AddLineRefundedQuantity(ctx context.Context, tenantID, receiptID, lineID uuid.UUID, quantity decimal.Decimal) error
	// SearchForTenant returns receipts matching the filter
	SearchForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Receipt, error)
	// CountForTenant counts receipts matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// NumberAllocator issues gapless-enough, human-readable document numbers
// scoped per (tenant, store, day), e.g. RCP-20260828-000042. Implementations
// must be safe under concurrency: the next sequence value is claimed under a
// row lock, not derived by scanning existing documents.
type NumberAllocator interface {
	Next(ctx context.Context, tenantID, storeID uuid.UUID, prefix string, day time.Time) (string, error)
}

// Document number prefixes
const (
	ReceiptNumberPrefix = "RCP"
	ShiftNumberPrefix   = "SFT"
)
