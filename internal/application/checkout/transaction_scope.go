package checkout

import (
	"context"

	"github.com/pos/backend/internal/domain/checkout"
	"github.com/pos/backend/internal/domain/shift"
	"github.com/pos/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to the repositories a
// checkout operation touches. When a function is executed within a
// transaction scope, all repository operations are part of the same database
// transaction and are committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories a sale or
// refund writes within one transaction. All repositories returned share the
// same underlying database transaction.
//
// Aggregate boundary notes:
//   - Receipts: Repository for the Receipt aggregate root. Lines are child
//     entities persisted via association handling when the root is saved.
//   - StockItems / StockMovements: the stock projection and its append-only
//     ledger. A sale mutates the projection and appends the ledger row in
//     the same transaction so the two can never diverge.
//   - Shifts: running-totals updates on the cashier's open shift.
//   - Numbers: the per-(tenant, store, day) document number sequence.
type TransactionalRepositories interface {
	// Receipts returns the receipt repository scoped to the current transaction
	Receipts() checkout.ReceiptRepository
	// StockItems returns the stock projection repository scoped to the current transaction
	StockItems() stock.StockItemRepository
	// StockMovements returns the stock ledger repository scoped to the current transaction
	StockMovements() stock.StockMovementRepository
	// Shifts returns the shift repository scoped to the current transaction
	Shifts() shift.ShiftRepository
	// Numbers returns the document number allocator scoped to the current transaction
	Numbers() checkout.NumberAllocator
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support is
// not required.
type NoOpTransactionScope struct {
	receipts  checkout.ReceiptRepository
	items     stock.StockItemRepository
	movements stock.StockMovementRepository
	shifts    shift.ShiftRepository
	numbers   checkout.NumberAllocator
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	receipts checkout.ReceiptRepository,
	items stock.StockItemRepository,
	movements stock.StockMovementRepository,
	shifts shift.ShiftRepository,
	numbers checkout.NumberAllocator,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		receipts:  receipts,
		items:     items,
		movements: movements,
		shifts:    shifts,
		numbers:   numbers,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Receipts returns the receipt repository.
func (s *NoOpTransactionScope) Receipts() checkout.ReceiptRepository {
	return s.receipts
}

// StockItems returns the stock projection repository.
func (s *NoOpTransactionScope) StockItems() stock.StockItemRepository {
	return s.items
}

// StockMovements returns the stock ledger repository.
func (s *NoOpTransactionScope) StockMovements() stock.StockMovementRepository {
	return s.movements
}

// Shifts returns the shift repository.
func (s *NoOpTransactionScope) Shifts() shift.ShiftRepository {
	return s.shifts
}

// Numbers returns the document number allocator.
func (s *NoOpTransactionScope) Numbers() checkout.NumberAllocator {
	return s.numbers
}
