package shift

import (
	"context"

	"github.com/pos/backend/internal/domain/checkout"
	"github.com/pos/backend/internal/domain/shift"
)

// TransactionScope provides transactional access to the repositories a
// shift operation touches.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories shift operations
// write within one transaction.
type TransactionalRepositories interface {
	// Shifts returns the shift repository scoped to the current transaction
	Shifts() shift.ShiftRepository
	// Numbers returns the document number allocator scoped to the current transaction
	Numbers() checkout.NumberAllocator
}

// NoOpTransactionScope is a transaction scope without real transactions,
// for testing.
type NoOpTransactionScope struct {
	shifts  shift.ShiftRepository
	numbers checkout.NumberAllocator
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(shifts shift.ShiftRepository, numbers checkout.NumberAllocator) *NoOpTransactionScope {
	return &NoOpTransactionScope{shifts: shifts, numbers: numbers}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Shifts returns the shift repository.
func (s *NoOpTransactionScope) Shifts() shift.ShiftRepository {
	return s.shifts
}

// Numbers returns the document number allocator.
func (s *NoOpTransactionScope) Numbers() checkout.NumberAllocator {
	return s.numbers
}
