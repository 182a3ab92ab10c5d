package stock

import (
	"context"

	"github.com/pos/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to the stock repositories.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories stock operations
// write within one transaction. The projection update and its ledger entry
// always share a transaction so the two can never diverge.
type TransactionalRepositories interface {
	// StockItems returns the stock projection repository scoped to the current transaction
	StockItems() stock.StockItemRepository
	// StockMovements returns the stock ledger repository scoped to the current transaction
	StockMovements() stock.StockMovementRepository
}

// NoOpTransactionScope is a transaction scope without real transactions,
// for testing.
type NoOpTransactionScope struct {
	items     stock.StockItemRepository
	movements stock.StockMovementRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(items stock.StockItemRepository, movements stock.StockMovementRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{items: items, movements: movements}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockItems returns the stock projection repository.
func (s *NoOpTransactionScope) StockItems() stock.StockItemRepository {
	return s.items
}

// StockMovements returns the stock ledger repository.
func (s *NoOpTransactionScope) StockMovements() stock.StockMovementRepository {
	return s.movements
}
