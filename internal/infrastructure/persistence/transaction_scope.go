package persistence

import (
	"context"

	"gorm.io/gorm"

	appcheckout "github.com/pos/backend/internal/application/checkout"
	appshift "github.com/pos/backend/internal/application/shift"
	appstock "github.com/pos/backend/internal/application/stock"
	"github.com/pos/backend/internal/domain/checkout"
	"github.com/pos/backend/internal/domain/shift"
	"github.com/pos/backend/internal/domain/stock"
)

// gormTransactionalRepositories hands out repositories bound to one
// open transaction. It satisfies the transactional repository
// interfaces of all three application modules.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Receipts returns the receipt repository scoped to the current transaction
func (r *gormTransactionalRepositories) Receipts() checkout.ReceiptRepository {
	return NewGormReceiptRepository(r.tx)
}

// StockItems returns the stock item repository scoped to the current transaction
func (r *gormTransactionalRepositories) StockItems() stock.StockItemRepository {
	return NewGormStockItemRepository(r.tx)
}

// StockMovements returns the ledger repository scoped to the current transaction
func (r *gormTransactionalRepositories) StockMovements() stock.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// Shifts returns the shift repository scoped to the current transaction
func (r *gormTransactionalRepositories) Shifts() shift.ShiftRepository {
	return NewGormShiftRepository(r.tx)
}

// Numbers returns the document number allocator scoped to the current transaction
func (r *gormTransactionalRepositories) Numbers() checkout.NumberAllocator {
	return NewGormNumberAllocator(r.tx)
}

// GormCheckoutTransactionScope executes checkout operations atomically
type GormCheckoutTransactionScope struct {
	db *gorm.DB
}

// NewGormCheckoutTransactionScope creates a checkout transaction scope
func NewGormCheckoutTransactionScope(db *gorm.DB) *GormCheckoutTransactionScope {
	return &GormCheckoutTransactionScope{db: db}
}

// Execute runs the function in a database transaction. An error rolls
// everything back; success commits.
func (s *GormCheckoutTransactionScope) Execute(ctx context.Context, fn func(repos appcheckout.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// GormShiftTransactionScope executes shift operations atomically
type GormShiftTransactionScope struct {
	db *gorm.DB
}

// NewGormShiftTransactionScope creates a shift transaction scope
func NewGormShiftTransactionScope(db *gorm.DB) *GormShiftTransactionScope {
	return &GormShiftTransactionScope{db: db}
}

// Execute runs the function in a database transaction
func (s *GormShiftTransactionScope) Execute(ctx context.Context, fn func(repos appshift.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// GormStockTransactionScope executes stock operations atomically
type GormStockTransactionScope struct {
	db *gorm.DB
}

// NewGormStockTransactionScope creates a stock transaction scope
func NewGormStockTransactionScope(db *gorm.DB) *GormStockTransactionScope {
	return &GormStockTransactionScope{db: db}
}

// Execute runs the function in a database transaction
func (s *GormStockTransactionScope) Execute(ctx context.Context, fn func(repos appstock.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

var (
	_ appcheckout.TransactionScope              = (*GormCheckoutTransactionScope)(nil)
	_ appshift.TransactionScope                 = (*GormShiftTransactionScope)(nil)
	_ appstock.TransactionScope                 = (*GormStockTransactionScope)(nil)
	_ appcheckout.TransactionalRepositories     = (*gormTransactionalRepositories)(nil)
	_ appshift.TransactionalRepositories        = (*gormTransactionalRepositories)(nil)
	_ appstock.TransactionalRepositories        = (*gormTransactionalRepositories)(nil)
)
