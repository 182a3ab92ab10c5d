package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pos/backend/internal/domain/checkout"
	"github.com/pos/backend/internal/domain/shared"
)

// GormReceiptRepository implements ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByIDForTenant loads a receipt with its lines
func (r *GormReceiptRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*checkout.Receipt, error) {
	var receipt checkout.Receipt
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// FindByIDForTenantForUpdate loads a receipt with its lines, locking the
// header row FOR UPDATE. Concurrent refunds of the same receipt serialize
// here, so refunded-quantity checks read committed state.
func (r *GormReceiptRepository) FindByIDForTenantForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*checkout.Receipt, error) {
	var receipt checkout.Receipt
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// FindByNumberForTenant loads a receipt by its human-readable number
func (r *GormReceiptRepository) FindByNumberForTenant(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*checkout.Receipt, error) {
	var receipt checkout.Receipt
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Where("tenant_id = ? AND receipt_number = ?", tenantID, receiptNumber).
		First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// FindByIdempotencyKey loads the receipt created under the given client key
func (r *GormReceiptRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*checkout.Receipt, error) {
	var receipt checkout.Receipt
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// Create persists the receipt header and all lines in one insert.
// The unique index on (tenant_id, idempotency_key) turns a concurrent
// duplicate into ErrDuplicateIdempotencyKey for the caller to resolve.
func (r *GormReceiptRepository) Create(ctx context.Context, receipt *checkout.Receipt) error {
	if err := r.db.WithContext(ctx).Create(receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return checkout.ErrDuplicateIdempotencyKey
		}
		return err
	}
	return nil
}

// UpdateStatus applies a status transition to an existing receipt
func (r *GormReceiptRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status checkout.ReceiptStatus) error {
	result := r.db.WithContext(ctx).
		Model(&checkout.Receipt{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AddLineRefundedQuantity increments the cumulative refunded quantity of one
// line. The increment is guarded in SQL, so even if two transactions raced
// past the in-memory check, the second one affects zero rows and fails; the
// subquery scopes the line to its tenant's receipt.
func (r *GormReceiptRepository) AddLineRefundedQuantity(ctx context.Context, tenantID, receiptID, lineID uuid.UUID, quantity decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&checkout.ReceiptLine{}).
		Where("id = ? AND receipt_id IN (SELECT id FROM receipts WHERE id = ? AND tenant_id = ?)", lineID, receiptID, tenantID).
		Where("refunded_quantity + ? <= quantity", quantity).
		Updates(map[string]interface{}{
			"refunded_quantity": gorm.Expr("refunded_quantity + ?", quantity),
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrOverRefund
	}
	return nil
}

// SearchForTenant returns receipts matching the filter
func (r *GormReceiptRepository) SearchForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]checkout.Receipt, error) {
	var receipts []checkout.Receipt
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&checkout.Receipt{}).
			Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
			Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

// CountForTenant counts receipts matching the filter
func (r *GormReceiptRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(
		r.db.WithContext(ctx).Model(&checkout.Receipt{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormReceiptRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyConditions(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}
	return query
}

func (r *GormReceiptRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "store_id":
			query = query.Where("store_id = ?", value)
		case "cashier_id":
			query = query.Where("cashier_id = ?", value)
		case "shift_id":
			query = query.Where("shift_id = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "completed_from":
			query = query.Where("completed_at >= ?", value)
		case "completed_to":
			query = query.Where("completed_at <= ?", value)
		}
	}
	if filter.Search != "" {
		query = query.Where("receipt_number ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

var _ checkout.ReceiptRepository = (*GormReceiptRepository)(nil)
