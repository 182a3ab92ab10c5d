package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shift"
)

// GormShiftRepository implements ShiftRepository using GORM. The
// one-open-shift rule is backed by a partial unique index on
// (tenant_id, cashier_id, store_id) WHERE status = 'OPEN'.
type GormShiftRepository struct {
	db *gorm.DB
}

// NewGormShiftRepository creates a new GormShiftRepository
func NewGormShiftRepository(db *gorm.DB) *GormShiftRepository {
	return &GormShiftRepository{db: db}
}

// FindByIDForTenant loads a shift with its movements
func (r *GormShiftRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*shift.Shift, error) {
	var s shift.Shift
	if err := r.db.WithContext(ctx).
		Preload("Movements", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindOpenByCashier returns the cashier's open shift at a store
func (r *GormShiftRepository) FindOpenByCashier(ctx context.Context, tenantID, cashierID, storeID uuid.UUID) (*shift.Shift, error) {
	return r.findOpen(ctx, r.db, tenantID, cashierID, storeID)
}

// FindOpenForUpdate is FindOpenByCashier under a row lock
func (r *GormShiftRepository) FindOpenForUpdate(ctx context.Context, tenantID, cashierID, storeID uuid.UUID) (*shift.Shift, error) {
	return r.findOpen(ctx, r.db.Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, cashierID, storeID)
}

func (r *GormShiftRepository) findOpen(ctx context.Context, db *gorm.DB, tenantID, cashierID, storeID uuid.UUID) (*shift.Shift, error) {
	var s shift.Shift
	if err := db.WithContext(ctx).
		Preload("Movements", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("tenant_id = ? AND cashier_id = ? AND store_id = ? AND status = ?",
			tenantID, cashierID, storeID, shift.StatusOpen).
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindForUpdate loads a shift by ID under a row lock for totals updates
func (r *GormShiftRepository) FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*shift.Shift, error) {
	var s shift.Shift
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Movements", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create persists a newly opened shift. A concurrent open for the same
// cashier and store trips the partial unique index.
func (r *GormShiftRepository) Create(ctx context.Context, s *shift.Shift) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrDuplicateOpenShift
		}
		return err
	}
	return nil
}

// Save persists shift totals, movements and close state
func (r *GormShiftRepository) Save(ctx context.Context, s *shift.Shift) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(s).Error
}

// FindAllForTenant lists shifts for a tenant
func (r *GormShiftRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]shift.Shift, error) {
	var shifts []shift.Shift
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&shift.Shift{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}

// CountForTenant counts shifts matching the filter
func (r *GormShiftRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(
		r.db.WithContext(ctx).Model(&shift.Shift{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormShiftRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
		query = query.Order("opened_at DESC")
	}
	return query
}

func (r *GormShiftRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "store_id":
			query = query.Where("store_id = ?", value)
		case "cashier_id":
			query = query.Where("cashier_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "opened_from":
			query = query.Where("opened_at >= ?", value)
		case "opened_to":
			query = query.Where("opened_at <= ?", value)
		}
	}
	return query
}

var _ shift.ShiftRepository = (*GormShiftRepository)(nil)
