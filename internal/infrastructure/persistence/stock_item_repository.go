package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/stock"
)

// GormStockItemRepository implements StockItemRepository using GORM
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

// FindByStoreAndProduct loads the projection without locking
func (r *GormStockItemRepository) FindByStoreAndProduct(ctx context.Context, tenantID, storeID, productID uuid.UUID) (*stock.StockItem, error) {
	var item stock.StockItem
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND store_id = ? AND product_id = ?", tenantID, storeID, productID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindForUpdate loads the projection under a SELECT ... FOR UPDATE row
// lock. The stock decision that follows reads committed state and
// concurrent sales of the same item serialize on this row.
func (r *GormStockItemRepository) FindForUpdate(ctx context.Context, tenantID, storeID, productID uuid.UUID) (*stock.StockItem, error) {
	var item stock.StockItem
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND store_id = ? AND product_id = ?", tenantID, storeID, productID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// GetOrCreateForUpdate loads the projection under a row lock, creating a
// zero-quantity row first if none exists. ON CONFLICT DO NOTHING absorbs
// the race where two transactions create the same row.
func (r *GormStockItemRepository) GetOrCreateForUpdate(ctx context.Context, tenantID, storeID, productID uuid.UUID) (*stock.StockItem, error) {
	item, err := r.FindForUpdate(ctx, tenantID, storeID, productID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	fresh, err := stock.NewStockItem(tenantID, storeID, productID)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "store_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(fresh).Error; err != nil {
		return nil, err
	}

	return r.FindForUpdate(ctx, tenantID, storeID, productID)
}

// Save persists the projection state
func (r *GormStockItemRepository) Save(ctx context.Context, item *stock.StockItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// FindAllForTenant lists projections for a tenant
func (r *GormStockItemRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]stock.StockItem, error) {
	var items []stock.StockItem
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&stock.StockItem{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CountForTenant counts projections matching the filter
func (r *GormStockItemRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(
		r.db.WithContext(ctx).Model(&stock.StockItem{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormStockItemRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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

func (r *GormStockItemRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "store_id":
			query = query.Where("store_id = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "negative_only":
			if value == true {
				query = query.Where("quantity_on_hand < 0")
			}
		case "out_of_stock":
			if value == true {
				query = query.Where("quantity_on_hand <= 0")
			}
		}
	}
	return query
}

var _ stock.StockItemRepository = (*GormStockItemRepository)(nil)
