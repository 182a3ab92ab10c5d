package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pos/backend/internal/domain/checkout"
)

// DocumentSequence is one counter row per (tenant, store, prefix, day).
// The next value is claimed under a row lock; numbers are never derived
// by scanning existing documents.
type DocumentSequence struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	StoreID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Prefix    string    `gorm:"type:varchar(10);primaryKey"`
	Day       string    `gorm:"type:varchar(8);primaryKey"` // YYYYMMDD
	LastValue int64     `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (DocumentSequence) TableName() string {
	return "document_sequences"
}

// GormNumberAllocator issues document numbers like RCP-20260828-000042,
// scoped per (tenant, store, prefix, day).
type GormNumberAllocator struct {
	db *gorm.DB
}

// NewGormNumberAllocator creates a new GormNumberAllocator
func NewGormNumberAllocator(db *gorm.DB) *GormNumberAllocator {
	return &GormNumberAllocator{db: db}
}

// Next claims the next sequence value and formats the document number.
// Must be called inside the same transaction as the document insert so a
// rollback releases the claimed value's row lock together with everything
// else.
func (a *GormNumberAllocator) Next(ctx context.Context, tenantID, storeID uuid.UUID, prefix string, day time.Time) (string, error) {
	dayKey := day.Format("20060102")

	// Ensure the counter row exists, then claim it FOR UPDATE.
	seed := DocumentSequence{
		TenantID: tenantID,
		StoreID:  storeID,
		Prefix:   prefix,
		Day:      dayKey,
	}
	if err := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seed).Error; err != nil {
		return "", fmt.Errorf("failed to seed document sequence: %w", err)
	}

	var seq DocumentSequence
	if err := a.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND store_id = ? AND prefix = ? AND day = ?", tenantID, storeID, prefix, dayKey).
		First(&seq).Error; err != nil {
		return "", fmt.Errorf("failed to lock document sequence: %w", err)
	}

	seq.LastValue++
	seq.UpdatedAt = time.Now()
	if err := a.db.WithContext(ctx).
		Model(&DocumentSequence{}).
		Where("tenant_id = ? AND store_id = ? AND prefix = ? AND day = ?", tenantID, storeID, prefix, dayKey).
		Updates(map[string]interface{}{
			"last_value": seq.LastValue,
			"updated_at": seq.UpdatedAt,
		}).Error; err != nil {
		return "", fmt.Errorf("failed to advance document sequence: %w", err)
	}

	return fmt.Sprintf("%s-%s-%06d", prefix, dayKey, seq.LastValue), nil
}

var _ checkout.NumberAllocator = (*GormNumberAllocator)(nil)
