package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pos/backend/internal/infrastructure/event"
)

// auditLogRow maps audit entries onto the audit_logs table
type auditLogRow struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index"`
	EventID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	EventType     string    `gorm:"type:varchar(100);not null;index"`
	AggregateID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AggregateType string    `gorm:"type:varchar(50);not null"`
	Payload       []byte    `gorm:"type:jsonb"`
	OccurredAt    time.Time `gorm:"type:timestamptz;not null"`
	RecordedAt    time.Time `gorm:"type:timestamptz;not null"`
}

// TableName returns the table name for GORM
func (auditLogRow) TableName() string {
	return "audit_logs"
}

// GormAuditLogRepository appends audit entries. The unique index on
// event_id makes replayed events a silent no-op.
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append inserts one audit entry
func (r *GormAuditLogRepository) Append(ctx context.Context, entry *event.AuditEntry) error {
	row := auditLogRow{
		ID:            entry.ID,
		TenantID:      entry.TenantID,
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		AggregateID:   entry.AggregateID,
		AggregateType: entry.AggregateType,
		Payload:       entry.Payload,
		OccurredAt:    entry.OccurredAt,
		RecordedAt:    entry.RecordedAt,
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

var _ event.AuditLogRepository = (*GormAuditLogRepository)(nil)
