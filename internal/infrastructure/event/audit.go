package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/domain/shared"
)

// AuditEntry is a persisted record of a domain event, kept as an
// append-only trail of what happened to which aggregate and when.
type AuditEntry struct {
	ID            uuid.UUID `json:"id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	EventID       uuid.UUID `json:"event_id"`
	EventType     string    `json:"event_type"`
	AggregateID   uuid.UUID `json:"aggregate_id"`
	AggregateType string    `json:"aggregate_type"`
	Payload       []byte    `json:"payload"`
	OccurredAt    time.Time `json:"occurred_at"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// AuditLogRepository persists audit entries.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
}

// AuditLogHandler subscribes to all domain events and appends one
// audit entry per event. It writes outside the business transaction,
// so a failed append loses the audit row but never the sale.
type AuditLogHandler struct {
	repo   AuditLogRepository
	logger *zap.Logger
}

// NewAuditLogHandler creates an audit log handler
func NewAuditLogHandler(repo AuditLogRepository, logger *zap.Logger) *AuditLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogHandler{repo: repo, logger: logger}
}

// EventTypes returns nil: the handler receives every event.
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle appends an audit entry for the event.
func (h *AuditLogHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Warn("could not serialize event payload",
			zap.String("event_type", evt.EventType()),
			zap.Error(err),
		)
		payload = nil
	}

	entry := &AuditEntry{
		ID:            uuid.New(),
		TenantID:      evt.TenantID(),
		EventID:       evt.EventID(),
		EventType:     evt.EventType(),
		AggregateID:   evt.AggregateID(),
		AggregateType: evt.AggregateType(),
		Payload:       payload,
		OccurredAt:    evt.OccurredAt(),
		RecordedAt:    time.Now(),
	}
	return h.repo.Append(ctx, entry)
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
