package event

import (
	"context"

	"github.com/salesflow/backend/internal/domain/inventory"
	"github.com/salesflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes every domain event to the structured log.
// Integrity violations are logged at error level so they reach alerting.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("domain_events")}
}

// Handle logs evt
func (h *AuditLogHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", evt.EventType()),
		zap.String("event_id", evt.EventID().String()),
		zap.String("tenant_id", evt.TenantID().String()),
		zap.String("aggregate_type", evt.AggregateType()),
		zap.String("aggregate_id", evt.AggregateID().String()),
	}
	if v, ok := evt.(*inventory.IntegrityViolationDetectedEvent); ok {
		h.logger.Error("stock ledger integrity violation",
			append(fields,
				zap.Int64("expected_stock", v.ExpectedStock),
				zap.Int64("actual_stock", v.ActualStock),
				zap.String("detail", v.Detail),
			)...,
		)
		return nil
	}
	h.logger.Info("domain event", fields...)
	return nil
}

// EventTypes returns nil; the handler receives every event
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
