package event

import (
	"context"
	"encoding/json"

	"github.com/pontos/backend/internal/domain/loyalty"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/pontos/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes every event as one structured log line
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates the handler
func NewAuditLogHandler(l *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: l.Named("audit")}
}

// EventTypes subscribes to all events
func (h *AuditLogHandler) EventTypes() []string { return nil }

// Handle logs the event payload
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	logger.WithTraceContext(ctx, h.logger).Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.ByteString("payload", payload),
	)
	return nil
}

// PointsRecorder receives loyalty activity for metrics
type PointsRecorder interface {
	RecordPointsAdded(ctx context.Context, points int64)
	RecordPointsAdjusted(ctx context.Context, delta int64)
	RecordCustomerRegistered(ctx context.Context)
}

// PointsMetricsHandler forwards loyalty events to a PointsRecorder
type PointsMetricsHandler struct {
	recorder PointsRecorder
}

// NewPointsMetricsHandler creates the handler
func NewPointsMetricsHandler(recorder PointsRecorder) *PointsMetricsHandler {
	return &PointsMetricsHandler{recorder: recorder}
}

// EventTypes lists the loyalty events that carry metrics
func (h *PointsMetricsHandler) EventTypes() []string {
	return []string{
		loyalty.EventTypePointsAdded,
		loyalty.EventTypePointsAdjusted,
		loyalty.EventTypeCustomerRegistered,
	}
}

// Handle records the event
func (h *PointsMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *loyalty.PointsAddedEvent:
		h.recorder.RecordPointsAdded(ctx, e.Points)
	case *loyalty.PointsAdjustedEvent:
		h.recorder.RecordPointsAdjusted(ctx, e.Delta)
	case *loyalty.CustomerRegisteredEvent:
		h.recorder.RecordCustomerRegistered(ctx)
	}
	return nil
}

var (
	_ shared.EventHandler = (*AuditLogHandler)(nil)
	_ shared.EventHandler = (*PointsMetricsHandler)(nil)
)
