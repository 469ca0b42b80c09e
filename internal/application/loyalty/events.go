package loyalty

import (
	"context"

	"github.com/pontos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// aggregate is the part of shared.AggregateRoot the services need to drain events
type aggregate interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// drainEvents takes the pending events off each aggregate
func drainEvents(aggregates ...aggregate) []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, a := range aggregates {
		events = append(events, a.GetDomainEvents()...)
		a.ClearDomainEvents()
	}
	return events
}

// publishEvents hands committed events to the bus. Failures are logged only,
// the state change they describe is already durable.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Error("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err))
	}
}
