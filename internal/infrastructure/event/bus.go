// Package event dispatches domain events to in-process handlers.
package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pontos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
)

// ErrBusStopped is returned when publishing to a stopped bus
var ErrBusStopped = errors.New("event bus stopped")

// InMemoryEventBus fans events out to subscribed handlers.
// Before Start, and after Stop, Publish dispatches synchronously on the
// caller's goroutine. While running, events go through a bounded queue
// drained by worker goroutines.
type InMemoryEventBus struct {
	registry  *HandlerRegistry
	logger    *zap.Logger
	workers   int
	queueSize int

	mu      sync.RWMutex
	queue   chan envelope
	running bool
	wg      sync.WaitGroup
}

type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// BusOption configures InMemoryEventBus
type BusOption func(*InMemoryEventBus)

// WithWorkers sets the number of dispatch goroutines
func WithWorkers(n int) BusOption {
	return func(b *InMemoryEventBus) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithQueueSize sets the queue capacity
func WithQueueSize(n int) BusOption {
	return func(b *InMemoryEventBus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// NewInMemoryEventBus creates a stopped bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	b := &InMemoryEventBus{
		registry:  NewHandlerRegistry(),
		logger:    logger,
		workers:   defaultWorkers,
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers events to every matching handler. Handler failures are
// logged and never returned to the publisher.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, event := range events {
		if !b.running {
			b.dispatch(ctx, event)
			continue
		}
		// Handlers run after the request returns, so they must not inherit its cancellation.
		env := envelope{ctx: context.WithoutCancel(ctx), event: event}
		select {
		case b.queue <- env:
		case <-ctx.Done():
			return fmt.Errorf("publish %s: %w", event.EventType(), ctx.Err())
		}
	}
	return nil
}

// Subscribe registers handler. Without explicit types the handler's own
// EventTypes are used.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start launches the workers
func (b *InMemoryEventBus) Start(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil
	}

	b.queue = make(chan envelope, b.queueSize)
	b.running = true
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.work(b.queue)
	}
	b.logger.Info("event bus started", zap.Int("workers", b.workers))
	return nil
}

// Stop closes the queue and waits for queued events to drain or ctx to end
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	close(b.queue)
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus drain: %w", ctx.Err())
	}
}

func (b *InMemoryEventBus) work(queue <-chan envelope) {
	defer b.wg.Done()
	for env := range queue {
		b.dispatch(env.ctx, env.event)
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, event shared.DomainEvent) {
	for _, handler := range b.registry.Handlers(event.EventType()) {
		if err := b.safeHandle(ctx, handler, event); err != nil {
			b.logger.Error("handler failed to process event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

func (b *InMemoryEventBus) safeHandle(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
