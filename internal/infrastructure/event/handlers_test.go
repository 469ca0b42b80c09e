package event

import (
	"context"
	"testing"

	"github.com/pontos/backend/internal/domain/loyalty"
	"github.com/pontos/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordedPoints struct {
	added      []int64
	adjusted   []int64
	registered int
}

func (r *recordedPoints) RecordPointsAdded(_ context.Context, points int64) {
	r.added = append(r.added, points)
}

func (r *recordedPoints) RecordPointsAdjusted(_ context.Context, delta int64) {
	r.adjusted = append(r.adjusted, delta)
}

func (r *recordedPoints) RecordCustomerRegistered(context.Context) { r.registered++ }

func newLoyaltyCustomer(t *testing.T) *loyalty.Customer {
	t.Helper()
	cpf, err := valueobject.NewCPF("529.982.247-25")
	require.NoError(t, err)
	c, err := loyalty.NewCustomer(cpf, "Maria", 10)
	require.NoError(t, err)
	return c
}

func TestPointsMetricsHandler(t *testing.T) {
	rec := &recordedPoints{}
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewPointsMetricsHandler(rec))

	c := newLoyaltyCustomer(t)
	require.NoError(t, c.AddPoints(5, c.CPF, ""))
	require.NoError(t, c.Update("Maria", "", 3, c.CPF))

	require.NoError(t, bus.Publish(context.Background(), c.GetDomainEvents()...))

	assert.Equal(t, 1, rec.registered)
	assert.Equal(t, []int64{10, 5}, rec.added)
	assert.Equal(t, []int64{-12}, rec.adjusted)
}

func TestAuditLogHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewAuditLogHandler(zap.New(core))
	assert.Empty(t, h.EventTypes())

	c := newLoyaltyCustomer(t)
	event := c.GetDomainEvents()[0]
	require.NoError(t, h.Handle(context.Background(), event))

	entries := logs.FilterMessage("domain event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, loyalty.EventTypeCustomerRegistered, fields["event_type"])
	assert.Equal(t, c.ID.String(), fields["aggregate_id"])
	assert.Contains(t, fields["payload"], "52998224725")
	assert.Equal(t, "audit", entries[0].LoggerName)
}
