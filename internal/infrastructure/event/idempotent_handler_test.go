package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pontos/backend/internal/domain/shared"
	"github.com/pontos/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	inner := newTestHandler("A")
	h := NewIdempotentHandler("audit", inner, store, time.Minute, zap.NewNop())
	event := newTestEvent("A")

	require.NoError(t, h.Handle(context.Background(), event))
	require.NoError(t, h.Handle(context.Background(), event))
	require.NoError(t, h.Handle(context.Background(), newTestEvent("A")))

	assert.Equal(t, 2, inner.count())
	assert.Equal(t, IdempotencyStats{Processed: 2, Duplicate: 1}, h.Stats())
	assert.Equal(t, []string{"A"}, h.EventTypes())
}

func TestIdempotentHandler_KeysAreScopedByName(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	first := newTestHandler()
	second := newTestHandler()
	event := newTestEvent("A")

	require.NoError(t, NewIdempotentHandler("one", first, store, 0, zap.NewNop()).Handle(context.Background(), event))
	require.NoError(t, NewIdempotentHandler("two", second, store, 0, zap.NewNop()).Handle(context.Background(), event))

	assert.Equal(t, 1, first.count())
	assert.Equal(t, 1, second.count())
}

func TestIdempotentHandler_FailureReleasesKey(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := newTestHandler()
	inner.err = errors.New("down")
	event := newTestEvent("A")
	key := "event:x:" + event.EventID().String()

	store.On("MarkProcessed", mock.Anything, key, DefaultIdempotencyTTL).Return(true, nil)
	store.On("Release", mock.Anything, key).Return(nil)

	h := NewIdempotentHandler("x", inner, store, 0, zap.NewNop())
	err := h.Handle(context.Background(), event)

	assert.EqualError(t, err, "down")
	assert.Equal(t, int64(1), h.Stats().Failed)
	store.AssertExpectations(t)
}

func TestIdempotentHandler_StoreErrorStillProcesses(t *testing.T) {
	store := new(MockIdempotencyStore)
	store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))

	inner := newTestHandler()
	h := NewIdempotentHandler("x", inner, store, time.Minute, zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), newTestEvent("A")))
	assert.Equal(t, 1, inner.count())
}

var _ shared.IdempotencyStore = (*MockIdempotencyStore)(nil)
