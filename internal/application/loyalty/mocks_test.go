package loyalty

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/identity"
	"github.com/pontos/backend/internal/domain/loyalty"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockCustomerRepository is a mock implementation of loyalty.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*loyalty.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByCPF(ctx context.Context, cpf string) (*loyalty.Customer, error) {
	args := m.Called(ctx, cpf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	args := m.Called(ctx, cpf)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) ExistsByCPFExcludingID(ctx context.Context, cpf string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, cpf, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) FindRanking(ctx context.Context, filter loyalty.RankingFilter) ([]loyalty.Customer, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]loyalty.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *loyalty.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) SaveWithLock(ctx context.Context, customer *loyalty.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

// MockPointsTransactionRepository is a mock implementation of loyalty.PointsTransactionRepository
type MockPointsTransactionRepository struct {
	mock.Mock
}

func (m *MockPointsTransactionRepository) Create(ctx context.Context, tx *loyalty.PointsTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockPointsTransactionRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]loyalty.PointsTransaction, int64, error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]loyalty.PointsTransaction), args.Get(1).(int64), args.Error(2)
}

// passThroughTxManager runs the callback directly and counts calls
type passThroughTxManager struct {
	calls int
}

func (m *passThroughTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
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
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// MockPhotoStorage is a mock implementation of PhotoStorage
type MockPhotoStorage struct {
	mock.Mock
}

func (m *MockPhotoStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

// MockAccountReader is a mock implementation of AccountReader
type MockAccountReader struct {
	mock.Mock
}

func (m *MockAccountReader) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}
