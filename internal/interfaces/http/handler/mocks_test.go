package handler

import (
	"context"

	"github.com/google/uuid"
	appidentity "github.com/pontos/backend/internal/application/identity"
	apployalty "github.com/pontos/backend/internal/application/loyalty"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input appidentity.RegisterInput) (*appidentity.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.LoginResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, input appidentity.LoginInput) (*appidentity.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.LoginResult), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*appidentity.LoginResult, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.LoginResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, input appidentity.LogoutInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

func (m *MockAuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*appidentity.UserInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.UserInfo), args.Error(1)
}

type MockPointsService struct {
	mock.Mock
}

func (m *MockPointsService) AddPoints(ctx context.Context, input apployalty.AddPointsInput) (*apployalty.AddPointsResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apployalty.AddPointsResult), args.Error(1)
}

func (m *MockPointsService) ListTransactions(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[apployalty.TransactionDTO], error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[apployalty.TransactionDTO]), args.Error(1)
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) List(ctx context.Context, input apployalty.ListCustomersInput) (*shared.Paginated[apployalty.RankingEntry], error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[apployalty.RankingEntry]), args.Error(1)
}

func (m *MockCustomerService) GetByID(ctx context.Context, id uuid.UUID) (*apployalty.CustomerDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apployalty.CustomerDTO), args.Error(1)
}

func (m *MockCustomerService) Update(ctx context.Context, id, operatorID uuid.UUID, input apployalty.UpdateCustomerInput) (*apployalty.CustomerDTO, error) {
	args := m.Called(ctx, id, operatorID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apployalty.CustomerDTO), args.Error(1)
}

type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Get(ctx context.Context, userID uuid.UUID) (*apployalty.ProfileDTO, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apployalty.ProfileDTO), args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, userID uuid.UUID, input apployalty.UpdateProfileInput) (*apployalty.ProfileDTO, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apployalty.ProfileDTO), args.Error(1)
}
