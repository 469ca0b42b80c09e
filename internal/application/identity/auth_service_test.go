package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/identity"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/pontos/backend/internal/infrastructure/auth"
	"github.com/pontos/backend/internal/infrastructure/cache"
	"github.com/pontos/backend/internal/infrastructure/config"
	"github.com/pontos/backend/internal/infrastructure/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// captureSender keeps sent messages
type captureSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (s *captureSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

type authFixture struct {
	users     *MockUserRepository
	resets    *cache.InMemoryPasswordResetStore
	blacklist *auth.InMemoryTokenBlacklist
	mailer    *captureSender
	publisher *recordingPublisher
	jwt       *auth.JWTService
	service   *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:     new(MockUserRepository),
		resets:    cache.NewInMemoryPasswordResetStore(),
		blacklist: auth.NewInMemoryTokenBlacklist(),
		mailer:    &captureSender{},
		publisher: &recordingPublisher{},
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                 "test-secret-key-for-auth-service-tests",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
			Issuer:                 "pontos-test",
		}),
	}
	t.Cleanup(func() { _ = f.resets.Close() })

	cfg := DefaultAuthServiceConfig()
	cfg.ResetURL = "https://pontos.local/reset"
	f.service = NewAuthService(f.users, f.resets, f.jwt, f.blacklist, f.mailer, f.publisher, cfg, zap.NewNop())
	return f
}

func newTestUser(t *testing.T) *identity.User {
	t.Helper()
	u, err := identity.NewUser("ana@example.com", "secret123", "Ana")
	require.NoError(t, err)
	u.ClearDomainEvents()
	return u
}

func TestAuthService_Register(t *testing.T) {
	t.Run("creates account and issues tokens", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByEmail", mock.Anything, "ana@example.com").Return(false, nil)
		f.users.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

		result, err := f.service.Register(context.Background(), RegisterInput{
			Name:     "Ana",
			Email:    " Ana@Example.com ",
			Password: "secret123",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, result.AccessToken)
		assert.Equal(t, "ana@example.com", result.User.Email)
		require.Len(t, f.publisher.events, 1)
		assert.Equal(t, identity.EventTypeUserRegistered, f.publisher.events[0].EventType())

		claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, result.User.ID.String(), claims.UserID)
	})

	t.Run("email in use", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByEmail", mock.Anything, "ana@example.com").Return(true, nil)

		_, err := f.service.Register(context.Background(), RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, ErrEmailInUse)
	})

	t.Run("email taken concurrently", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByEmail", mock.Anything, "ana@example.com").Return(false, nil)
		f.users.On("Save", mock.Anything, mock.Anything).Return(shared.ErrAlreadyExists)

		_, err := f.service.Register(context.Background(), RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, ErrEmailInUse)
	})

	t.Run("domain validation", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)

		_, err := f.service.Register(context.Background(), RegisterInput{Name: "", Email: "ana@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, identity.ErrNameRequired)

		_, err = f.service.Register(context.Background(), RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "123"})
		assert.ErrorIs(t, err, identity.ErrWeakPassword)
		f.users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newTestUser(t)
		f.users.On("FindByEmail", mock.Anything, "ana@example.com").Return(user, nil)
		f.users.On("Save", mock.Anything, user).Return(nil)

		result, err := f.service.Login(context.Background(), LoginInput{Email: "ANA@example.com", Password: "secret123", IP: "10.0.0.1"})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", result.TokenType)
		assert.Equal(t, "10.0.0.1", user.LastLoginIP)
		assert.NotNil(t, result.User.LastLoginAt)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, shared.ErrNotFound)

		_, err := f.service.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "x"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password counts the failure", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newTestUser(t)
		f.users.On("FindByEmail", mock.Anything, "ana@example.com").Return(user, nil)
		f.users.On("Save", mock.Anything, user).Return(nil)

		_, err := f.service.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "wrong-pass"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, 1, user.FailedAttempts)
	})

	t.Run("locks after max attempts", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newTestUser(t)
		user.FailedAttempts = 4
		f.users.On("FindByEmail", mock.Anything, "ana@example.com").Return(user, nil)
		f.users.On("Save", mock.Anything, user).Return(nil)

		_, err := f.service.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "wrong-pass"})
		assert.ErrorIs(t, err, identity.ErrAccountLocked)
		assert.True(t, user.IsLocked())

		_, err = f.service.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, identity.ErrAccountLocked)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	pair, err := f.jwt.GenerateTokenPair(user.ID, user.Email)
	require.NoError(t, err)

	refreshed, err := f.service.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, refreshed.RefreshToken)

	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = f.service.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.service.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	ctx := context.Background()

	pair, err := f.jwt.GenerateTokenPair(user.ID, user.Email)
	require.NoError(t, err)
	access, err := f.jwt.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := f.jwt.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	err = f.service.Logout(ctx, LogoutInput{
		UserID:         user.ID,
		TokenJTI:       access.ID,
		TokenRemaining: access.GetRemainingTTL(),
		RefreshToken:   pair.RefreshToken,
	})
	require.NoError(t, err)

	revoked, err := f.blacklist.IsBlacklisted(ctx, access.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = f.blacklist.IsBlacklisted(ctx, refresh.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthService_PasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	ctx := context.Background()

	f.users.On("FindByEmail", mock.Anything, "ana@example.com").Return(user, nil)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("Save", mock.Anything, user).Return(nil)

	require.NoError(t, f.service.RequestPasswordReset(ctx, "Ana@example.com"))
	require.Len(t, f.mailer.sent, 1)
	msg := f.mailer.sent[0]
	assert.Equal(t, "ana@example.com", msg.ToAddress)
	assert.Contains(t, msg.HTML, "https://pontos.local/reset?token=")

	token := extractToken(t, msg.Text)

	err := f.service.ConfirmPasswordReset(ctx, token, "new-secret")
	require.NoError(t, err)
	assert.True(t, user.VerifyPassword("new-secret"))
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, identity.EventTypeUserPasswordChanged, f.publisher.events[0].EventType())

	// Tokens issued before the reset are revoked
	invalidated, err := f.blacklist.IsUserTokenInvalidated(ctx, user.ID.String(), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, invalidated)

	// Codes are single use
	err = f.service.ConfirmPasswordReset(ctx, token, "another-secret")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestAuthService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, shared.ErrNotFound)

	require.NoError(t, f.service.RequestPasswordReset(context.Background(), "nobody@example.com"))
	assert.Empty(t, f.mailer.sent)
}

func TestAuthService_RequestPasswordReset_SendFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.mailer.err = errors.New("provider down")
	user := newTestUser(t)
	f.users.On("FindByEmail", mock.Anything, "ana@example.com").Return(user, nil)

	err := f.service.RequestPasswordReset(context.Background(), "ana@example.com")
	assert.Error(t, err)
}

func TestAuthService_ConfirmPasswordReset_WeakPassword(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	require.NoError(t, f.resets.Save(context.Background(), "abc", user.ID, time.Hour))

	err := f.service.ConfirmPasswordReset(context.Background(), "abc", "123")
	assert.ErrorIs(t, err, identity.ErrWeakPassword)
	f.users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	f.users.On("Save", mock.Anything, user).Return(nil)
	require.NoError(t, f.service.ConfirmPasswordReset(context.Background(), "abc", "strong-secret"))
	assert.True(t, user.VerifyPassword("strong-secret"))
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	info, err := f.service.GetCurrentUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", info.DisplayName)
	assert.Equal(t, "active", info.Status)
}

// extractToken finds the 32-character hex code in the plain-text email
func extractToken(t *testing.T, text string) string {
	t.Helper()
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 32 && strings.Trim(line, "0123456789abcdef") == "" {
			return line
		}
	}
	t.Fatalf("no reset token in %q", text)
	return ""
}
