package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/identity"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/pontos/backend/internal/infrastructure/auth"
	"github.com/pontos/backend/internal/infrastructure/email"
	"github.com/pontos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Email ou senha inválidos.")
	ErrEmailInUse         = shared.NewDomainError("EMAIL_IN_USE", "Este email já está em uso.")
	ErrInvalidResetToken  = shared.NewDomainError("INVALID_RESET_TOKEN", "Código de redefinição inválido ou expirado.")
	ErrInvalidToken       = shared.NewDomainError("INVALID_TOKEN", "Token inválido ou expirado.")
	ErrTokenRevoked       = shared.NewDomainError("TOKEN_REVOKED", "Token revogado.")
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
	PasswordResetTTL time.Duration
	ResetURL         string // optional link base, the token is appended as ?token=
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
		PasswordResetTTL: time.Hour,
	}
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo   identity.UserRepository
	resetStore identity.PasswordResetStore
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	mailer     email.Sender
	publisher  shared.EventPublisher
	config     AuthServiceConfig
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	resetStore identity.PasswordResetStore,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	mailer email.Sender,
	publisher shared.EventPublisher,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		resetStore: resetStore,
		jwtService: jwtService,
		blacklist:  blacklist,
		mailer:     mailer,
		publisher:  publisher,
		config:     config,
		logger:     logger,
	}
}

// Register creates an account and signs it in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	normalized := identity.NormalizeEmail(input.Email)

	exists, err := s.userRepo.ExistsByEmail(ctx, normalized)
	if err != nil {
		s.logger.Error("Failed to check email availability", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrEmailInUse
	}

	user, err := identity.NewUser(input.Email, input.Password, input.Name)
	if err != nil {
		return nil, err
	}
	user.RecordLoginSuccess(input.IP)

	if err := s.userRepo.Save(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrEmailInUse
		}
		s.logger.Error("Failed to save new user", zap.Error(err))
		return nil, err
	}
	s.publish(ctx, user)

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return s.issueTokens(user)
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (result *LoginResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "AuthService", "Login")
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()

	user, err := s.userRepo.FindByEmail(ctx, identity.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login attempt for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, user.ID.String())

	if !user.CanLogin() {
		s.logger.Warn("Login attempt for locked account", zap.String("user_id", user.ID.String()))
		return nil, identity.ErrAccountLocked
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Save(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}

		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("user_id", user.ID.String()),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, identity.ErrAccountLocked
		}

		s.logger.Warn("Invalid password attempt",
			zap.String("user_id", user.ID.String()),
			zap.Int("failed_attempts", user.FailedAttempts))
		return nil, ErrInvalidCredentials
	}

	result, err = s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	user.RecordLoginSuccess(input.IP)
	if err := s.userRepo.Save(ctx, user); err != nil {
		// Don't fail the login - just log the error
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}
	result.User = ToUserInfo(user)

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return result, nil
}

// Refresh exchanges a refresh token for a new pair. The presented refresh
// token is revoked so it cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken.WithCause(err)
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, ErrInvalidToken.WithCause(err)
	}

	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.CanLogin() {
		return nil, identity.ErrAccountLocked
	}

	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke used refresh token", zap.Error(err))
		return nil, err
	}
	return s.issueTokens(user)
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenJTI != "" {
		if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TokenRemaining); err != nil {
			s.logger.Error("Failed to blacklist access token", zap.Error(err))
			return err
		}
	}

	if input.RefreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
		if err == nil && claims.UserID == input.UserID.String() {
			if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
				s.logger.Error("Failed to blacklist refresh token", zap.Error(err))
				return err
			}
		}
	}

	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// RequestPasswordReset emails a single-use reset code. Unknown addresses
// succeed silently so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, address string) error {
	user, err := s.userRepo.FindByEmail(ctx, identity.NormalizeEmail(address))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Info("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	if err := s.resetStore.Save(ctx, token, user.ID, s.config.PasswordResetTTL); err != nil {
		s.logger.Error("Failed to store password reset token", zap.Error(err))
		return err
	}

	data := email.PasswordResetData{
		Name:     user.DisplayName,
		Token:    token,
		TTLHours: max(1, int(s.config.PasswordResetTTL/time.Hour)),
	}
	if s.config.ResetURL != "" {
		data.ResetURL = s.config.ResetURL + "?token=" + token
	}
	msg, err := email.NewPasswordResetMessage(user.Email, user.DisplayName, data)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("Failed to send password reset email",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		return err
	}

	s.logger.Info("Password reset email sent", zap.String("user_id", user.ID.String()))
	return nil
}

// ConfirmPasswordReset consumes the reset code, sets the new password and
// revokes every token issued before it. A rejected password leaves the code usable.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := identity.ValidatePassword(newPassword); err != nil {
		return err
	}

	userID, err := s.resetStore.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}

	if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to revoke tokens after password reset", zap.Error(err))
	}
	s.publish(ctx, user)

	s.logger.Info("Password reset completed", zap.String("user_id", user.ID.String()))
	return nil
}

// GetCurrentUser returns the signed-in account
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// checkRevoked rejects blacklisted token IDs and tokens issued before a
// user-wide revocation
func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return ErrTokenRevoked
	}
	invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		return err
	}
	if invalidated {
		return ErrTokenRevoked
	}
	return nil
}

func (s *AuthService) issueTokens(user *identity.User) (*LoginResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens").WithCause(err)
	}
	return &LoginResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  ToUserInfo(user),
	}, nil
}

func (s *AuthService) publish(ctx context.Context, user *identity.User) {
	events := user.GetDomainEvents()
	user.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
}

// newResetToken returns 32 hex characters of crypto randomness
func newResetToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
