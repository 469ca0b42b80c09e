package handler

import (
	"time"

	appidentity "github.com/pontos/backend/internal/application/identity"
)

// RegisterRequest is the body of POST /auth/register. Field rules are
// enforced by the account aggregate so the client gets its messages.
// @name HandlerRegisterRequest
type RegisterRequest struct {
	Name     string `json:"name" example:"Ana Lima"`
	Email    string `json:"email" example:"ana@example.com"`
	Password string `json:"password" example:"segredo123"`
}

// LoginRequest is the body of POST /auth/login
// @name HandlerLoginRequest
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ana@example.com"`
	Password string `json:"password" binding:"required" example:"segredo123"`
}

// RefreshTokenRequest is the body of POST /auth/refresh
// @name HandlerRefreshTokenRequest
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally carries the refresh token to revoke with the session
// @name HandlerLogoutRequest
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// PasswordResetRequest is the body of POST /auth/password-reset
// @name HandlerPasswordResetRequest
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email" example:"ana@example.com"`
}

// PasswordResetConfirmRequest is the body of POST /auth/password-reset/confirm
// @name HandlerPasswordResetConfirmRequest
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password"`
}

// TokenResponse carries an issued token pair
// @name HandlerTokenResponse
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type" example:"Bearer"`
}

// AuthResponse is returned by register, login and refresh
// @name HandlerAuthResponse
type AuthResponse struct {
	Token TokenResponse        `json:"token"`
	User  appidentity.UserInfo `json:"user"`
}

func toAuthResponse(r *appidentity.LoginResult) AuthResponse {
	return AuthResponse{
		Token: TokenResponse{
			AccessToken:           r.AccessToken,
			RefreshToken:          r.RefreshToken,
			AccessTokenExpiresAt:  r.AccessTokenExpiresAt,
			RefreshTokenExpiresAt: r.RefreshTokenExpiresAt,
			TokenType:             r.TokenType,
		},
		User: r.User,
	}
}
