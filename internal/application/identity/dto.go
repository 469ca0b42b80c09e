package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/identity"
)

// RegisterInput contains the input for creating an account
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	IP       string
}

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult contains the tokens issued on login, registration or refresh
type LoginResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	User                  UserInfo
}

// UserInfo contains basic user information
type UserInfo struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// LogoutInput identifies the tokens to revoke
type LogoutInput struct {
	UserID         uuid.UUID
	TokenJTI       string
	TokenRemaining time.Duration
	RefreshToken   string // optional, revoked as well when valid
}

// ToUserInfo converts a domain user
func ToUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Status:      string(u.Status),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
