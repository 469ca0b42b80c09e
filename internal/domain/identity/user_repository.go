package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository defines the interface for account persistence
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByEmail expects a normalized address
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Save inserts or updates the account
	Save(ctx context.Context, user *User) error
}

// PasswordResetStore keeps single-use password reset tokens
type PasswordResetStore interface {
	// Save stores token for userID until ttl elapses
	Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	// Consume returns the token's user and deletes the token.
	// Unknown or expired tokens return shared.ErrNotFound.
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}
