package identity

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pontos/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of an account
type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusLocked UserStatus = "locked"
)

const (
	bcryptCost        = 12
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt ignores anything longer
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrNameRequired  = shared.NewDomainError("NAME_REQUIRED", "O nome é obrigatório para o registo.")
	ErrInvalidEmail  = shared.NewDomainError("INVALID_EMAIL", "Email inválido.")
	ErrWeakPassword  = shared.NewDomainError("WEAK_PASSWORD", "A senha deve ter pelo menos 6 caracteres.")
	ErrLongPassword  = shared.NewDomainError("WEAK_PASSWORD", "A senha não pode exceder 72 caracteres.")
	ErrPasswordHash  = shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	ErrAccountLocked = shared.NewDomainError("ACCOUNT_LOCKED", "Conta bloqueada temporariamente.")
)

// User is an account that can sign in to operate the loyalty program.
// Its ID doubles as the ID of the account holder's own customer profile.
type User struct {
	shared.BaseAggregateRoot
	Email          string
	PasswordHash   string
	DisplayName    string
	Status         UserStatus
	LastLoginAt    *time.Time
	LastLoginIP    string
	FailedAttempts int
	LockedUntil    *time.Time
}

// NewUser registers an active account
func NewUser(email, password, displayName string) (*User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrNameRequired
	}
	if utf8.RuneCountInString(displayName) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "O nome não pode exceder 200 caracteres.")
	}
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, ErrPasswordHash.WithCause(err)
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		PasswordHash:      hash,
		DisplayName:       displayName,
		Status:            UserStatusActive,
	}
	user.AddDomainEvent(NewUserRegisteredEvent(user))
	return user, nil
}

// NormalizeEmail lower-cases and trims an address for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword replaces the password hash
func (u *User) SetPassword(newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return ErrPasswordHash.WithCause(err)
	}

	u.PasswordHash = hash
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.Status = UserStatusActive
	u.Touch()
	u.IncrementVersion()

	u.AddDomainEvent(NewUserPasswordChangedEvent(u))
	return nil
}

// VerifyPassword checks password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// RecordLoginSuccess resets the failure counter
func (u *User) RecordLoginSuccess(ip string) {
	now := time.Now()
	u.LastLoginAt = &now
	u.LastLoginIP = ip
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.Status = UserStatusActive
	u.Touch()
	u.IncrementVersion()
}

// RecordLoginFailure counts a failed attempt and locks the account for
// lockDuration once maxAttempts is reached. Returns true when it locked.
func (u *User) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	u.FailedAttempts++
	u.Touch()
	u.IncrementVersion()

	if u.FailedAttempts < maxAttempts {
		return false
	}
	until := time.Now().Add(lockDuration)
	u.Status = UserStatusLocked
	u.LockedUntil = &until
	return true
}

// IsLocked reports whether a lock is in force. Expired locks do not count.
func (u *User) IsLocked() bool {
	if u.Status != UserStatusLocked {
		return false
	}
	return u.LockedUntil == nil || time.Now().Before(*u.LockedUntil)
}

// CanLogin returns true if the account may authenticate
func (u *User) CanLogin() bool {
	return !u.IsLocked()
}

func validateEmail(email string) error {
	if email == "" || len(email) > 200 || !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword checks the password length rules without hashing
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	if len(password) > maxPasswordLength {
		return ErrLongPassword
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
