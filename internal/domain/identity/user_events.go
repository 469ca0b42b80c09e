package identity

import "github.com/pontos/backend/internal/domain/shared"

// AggregateTypeUser names the user aggregate in events
const AggregateTypeUser = "User"

const (
	EventTypeUserRegistered      = "UserRegistered"
	EventTypeUserPasswordChanged = "UserPasswordChanged"
)

// UserRegisteredEvent is published when an account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func NewUserRegisteredEvent(u *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, u.ID),
		Email:           u.Email,
		DisplayName:     u.DisplayName,
	}
}

// UserPasswordChangedEvent is published after a password reset
type UserPasswordChangedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

func NewUserPasswordChangedEvent(u *User) *UserPasswordChangedEvent {
	return &UserPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserPasswordChanged, AggregateTypeUser, u.ID),
		Email:           u.Email,
	}
}
