package loyalty

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/pontos/backend/internal/domain/shared/valueobject"
)

const (
	// NoNameLabel is what ranked listings show for customers without a name
	NoNameLabel = "Nome não cadastrado"

	maxNameLength = 200
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
)

// Customer is a loyalty-program member keyed by CPF.
// Customers created from a points registration get a generated ID; profile
// records created by an authenticated account reuse the account ID.
type Customer struct {
	shared.BaseAggregateRoot
	CPF         valueobject.CPF
	LastUsedCPF string // formatted CPF last used to register points
	Name        string
	Phone       string
	Email       string
	PhotoURL    string
	Points      int64
}

// NewCustomer creates a customer from a first points registration
func NewCustomer(cpf valueobject.CPF, name string, points int64) (*Customer, error) {
	if cpf.IsEmpty() {
		return nil, ErrCPFRequired
	}
	if points <= 0 {
		return nil, ErrInvalidPoints
	}
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	c := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CPF:               cpf,
		LastUsedCPF:       cpf.Formatted(),
		Name:              name,
		Points:            points,
	}
	c.AddDomainEvent(NewCustomerRegisteredEvent(c))
	c.AddDomainEvent(NewPointsAddedEvent(c, points))
	return c, nil
}

// NewCustomerWithID creates an empty customer record that shares its ID
// with a user account
func NewCustomerWithID(id uuid.UUID) *Customer {
	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRootWithID(id),
	}
}

// AddPoints credits points registered under cpf.
// A blank name leaves the stored name alone.
func (c *Customer) AddPoints(points int64, cpf valueobject.CPF, name string) error {
	if points <= 0 {
		return ErrInvalidPoints
	}
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}

	c.Points += points
	c.LastUsedCPF = cpf.Formatted()
	if name != "" {
		c.Name = name
	}
	c.Touch()
	c.IncrementVersion()

	c.AddDomainEvent(NewPointsAddedEvent(c, points))
	return nil
}

// Update applies an operator edit. Points are overwritten, not added.
func (c *Customer) Update(name, phone string, points int64, cpf valueobject.CPF) error {
	if cpf.IsEmpty() {
		return ErrCPFRequired
	}
	if points < 0 {
		return ErrNegativePoints
	}
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}
	phone = strings.TrimSpace(phone)
	if err := validatePhone(phone); err != nil {
		return err
	}

	delta := points - c.Points
	c.Name = name
	c.Phone = phone
	c.Points = points
	c.CPF = cpf
	c.Touch()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerUpdatedEvent(c))
	if delta != 0 {
		c.AddDomainEvent(NewPointsAdjustedEvent(c, delta))
	}
	return nil
}

// UpdateProfile sets the self-service profile fields
func (c *Customer) UpdateProfile(name, phone, email, photoURL string) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}
	phone = strings.TrimSpace(phone)
	if err := validatePhone(phone); err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	c.Name = name
	c.Phone = phone
	c.Email = email
	c.PhotoURL = photoURL
	c.Touch()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerUpdatedEvent(c))
	return nil
}

// AssignCPF sets the CPF of a record that has none. Once set it is immutable
// through this path.
func (c *Customer) AssignCPF(cpf valueobject.CPF) error {
	if cpf.IsEmpty() {
		return ErrCPFRequired
	}
	if !c.CPF.IsEmpty() {
		return ErrCPFAlreadySet
	}
	c.CPF = cpf
	c.Touch()
	return nil
}

// HasCPF reports whether a CPF has been assigned
func (c *Customer) HasCPF() bool {
	return !c.CPF.IsEmpty()
}

// DisplayName returns the name, or a label built from the formatted CPF
func (c *Customer) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	cpf := c.LastUsedCPF
	if cpf == "" {
		cpf = c.CPF.Formatted()
	}
	return fmt.Sprintf("Cliente CPF %s", cpf)
}

// ListName returns the name used in ranked listings
func (c *Customer) ListName() string {
	if c.Name == "" {
		return NoNameLabel
	}
	return c.Name
}

// LastActivity returns when the record last changed
func (c *Customer) LastActivity() time.Time {
	return c.UpdatedAt
}

func validateName(name string) error {
	if utf8.RuneCountInString(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// validatePhone accepts an empty phone or one with 10 or 11 digits (DDD + number)
func validatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	digits := valueobject.StripNonDigits(phone)
	if len(digits) < 10 || len(digits) > 11 {
		return ErrInvalidPhone
	}
	if !phoneRegex.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}
