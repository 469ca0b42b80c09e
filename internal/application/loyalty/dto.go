package loyalty

import (
	"time"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/loyalty"
)

// AddPointsInput contains the input for registering points against a CPF
type AddPointsInput struct {
	CPF            string
	Points         int64
	Name           string
	OperatorID     uuid.UUID
	IdempotencyKey string // optional, repeated keys are rejected
}

// AddPointsResult contains the outcome of a points registration
type AddPointsResult struct {
	Customer    CustomerDTO
	PointsAdded int64
	DisplayName string
	Created     bool
}

// ListCustomersInput filters the ranking
type ListCustomersInput struct {
	CPF      string
	Page     int
	PageSize int
}

// UpdateCustomerInput contains the staff-editable fields of a customer
type UpdateCustomerInput struct {
	Name   string
	Phone  string
	Points int64
	CPF    string
}

// PhotoUpload is a profile photo received from a client
type PhotoUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UpdateProfileInput contains the fields an account holder may edit
type UpdateProfileInput struct {
	Name  string
	Phone string
	CPF   string
	Photo *PhotoUpload
}

// CustomerDTO is the customer representation returned by the services
type CustomerDTO struct {
	ID           uuid.UUID `json:"id"`
	CPF          string    `json:"cpf"`
	FormattedCPF string    `json:"formatted_cpf"`
	LastUsedCPF  string    `json:"last_used_cpf,omitempty"`
	Name         string    `json:"name"`
	DisplayName  string    `json:"display_name"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	Points       int64     `json:"points"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RankingEntry is one row of the customer ranking
type RankingEntry struct {
	Position     int       `json:"position"`
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	FormattedCPF string    `json:"formatted_cpf"`
	Phone        string    `json:"phone,omitempty"`
	Points       int64     `json:"points"`
	LastActivity time.Time `json:"last_activity"`
}

// ProfileDTO is the signed-in account's own customer record
type ProfileDTO struct {
	ID           uuid.UUID `json:"id"`
	Exists       bool      `json:"exists"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email"`
	CPF          string    `json:"cpf,omitempty"`
	FormattedCPF string    `json:"formatted_cpf,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	Points       int64     `json:"points"`
}

// TransactionDTO is one ledger entry
type TransactionDTO struct {
	ID           uuid.UUID  `json:"id"`
	CustomerID   uuid.UUID  `json:"customer_id"`
	Type         string     `json:"type"`
	Points       int64      `json:"points"`
	BalanceAfter int64      `json:"balance_after"`
	Reference    string     `json:"reference,omitempty"`
	Remark       string     `json:"remark,omitempty"`
	OperatorID   *uuid.UUID `json:"operator_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToCustomerDTO converts a domain customer
func ToCustomerDTO(c *loyalty.Customer) CustomerDTO {
	return CustomerDTO{
		ID:           c.ID,
		CPF:          c.CPF.String(),
		FormattedCPF: c.CPF.Formatted(),
		LastUsedCPF:  c.LastUsedCPF,
		Name:         c.Name,
		DisplayName:  c.DisplayName(),
		Phone:        c.Phone,
		Email:        c.Email,
		PhotoURL:     c.PhotoURL,
		Points:       c.Points,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// ToTransactionDTO converts a ledger entry
func ToTransactionDTO(t *loyalty.PointsTransaction) TransactionDTO {
	return TransactionDTO{
		ID:           t.ID,
		CustomerID:   t.CustomerID,
		Type:         string(t.Type),
		Points:       t.Points,
		BalanceAfter: t.BalanceAfter,
		Reference:    t.Reference,
		Remark:       t.Remark,
		OperatorID:   t.OperatorID,
		CreatedAt:    t.CreatedAt,
	}
}
