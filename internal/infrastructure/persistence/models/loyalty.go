package models

import (
	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/loyalty"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/pontos/backend/internal/domain/shared/valueobject"
)

// CustomerModel is the persistence model for loyalty.Customer.
// The CPF column holds the raw digits; empty means not yet assigned.
type CustomerModel struct {
	AggregateModel
	CPF         valueobject.CPF `gorm:"column:cpf;type:varchar(11);not null;index:idx_customers_cpf,unique,where:cpf <> ''"`
	LastUsedCPF string          `gorm:"column:last_used_cpf;type:varchar(14);not null"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Phone       string          `gorm:"type:varchar(20);not null"`
	Email       string          `gorm:"type:varchar(200);not null"`
	PhotoURL    string          `gorm:"column:photo_url;type:varchar(1000);not null"`
	Points      int64           `gorm:"not null;index:idx_customers_points,sort:desc"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *loyalty.Customer {
	return &loyalty.Customer{
		BaseAggregateRoot: m.ToAggregateRoot(),
		CPF:               m.CPF,
		LastUsedCPF:       m.LastUsedCPF,
		Name:              m.Name,
		Phone:             m.Phone,
		Email:             m.Email,
		PhotoURL:          m.PhotoURL,
		Points:            m.Points,
	}
}

// FromDomain populates the persistence model from a domain Customer
func (m *CustomerModel) FromDomain(c *loyalty.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.CPF = c.CPF
	m.LastUsedCPF = c.LastUsedCPF
	m.Name = c.Name
	m.Phone = c.Phone
	m.Email = c.Email
	m.PhotoURL = c.PhotoURL
	m.Points = c.Points
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer
func CustomerModelFromDomain(c *loyalty.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// PointsTransactionModel is the persistence model for loyalty.PointsTransaction
type PointsTransactionModel struct {
	BaseModel
	CustomerID   uuid.UUID                     `gorm:"type:uuid;not null;index:idx_points_tx_customer"`
	Type         loyalty.PointsTransactionType `gorm:"type:varchar(10);not null"`
	Points       int64                         `gorm:"not null"`
	BalanceAfter int64                         `gorm:"not null"`
	Reference    string                        `gorm:"type:varchar(50);not null"`
	Remark       string                        `gorm:"type:varchar(500);not null"`
	OperatorID   *uuid.UUID                    `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (PointsTransactionModel) TableName() string {
	return "points_transactions"
}

// ToDomain converts the persistence model to a domain PointsTransaction
func (m *PointsTransactionModel) ToDomain() *loyalty.PointsTransaction {
	return &loyalty.PointsTransaction{
		BaseEntity:   shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		CustomerID:   m.CustomerID,
		Type:         m.Type,
		Points:       m.Points,
		BalanceAfter: m.BalanceAfter,
		Reference:    m.Reference,
		Remark:       m.Remark,
		OperatorID:   m.OperatorID,
	}
}

// PointsTransactionModelFromDomain creates a new persistence model from a domain PointsTransaction
func PointsTransactionModelFromDomain(t *loyalty.PointsTransaction) *PointsTransactionModel {
	m := &PointsTransactionModel{
		CustomerID:   t.CustomerID,
		Type:         t.Type,
		Points:       t.Points,
		BalanceAfter: t.BalanceAfter,
		Reference:    t.Reference,
		Remark:       t.Remark,
		OperatorID:   t.OperatorID,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}
