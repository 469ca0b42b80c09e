package loyalty

import (
	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/shared"
)

// AggregateTypeCustomer names the customer aggregate in events
const AggregateTypeCustomer = "Customer"

// Event type constants
const (
	EventTypeCustomerRegistered = "CustomerRegistered"
	EventTypeCustomerUpdated    = "CustomerUpdated"
	EventTypePointsAdded        = "PointsAdded"
	EventTypePointsAdjusted     = "PointsAdjusted"
)

// CustomerRegisteredEvent is published when a points registration creates a customer
type CustomerRegisteredEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	CPF        string    `json:"cpf"`
	Name       string    `json:"name,omitempty"`
}

func NewCustomerRegisteredEvent(c *Customer) *CustomerRegisteredEvent {
	return &CustomerRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerRegistered, AggregateTypeCustomer, c.ID),
		CustomerID:      c.ID,
		CPF:             c.CPF.String(),
		Name:            c.Name,
	}
}

// CustomerUpdatedEvent is published on operator edits and profile changes
type CustomerUpdatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	CPF        string    `json:"cpf,omitempty"`
	Name       string    `json:"name,omitempty"`
	Phone      string    `json:"phone,omitempty"`
}

func NewCustomerUpdatedEvent(c *Customer) *CustomerUpdatedEvent {
	return &CustomerUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerUpdated, AggregateTypeCustomer, c.ID),
		CustomerID:      c.ID,
		CPF:             c.CPF.String(),
		Name:            c.Name,
		Phone:           c.Phone,
	}
}

// PointsAddedEvent is published when points are credited
type PointsAddedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Points     int64     `json:"points"`
	Balance    int64     `json:"balance"`
}

func NewPointsAddedEvent(c *Customer, points int64) *PointsAddedEvent {
	return &PointsAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePointsAdded, AggregateTypeCustomer, c.ID),
		CustomerID:      c.ID,
		Points:          points,
		Balance:         c.Points,
	}
}

// PointsAdjustedEvent is published when an operator overwrites the balance
type PointsAdjustedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Delta      int64     `json:"delta"`
	Balance    int64     `json:"balance"`
}

func NewPointsAdjustedEvent(c *Customer, delta int64) *PointsAdjustedEvent {
	return &PointsAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePointsAdjusted, AggregateTypeCustomer, c.ID),
		CustomerID:      c.ID,
		Delta:           delta,
		Balance:         c.Points,
	}
}
