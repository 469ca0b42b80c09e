package loyalty

import (
	"time"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/shared"
)

// PointsTransactionType classifies a ledger entry
type PointsTransactionType string

const (
	// PointsTransactionEarn is a registration of earned points
	PointsTransactionEarn PointsTransactionType = "EARN"
	// PointsTransactionAdjust is an operator overwrite of the balance
	PointsTransactionAdjust PointsTransactionType = "ADJUST"
)

// IsValid returns true for known transaction types
func (t PointsTransactionType) IsValid() bool {
	switch t {
	case PointsTransactionEarn, PointsTransactionAdjust:
		return true
	}
	return false
}

// PointsTransaction is an immutable record of a balance change.
// Corrections are new entries, never edits.
type PointsTransaction struct {
	shared.BaseEntity
	CustomerID   uuid.UUID
	Type         PointsTransactionType
	Points       int64 // signed delta
	BalanceAfter int64
	Reference    string // formatted CPF used for the registration
	Remark       string
	OperatorID   *uuid.UUID
}

// NewPointsTransaction validates and builds a ledger entry
func NewPointsTransaction(customerID uuid.UUID, txType PointsTransactionType, points, balanceAfter int64) (*PointsTransaction, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid points transaction type")
	}
	if points == 0 {
		return nil, shared.NewDomainError("INVALID_POINTS", "Transaction points cannot be zero")
	}
	if txType == PointsTransactionEarn && points < 0 {
		return nil, ErrInvalidPoints
	}
	if balanceAfter < 0 {
		return nil, ErrNegativePoints
	}

	return &PointsTransaction{
		BaseEntity:   shared.NewBaseEntity(),
		CustomerID:   customerID,
		Type:         txType,
		Points:       points,
		BalanceAfter: balanceAfter,
	}, nil
}

// WithReference sets the reference for the transaction
func (t *PointsTransaction) WithReference(reference string) *PointsTransaction {
	t.Reference = reference
	return t
}

// WithRemark sets the remark for the transaction
func (t *PointsTransaction) WithRemark(remark string) *PointsTransaction {
	t.Remark = remark
	return t
}

// WithOperatorID records who performed the operation
func (t *PointsTransaction) WithOperatorID(operatorID uuid.UUID) *PointsTransaction {
	if operatorID != uuid.Nil {
		t.OperatorID = &operatorID
	}
	return t
}

// BalanceBefore derives the balance prior to this entry
func (t *PointsTransaction) BalanceBefore() int64 {
	return t.BalanceAfter - t.Points
}

// OccurredAt returns when the entry was recorded
func (t *PointsTransaction) OccurredAt() time.Time {
	return t.CreatedAt
}
