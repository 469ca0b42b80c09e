package loyalty

import (
	"context"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/shared"
)

// RankingFilter selects a page of the points ranking
type RankingFilter struct {
	// CPFContains matches any part of the raw CPF. Punctuation is ignored.
	CPFContains string
	Page        int
	PageSize    int
}

// CustomerRepository is a record store keyed by ID with lookup by raw CPF
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByCPF(ctx context.Context, cpf string) (*Customer, error)
	ExistsByCPF(ctx context.Context, cpf string) (bool, error)
	ExistsByCPFExcludingID(ctx context.Context, cpf string, excludeID uuid.UUID) (bool, error)

	// FindRanking returns customers ordered by points, highest first
	FindRanking(ctx context.Context, filter RankingFilter) ([]Customer, int64, error)

	// Save inserts or fully updates a customer
	Save(ctx context.Context, customer *Customer) error
	// SaveWithLock updates only if the stored version is the one the
	// aggregate was loaded at. A stale write returns shared.ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, customer *Customer) error
}

// PointsTransactionRepository stores the points ledger
type PointsTransactionRepository interface {
	Create(ctx context.Context, tx *PointsTransaction) error
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]PointsTransaction, int64, error)
}
