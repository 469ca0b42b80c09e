package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/loyalty"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/pontos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const maxLedgerPageSize = 100

// GormPointsTransactionRepository implements loyalty.PointsTransactionRepository using GORM
type GormPointsTransactionRepository struct {
	db *gorm.DB
}

// NewGormPointsTransactionRepository creates a new GormPointsTransactionRepository
func NewGormPointsTransactionRepository(db *gorm.DB) *GormPointsTransactionRepository {
	return &GormPointsTransactionRepository{db: db}
}

// Create appends a ledger entry
func (r *GormPointsTransactionRepository) Create(ctx context.Context, tx *loyalty.PointsTransaction) error {
	return conn(ctx, r.db).Create(models.PointsTransactionModelFromDomain(tx)).Error
}

// FindByCustomerID returns a customer's ledger, newest first unless the filter orders otherwise
func (r *GormPointsTransactionRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]loyalty.PointsTransaction, int64, error) {
	filter = filter.Normalize(maxLedgerPageSize)
	query := conn(ctx, r.db).Model(&models.PointsTransactionModel{}).Where("customer_id = ?", customerID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, PointsTransactionSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var rows []models.PointsTransactionModel
	if err := query.
		Order(sortField + " " + sortOrder).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]loyalty.PointsTransaction, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, total, nil
}

var _ loyalty.PointsTransactionRepository = (*GormPointsTransactionRepository)(nil)
