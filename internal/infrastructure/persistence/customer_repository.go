package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/loyalty"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/pontos/backend/internal/domain/shared/valueobject"
	"github.com/pontos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements loyalty.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*loyalty.Customer, error) {
	var model models.CustomerModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCPF finds a customer by raw CPF
func (r *GormCustomerRepository) FindByCPF(ctx context.Context, cpf string) (*loyalty.Customer, error) {
	if cpf == "" {
		return nil, shared.ErrNotFound
	}
	var model models.CustomerModel
	if err := conn(ctx, r.db).Where("cpf = ?", cpf).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByCPF checks whether any customer holds the raw CPF
func (r *GormCustomerRepository) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.CustomerModel{}).
		Where("cpf = ?", cpf).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByCPFExcludingID checks whether a customer other than excludeID holds the raw CPF
func (r *GormCustomerRepository) ExistsByCPFExcludingID(ctx context.Context, cpf string, excludeID uuid.UUID) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.CustomerModel{}).
		Where("cpf = ? AND id <> ?", cpf, excludeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindRanking returns a page of customers ordered by points, highest first.
// Ties fall back to the oldest record.
func (r *GormCustomerRepository) FindRanking(ctx context.Context, filter loyalty.RankingFilter) ([]loyalty.Customer, int64, error) {
	page := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize(0)

	query := conn(ctx, r.db).Model(&models.CustomerModel{})
	if digits := valueobject.StripNonDigits(filter.CPFContains); digits != "" {
		query = query.Where("cpf LIKE ?", "%"+digits+"%")
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CustomerModel
	if err := query.
		Order("points DESC").
		Order("created_at ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	customers := make([]loyalty.Customer, len(rows))
	for i := range rows {
		customers[i] = *rows[i].ToDomain()
	}
	return customers, total, nil
}

// Save inserts the customer or overwrites every column of the stored row.
// A CPF already held by another row yields shared.ErrAlreadyExists.
func (r *GormCustomerRepository) Save(ctx context.Context, customer *loyalty.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	if err := conn(ctx, r.db).Save(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists.WithCause(err)
		}
		return err
	}
	return nil
}

// SaveWithLock writes the customer only if the stored version is the one
// before the pending change
func (r *GormCustomerRepository) SaveWithLock(ctx context.Context, customer *loyalty.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	result := conn(ctx, r.db).
		Model(&models.CustomerModel{}).
		Where("id = ? AND version = ?", customer.ID, customer.Version-1).
		Select("cpf", "last_used_cpf", "name", "phone", "email", "photo_url", "points", "version", "updated_at").
		Updates(model)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists.WithCause(result.Error)
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Totals returns the number of customers and the sum of their balances
func (r *GormCustomerRepository) Totals(ctx context.Context) (int64, int64, error) {
	var row struct {
		Customers int64
		Points    int64
	}
	err := conn(ctx, r.db).
		Model(&models.CustomerModel{}).
		Select("COUNT(*) AS customers, COALESCE(SUM(points), 0) AS points").
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Customers, row.Points, nil
}

var _ loyalty.CustomerRepository = (*GormCustomerRepository)(nil)
