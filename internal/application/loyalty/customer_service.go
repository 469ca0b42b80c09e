package loyalty

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/loyalty"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/pontos/backend/internal/domain/shared/valueobject"
	"github.com/pontos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CustomerService serves the staff view of customers
type CustomerService struct {
	customers    loyalty.CustomerRepository
	transactions loyalty.PointsTransactionRepository
	txManager    shared.TransactionManager
	publisher    shared.EventPublisher
	maxPageSize  int
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customers loyalty.CustomerRepository,
	transactions loyalty.PointsTransactionRepository,
	txManager shared.TransactionManager,
	publisher shared.EventPublisher,
	maxPageSize int,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customers:    customers,
		transactions: transactions,
		txManager:    txManager,
		publisher:    publisher,
		maxPageSize:  maxPageSize,
		logger:       logger,
	}
}

// List returns the ranking by points, highest first
func (s *CustomerService) List(ctx context.Context, input ListCustomersInput) (*shared.Paginated[RankingEntry], error) {
	page := shared.Filter{Page: input.Page, PageSize: input.PageSize}.Normalize(s.maxPageSize)
	filter := loyalty.RankingFilter{
		CPFContains: valueobject.StripNonDigits(input.CPF),
		Page:        page.Page,
		PageSize:    page.PageSize,
	}

	customers, total, err := s.customers.FindRanking(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to load customer ranking", zap.Error(err))
		return nil, err
	}

	offset := page.Offset()
	items := make([]RankingEntry, 0, len(customers))
	for i := range customers {
		c := &customers[i]
		items = append(items, RankingEntry{
			Position:     offset + i + 1,
			ID:           c.ID,
			Name:         c.ListName(),
			FormattedCPF: c.CPF.Formatted(),
			Phone:        c.Phone,
			Points:       c.Points,
			LastActivity: c.LastActivity(),
		})
	}
	result := shared.NewPaginated(items, total, page.Page, page.PageSize)
	return &result, nil
}

// GetByID returns one customer
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToCustomerDTO(customer)
	return &dto, nil
}

// Update overwrites the staff-editable fields. A points change is recorded
// in the ledger as an ADJUST entry.
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, operatorID uuid.UUID, input UpdateCustomerInput) (updated *CustomerDTO, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "CustomerService", "Update",
		telemetry.SpanAttrCustomerID, id.String())
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()

	digits := valueobject.StripNonDigits(input.CPF)
	if len(digits) != valueobject.CPFLength {
		return nil, loyalty.ErrCPFRequired
	}
	cpf, err := valueobject.NewCPF(digits)
	if err != nil {
		return nil, loyalty.ErrInvalidCPF
	}

	var customer *loyalty.Customer
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		customer, txErr = s.customers.FindByID(ctx, id)
		if txErr != nil {
			return txErr
		}

		if !customer.CPF.Equals(cpf) {
			inUse, txErr := s.customers.ExistsByCPF(ctx, cpf.String())
			if txErr != nil {
				return txErr
			}
			if inUse {
				return loyalty.ErrCPFInUse
			}
		}

		before := customer.Points
		if txErr = customer.Update(input.Name, input.Phone, input.Points, cpf); txErr != nil {
			return txErr
		}
		if txErr = s.customers.SaveWithLock(ctx, customer); txErr != nil {
			if errors.Is(txErr, shared.ErrAlreadyExists) {
				return loyalty.ErrCPFInUse
			}
			return txErr
		}

		delta := customer.Points - before
		if delta == 0 {
			return nil
		}
		entry, txErr := loyalty.NewPointsTransaction(customer.ID, loyalty.PointsTransactionAdjust, delta, customer.Points)
		if txErr != nil {
			return txErr
		}
		entry.WithReference(cpf.Formatted()).WithRemark("Ajuste manual").WithOperatorID(operatorID)
		return s.transactions.Create(ctx, entry)
	})
	if err != nil {
		s.logger.Warn("Failed to update customer",
			zap.String("customer_id", id.String()),
			zap.Error(err))
		return nil, err
	}

	publishEvents(ctx, s.publisher, s.logger, drainEvents(customer))
	s.logger.Info("Customer updated",
		zap.String("customer_id", id.String()),
		zap.String("operator_id", operatorID.String()))

	result := ToCustomerDTO(customer)
	return &result, nil
}
