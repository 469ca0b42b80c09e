package loyalty

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/loyalty"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/pontos/backend/internal/domain/shared/valueobject"
	"github.com/pontos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	// DefaultMaxAttempts is how many times a conflicting registration is tried
	DefaultMaxAttempts = 3
	// DefaultIdempotencyTTL is how long an Idempotency-Key is remembered
	DefaultIdempotencyTTL = 24 * time.Hour

	idempotencyPrefix = "points:"
)

// ErrDuplicateRequest is returned when an Idempotency-Key was already used
var ErrDuplicateRequest = shared.NewDomainError("DUPLICATE_REQUEST", "Esta requisição já foi processada.")

// PointsServiceConfig tunes PointsService
type PointsServiceConfig struct {
	MaxPointsPerRegistration int64 // 0 means unlimited
	MaxAttempts              int
	IdempotencyTTL           time.Duration
	MaxPageSize              int
}

// DefaultPointsServiceConfig returns default configuration
func DefaultPointsServiceConfig() PointsServiceConfig {
	return PointsServiceConfig{
		MaxAttempts:    DefaultMaxAttempts,
		IdempotencyTTL: DefaultIdempotencyTTL,
		MaxPageSize:    100,
	}
}

// PointsService registers points against CPFs and reads the ledger
type PointsService struct {
	customers    loyalty.CustomerRepository
	transactions loyalty.PointsTransactionRepository
	txManager    shared.TransactionManager
	idempotency  shared.IdempotencyStore
	publisher    shared.EventPublisher
	config       PointsServiceConfig
	logger       *zap.Logger
}

// NewPointsService creates a new PointsService. idempotency and publisher may be nil.
func NewPointsService(
	customers loyalty.CustomerRepository,
	transactions loyalty.PointsTransactionRepository,
	txManager shared.TransactionManager,
	idempotency shared.IdempotencyStore,
	publisher shared.EventPublisher,
	config PointsServiceConfig,
	logger *zap.Logger,
) *PointsService {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.IdempotencyTTL <= 0 {
		config.IdempotencyTTL = DefaultIdempotencyTTL
	}
	return &PointsService{
		customers:    customers,
		transactions: transactions,
		txManager:    txManager,
		idempotency:  idempotency,
		publisher:    publisher,
		config:       config,
		logger:       logger,
	}
}

// AddPoints credits points to the customer holding the CPF, creating the
// customer on first use
func (s *PointsService) AddPoints(ctx context.Context, input AddPointsInput) (result *AddPointsResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "PointsService", "AddPoints",
		telemetry.SpanAttrPoints, input.Points)
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()

	cpf, err := valueobject.NewCPF(input.CPF)
	if err != nil {
		return nil, loyalty.ErrInvalidCPF
	}
	if input.Points <= 0 {
		return nil, loyalty.ErrInvalidPoints
	}
	if s.config.MaxPointsPerRegistration > 0 && input.Points > s.config.MaxPointsPerRegistration {
		return nil, shared.NewDomainError("POINTS_LIMIT_EXCEEDED", "Quantidade de pontos acima do limite permitido por registro.")
	}

	if input.IdempotencyKey != "" && s.idempotency != nil {
		key := idempotencyPrefix + input.IdempotencyKey
		marked, markErr := s.idempotency.MarkProcessed(ctx, key, s.config.IdempotencyTTL)
		switch {
		case markErr != nil:
			// Store unavailable: carry on without deduplication
			s.logger.Warn("Idempotency store unavailable", zap.Error(markErr))
		case !marked:
			s.logger.Info("Duplicate points registration rejected",
				zap.String("idempotency_key", input.IdempotencyKey))
			return nil, ErrDuplicateRequest
		default:
			defer func() {
				if err == nil {
					return
				}
				if relErr := s.idempotency.Release(context.WithoutCancel(ctx), key); relErr != nil {
					s.logger.Warn("Failed to release idempotency key", zap.Error(relErr))
				}
			}()
		}
	}

	var (
		customer *loyalty.Customer
		created  bool
	)
	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		telemetry.SetAttributes(span, telemetry.SpanAttrAttempt, attempt)
		err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
			var txErr error
			customer, created, txErr = s.credit(ctx, cpf, input)
			return txErr
		})
		if !isRetryable(err) {
			break
		}
		s.logger.Warn("Concurrent points registration, retrying",
			zap.String("cpf", cpf.Formatted()),
			zap.Int("attempt", attempt))
	}
	if err != nil {
		s.logger.Error("Failed to add points",
			zap.String("cpf", cpf.Formatted()),
			zap.Int64("points", input.Points),
			zap.Error(err))
		return nil, err
	}

	publishEvents(ctx, s.publisher, s.logger, drainEvents(customer))

	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerID, customer.ID.String(),
		telemetry.SpanAttrCreated, created)
	s.logger.Info("Points added",
		zap.String("customer_id", customer.ID.String()),
		zap.Int64("points", input.Points),
		zap.Int64("balance", customer.Points),
		zap.Bool("created", created))

	return &AddPointsResult{
		Customer:    ToCustomerDTO(customer),
		PointsAdded: input.Points,
		DisplayName: customer.DisplayName(),
		Created:     created,
	}, nil
}

// isRetryable reports whether another registration won a race: a stale
// version on update, or the same CPF inserted first.
func isRetryable(err error) bool {
	return errors.Is(err, shared.ErrConcurrencyConflict) || errors.Is(err, shared.ErrAlreadyExists)
}

// credit runs inside a transaction. It reloads the customer every time so a
// retried attempt starts from the committed balance.
func (s *PointsService) credit(ctx context.Context, cpf valueobject.CPF, input AddPointsInput) (*loyalty.Customer, bool, error) {
	customer, err := s.customers.FindByCPF(ctx, cpf.String())
	created := false
	switch {
	case errors.Is(err, shared.ErrNotFound):
		customer, err = loyalty.NewCustomer(cpf, input.Name, input.Points)
		if err != nil {
			return nil, false, err
		}
		if err := s.customers.Save(ctx, customer); err != nil {
			return nil, false, err
		}
		created = true
	case err != nil:
		return nil, false, err
	default:
		if err := customer.AddPoints(input.Points, cpf, input.Name); err != nil {
			return nil, false, err
		}
		if err := s.customers.SaveWithLock(ctx, customer); err != nil {
			return nil, false, err
		}
	}

	entry, err := loyalty.NewPointsTransaction(customer.ID, loyalty.PointsTransactionEarn, input.Points, customer.Points)
	if err != nil {
		return nil, false, err
	}
	entry.WithReference(cpf.Formatted()).WithOperatorID(input.OperatorID)
	if err := s.transactions.Create(ctx, entry); err != nil {
		return nil, false, err
	}
	return customer, created, nil
}

// ListTransactions returns a customer's ledger, newest first
func (s *PointsService) ListTransactions(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[TransactionDTO], error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, err
	}
	filter = filter.Normalize(s.config.MaxPageSize)

	entries, total, err := s.transactions.FindByCustomerID(ctx, customerID, filter)
	if err != nil {
		s.logger.Error("Failed to list points transactions",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
		return nil, err
	}

	items := make([]TransactionDTO, 0, len(entries))
	for i := range entries {
		items = append(items, ToTransactionDTO(&entries[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}
