package loyalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/loyalty"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/pontos/backend/internal/domain/shared/valueobject"
	"github.com/pontos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ProfileService manages the customer record owned by a signed-in account.
// The record shares its ID with the account.
type ProfileService struct {
	customers loyalty.CustomerRepository
	accounts  AccountReader
	photos    PhotoStorage
	txManager shared.TransactionManager
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewProfileService creates a new ProfileService
func NewProfileService(
	customers loyalty.CustomerRepository,
	accounts AccountReader,
	photos PhotoStorage,
	txManager shared.TransactionManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		customers: customers,
		accounts:  accounts,
		photos:    photos,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
	}
}

// Get returns the caller's profile. Without a stored record the account's
// display name and email are returned with Exists=false.
func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	customer, err := s.customers.FindByID(ctx, userID)
	if err == nil {
		return toProfileDTO(customer), nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	user, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileDTO{
		ID:     userID,
		Exists: false,
		Name:   user.DisplayName,
		Email:  user.Email,
	}, nil
}

// Update merges the submitted fields into the caller's record, creating it
// if needed. The CPF can be set once; later submissions keep the stored one.
func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (profile *ProfileDTO, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ProfileService", "Update",
		telemetry.SpanAttrUserID, userID.String())
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

	user, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var photoURL string
	if input.Photo != nil {
		if len(input.Photo.Data) == 0 {
			return nil, loyalty.ErrPhotoRequired
		}
		photoURL, err = s.photos.Upload(ctx, PhotoKey(userID, input.Photo.Filename), input.Photo.Data, input.Photo.ContentType)
		if err != nil {
			s.logger.Error("Failed to upload profile photo",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			return nil, fmt.Errorf("upload profile photo: %w", err)
		}
	}

	var customer *loyalty.Customer
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		existing, txErr := s.customers.FindByID(ctx, userID)
		isNew := errors.Is(txErr, shared.ErrNotFound)
		switch {
		case isNew:
			customer = loyalty.NewCustomerWithID(userID)
		case txErr != nil:
			return txErr
		default:
			customer = existing
		}

		if !customer.HasCPF() {
			inUse, txErr := s.customers.ExistsByCPFExcludingID(ctx, cpf.String(), userID)
			if txErr != nil {
				return txErr
			}
			if inUse {
				return loyalty.ErrCPFInUseByUser
			}
			if txErr = customer.AssignCPF(cpf); txErr != nil {
				return txErr
			}
		}

		url := customer.PhotoURL
		if photoURL != "" {
			url = photoURL
		}
		if txErr = customer.UpdateProfile(input.Name, input.Phone, user.Email, url); txErr != nil {
			return txErr
		}

		if isNew {
			return s.customers.Save(ctx, customer)
		}
		return s.customers.SaveWithLock(ctx, customer)
	})
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			err = loyalty.ErrCPFInUseByUser
		}
		s.logger.Warn("Failed to update profile",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, err
	}

	publishEvents(ctx, s.publisher, s.logger, drainEvents(customer))
	s.logger.Info("Profile updated", zap.String("user_id", userID.String()))
	return toProfileDTO(customer), nil
}

func toProfileDTO(c *loyalty.Customer) *ProfileDTO {
	return &ProfileDTO{
		ID:           c.ID,
		Exists:       true,
		Name:         c.Name,
		Phone:        c.Phone,
		Email:        c.Email,
		CPF:          c.CPF.String(),
		FormattedCPF: c.CPF.Formatted(),
		PhotoURL:     c.PhotoURL,
		Points:       c.Points,
	}
}
