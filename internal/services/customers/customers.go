package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/guregu/null"
	"go.uber.org/zap"

	"github.com/GalaDe/finance-link-service/internal/domain"
	"github.com/GalaDe/finance-link-service/internal/metrics"
	"github.com/GalaDe/finance-link-service/internal/services/dwolla"
)

type PaymentNetwork interface {
	CreateCustomer(ctx context.Context, customer dwolla.NewCustomer) (string, error)
}

type SignUpParams struct {
	UserID      string      `json:"userId"`
	Email       string      `json:"email"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Address1    string      `json:"address1"`
	Address2    null.String `json:"address2"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	PostalCode  string      `json:"postalCode"`
	DateOfBirth string      `json:"dateOfBirth"`
	SSN         string      `json:"ssn"`
}

type Service struct {
	network    PaymentNetwork
	repository domain.Repository
	transactor domain.Transactor
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func New(network PaymentNetwork, repository domain.Repository, transactor domain.Transactor,
	m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		network:    network,
		repository: repository,
		transactor: transactor,
		metrics:    m,
		logger:     logger,
	}
}

// Register creates the payment-network customer for a new user and stores
// the profile that links the two. A user id can be registered once.
func (s *Service) Register(ctx context.Context, params SignUpParams) (*domain.User, error) {
	if params.UserID == "" || params.Email == "" || params.FirstName == "" || params.LastName == "" {
		return nil, s.failed(fmt.Errorf("%w: user id, email and name are required", domain.ErrValidationFailed))
	}

	// The customer is created remotely before the profile is written, so an
	// unreadable store stops the registration here.
	if _, err := s.repository.GetUserInfo(ctx, params.UserID); err == nil {
		return nil, s.failed(fmt.Errorf("user %s: %w", params.UserID, domain.ErrDuplicate))
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Error("check existing user failed", zap.String("user_id", params.UserID), zap.Error(err))
		return nil, s.failed(fmt.Errorf("%w: %w", domain.ErrPersistFailed, err))
	}

	customerURL, err := s.network.CreateCustomer(ctx, dwolla.NewCustomer{
		FirstName:   params.FirstName,
		LastName:    params.LastName,
		Email:       params.Email,
		Type:        dwolla.CustomerTypePersonal,
		Address1:    params.Address1,
		City:        params.City,
		State:       params.State,
		PostalCode:  params.PostalCode,
		DateOfBirth: params.DateOfBirth,
		SSN:         params.SSN,
	})
	if err != nil {
		s.logger.Error("create customer failed", zap.String("user_id", params.UserID), zap.Error(err))
		return nil, s.failed(err)
	}
	if customerURL == "" {
		return nil, s.failed(fmt.Errorf("%w: customer has no location", domain.ErrNetworkCustomerFailed))
	}

	user := &domain.User{
		UserID:            params.UserID,
		Email:             params.Email,
		FirstName:         params.FirstName,
		LastName:          params.LastName,
		Address1:          params.Address1,
		Address2:          params.Address2,
		City:              params.City,
		State:             params.State,
		PostalCode:        params.PostalCode,
		DateOfBirth:       params.DateOfBirth,
		SSN:               params.SSN,
		DwollaCustomerID:  dwolla.ExtractCustomerID(customerURL),
		DwollaCustomerURL: customerURL,
	}

	var created *domain.User
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repository.GetUserInfo(ctx, params.UserID); err == nil {
			return fmt.Errorf("user %s: %w", params.UserID, domain.ErrDuplicate)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		u, err := s.repository.CreateUser(ctx, user)
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		s.logger.Warn("customer created without a user profile",
			zap.String("user_id", params.UserID),
			zap.String("customer_url", customerURL),
			zap.Error(err))
		if !errors.Is(err, domain.ErrDuplicate) {
			err = fmt.Errorf("%w: %w", domain.ErrPersistFailed, err)
		}
		return nil, s.failed(err)
	}

	s.metrics.CustomersRegistered.WithLabelValues(metrics.OutcomeComplete).Inc()
	s.logger.Info("customer registered",
		zap.String("user_id", created.UserID),
		zap.String("customer_id", created.DwollaCustomerID))
	return created, nil
}

func (s *Service) GetUserInfo(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repository.GetUserInfo(ctx, userID)
	if err != nil {
		s.logger.Debug("get user info failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *Service) failed(err error) error {
	outcome := domain.KindOf(err)
	if errors.Is(err, domain.ErrDuplicate) {
		outcome = "duplicate"
	}
	s.metrics.CustomersRegistered.WithLabelValues(outcome).Inc()
	return err
}
