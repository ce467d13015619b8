package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GalaDe/finance-link-service/internal/domain"
)

// unconfiguredRepo stands in when DATABASE_URL is absent: reads come back
// empty and writes fail with ErrConfigurationMissing.
type unconfiguredRepo struct {
	logger *zap.Logger
}

func NewUnconfiguredRepo(logger *zap.Logger) domain.Repository {
	return &unconfiguredRepo{logger: logger}
}

func (u *unconfiguredRepo) warn(op string) {
	u.logger.Debug("backing store not configured", zap.String("op", op))
}

func (u *unconfiguredRepo) GetUserInfo(ctx context.Context, userID string) (*domain.User, error) {
	u.warn("GetUserInfo")
	return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
}

func (u *unconfiguredRepo) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	return nil, fmt.Errorf("create user: %w", domain.ErrConfigurationMissing)
}

func (u *unconfiguredRepo) CreateBankAccount(ctx context.Context, params domain.CreateBankAccountParams) (*domain.BankAccount, error) {
	return nil, fmt.Errorf("create bank account: %w", domain.ErrConfigurationMissing)
}

func (u *unconfiguredRepo) GetBanks(ctx context.Context, userID string) ([]*domain.BankAccount, error) {
	u.warn("GetBanks")
	return []*domain.BankAccount{}, nil
}

func (u *unconfiguredRepo) GetBank(ctx context.Context, documentID string) (*domain.BankAccount, error) {
	u.warn("GetBank")
	return nil, fmt.Errorf("bank %s: %w", documentID, domain.ErrNotFound)
}

func (u *unconfiguredRepo) GetBankByAccountID(ctx context.Context, accountID string) (*domain.BankAccount, error) {
	u.warn("GetBankByAccountID")
	return nil, fmt.Errorf("bank for account %s: %w", accountID, domain.ErrNotFound)
}

func (u *unconfiguredRepo) GetBankByShareableID(ctx context.Context, shareableID string) (*domain.BankAccount, error) {
	u.warn("GetBankByShareableID")
	return nil, fmt.Errorf("bank %s: %w", shareableID, domain.ErrNotFound)
}

// NoopTransactor runs the callback directly, for stores without transactions.
type NoopTransactor struct{}

func (NoopTransactor) WithinTransaction(ctx context.Context, txFunc func(ctx context.Context) error) error {
	return txFunc(ctx)
}
