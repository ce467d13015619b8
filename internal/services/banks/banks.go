package banks

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/GalaDe/finance-link-service/internal/domain"
)

// Service serves the dashboard's bank-account listings. Per-user listings are
// cached until Invalidate is called for that user.
type Service struct {
	repository domain.Repository
	cache      *lru.Cache
	logger     *zap.Logger
}

func New(repository domain.Repository, cacheSize int, logger *zap.Logger) (*Service, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("bank listing cache: %w", err)
	}
	return &Service{
		repository: repository,
		cache:      cache,
		logger:     logger,
	}, nil
}

// GetBanks returns the user's bank accounts. Callers get their own copies, so
// modifying the result never touches the cached listing.
func (s *Service) GetBanks(ctx context.Context, userID string) ([]*domain.BankAccount, error) {
	if cached, ok := s.cache.Get(userID); ok {
		return clone(cached.([]*domain.BankAccount)), nil
	}

	banks, err := s.repository.GetBanks(ctx, userID)
	if err != nil {
		s.logger.Error("get banks failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	s.cache.Add(userID, clone(banks))
	return banks, nil
}

func clone(banks []*domain.BankAccount) []*domain.BankAccount {
	out := make([]*domain.BankAccount, len(banks))
	for i, b := range banks {
		c := *b
		out[i] = &c
	}
	return out
}

func (s *Service) GetBank(ctx context.Context, documentID string) (*domain.BankAccount, error) {
	bank, err := s.repository.GetBank(ctx, documentID)
	if err != nil {
		s.logger.Debug("get bank failed", zap.String("document_id", documentID), zap.Error(err))
		return nil, err
	}
	return bank, nil
}

func (s *Service) GetBankByAccountID(ctx context.Context, accountID string) (*domain.BankAccount, error) {
	bank, err := s.repository.GetBankByAccountID(ctx, accountID)
	if err != nil {
		s.logger.Debug("get bank by account id failed", zap.String("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return bank, nil
}

// Invalidate drops the cached listing for userID.
func (s *Service) Invalidate(userID string) {
	s.cache.Remove(userID)
}
