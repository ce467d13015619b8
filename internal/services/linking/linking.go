package linking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GalaDe/finance-link-service/internal/domain"
	"github.com/GalaDe/finance-link-service/internal/metrics"
	"github.com/GalaDe/finance-link-service/internal/services/dwolla"
	"github.com/GalaDe/finance-link-service/internal/services/plaid"
	"github.com/GalaDe/finance-link-service/internal/utils"
)

const (
	StepTokenExchange          = "TokenExchange"
	StepAccountDiscovery       = "AccountDiscovery"
	StepProcessorTokenIssuance = "ProcessorTokenIssuance"
	StepFundingSourceCreation  = "FundingSourceCreation"
	StepPersistRecord          = "PersistRecord"
	StepDone                   = "Done"

	ExchangeComplete = "complete"
)

var errFundingSourceUnresolved = errors.New("funding source location not resolved")

type Aggregator interface {
	CreateLinkToken(ctx context.Context, userID, clientName string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.ExchangeTokenResponse, error)
	GetPrimaryAccount(ctx context.Context, accessToken string) (*plaid.Account, error)
	CreateProcessorToken(ctx context.Context, accessToken, accountID, processor string) (string, error)
}

type PaymentNetwork interface {
	AddFundingSource(ctx context.Context, params dwolla.AddFundingSourceParams) (string, error)
}

type RecordStore interface {
	CreateBankAccount(ctx context.Context, params domain.CreateBankAccountParams) (*domain.BankAccount, error)
}

// ListingCache is notified once a link completes.
type ListingCache interface {
	Invalidate(userID string)
}

type LinkRequest struct {
	PublicToken      string `json:"public_token"`
	UserID           string `json:"user_id"`
	DwollaCustomerID string `json:"dwolla_customer_id"`
}

type LinkResult struct {
	PublicTokenExchange string              `json:"publicTokenExchange"`
	BankAccount         *domain.BankAccount `json:"bankAccount,omitempty"`
}

type Service struct {
	aggregator     Aggregator
	network        PaymentNetwork
	store          RecordStore
	cache          ListingCache
	shareableIDKey []byte
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

func New(aggregator Aggregator, network PaymentNetwork, store RecordStore, cache ListingCache,
	shareableIDKey []byte, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		aggregator:     aggregator,
		network:        network,
		store:          store,
		cache:          cache,
		shareableIDKey: shareableIDKey,
		metrics:        m,
		logger:         logger,
	}
}

// CreateLinkToken issues the one-time token the browser uses to open Link.
func (s *Service) CreateLinkToken(ctx context.Context, userID, clientName string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", domain.ErrValidationFailed)
	}
	return s.aggregator.CreateLinkToken(ctx, userID, clientName)
}

type linkState struct {
	req              LinkRequest
	accessToken      string
	itemID           string
	account          *plaid.Account
	processorToken   string
	fundingSourceURL string
	record           *domain.BankAccount
}

type step struct {
	name string
	kind error
	run  func(ctx context.Context, st *linkState) error
}

func (s *Service) steps() []step {
	return []step{
		{StepTokenExchange, domain.ErrExchangeFailed, s.exchangeToken},
		{StepAccountDiscovery, domain.ErrAccountFetchFailed, s.discoverAccount},
		{StepProcessorTokenIssuance, domain.ErrProcessorTokenFailed, s.issueProcessorToken},
		{StepFundingSourceCreation, domain.ErrFundingSourceFailed, s.createFundingSource},
		{StepPersistRecord, domain.ErrPersistFailed, s.persistRecord},
	}
}

// Link turns a public token into a funding source and a persisted bank
// account record. Steps run in order and the first failure ends the attempt:
// nothing is retried and nothing already created remotely is undone.
func (s *Service) Link(ctx context.Context, req LinkRequest) (*LinkResult, error) {
	if req.PublicToken == "" || req.UserID == "" || req.DwollaCustomerID == "" {
		return nil, fmt.Errorf("%w: public token, user id and customer id are required", domain.ErrValidationFailed)
	}

	st := &linkState{req: req}
	for _, stp := range s.steps() {
		if err := stp.run(ctx, st); err != nil {
			return nil, s.fail(stp, st, err)
		}
		s.logger.Debug("link step complete", zap.String("step", stp.name), zap.String("user_id", req.UserID))
	}

	s.cache.Invalidate(req.UserID)
	s.metrics.LinkAttempts.WithLabelValues(StepDone, metrics.OutcomeComplete).Inc()
	s.logger.Info("bank account linked",
		zap.String("user_id", req.UserID),
		zap.String("bank_account_id", st.record.ID),
		zap.String("funding_source_url", st.fundingSourceURL))

	return &LinkResult{
		PublicTokenExchange: ExchangeComplete,
		BankAccount:         st.record,
	}, nil
}

func (s *Service) fail(stp step, st *linkState, err error) error {
	stepErr := domain.NewStepError(stp.name, stp.kind, err)
	s.metrics.LinkAttempts.WithLabelValues(stp.name, domain.KindOf(stepErr)).Inc()
	s.logger.Error("linking failed",
		zap.String("step", stp.name),
		zap.String("user_id", st.req.UserID),
		zap.Error(err))

	if st.fundingSourceURL != "" {
		s.metrics.OrphanedFundingSources.Inc()
		s.logger.Warn("funding source created without a bank account record",
			zap.String("user_id", st.req.UserID),
			zap.String("funding_source_url", st.fundingSourceURL))
	}
	return stepErr
}

func (s *Service) exchangeToken(ctx context.Context, st *linkState) error {
	resp, err := s.aggregator.ExchangePublicToken(ctx, st.req.PublicToken)
	if err != nil {
		return err
	}
	st.accessToken = resp.AccessToken
	st.itemID = resp.ItemID
	return nil
}

func (s *Service) discoverAccount(ctx context.Context, st *linkState) error {
	account, err := s.aggregator.GetPrimaryAccount(ctx, st.accessToken)
	if err != nil {
		return err
	}
	st.account = account
	return nil
}

func (s *Service) issueProcessorToken(ctx context.Context, st *linkState) error {
	token, err := s.aggregator.CreateProcessorToken(ctx, st.accessToken, st.account.AccountID, plaid.ProcessorDwolla)
	if err != nil {
		return err
	}
	st.processorToken = token
	return nil
}

func (s *Service) createFundingSource(ctx context.Context, st *linkState) error {
	location, err := s.network.AddFundingSource(ctx, dwolla.AddFundingSourceParams{
		DwollaCustomerID: st.req.DwollaCustomerID,
		ProcessorToken:   st.processorToken,
		BankName:         st.account.Name,
	})
	if err != nil {
		return err
	}
	if location == "" {
		return errFundingSourceUnresolved
	}
	st.fundingSourceURL = location
	return nil
}

func (s *Service) persistRecord(ctx context.Context, st *linkState) error {
	shareableID, err := utils.ShareableID(s.shareableIDKey, st.account.AccountID)
	if err != nil {
		return err
	}

	record, err := s.store.CreateBankAccount(ctx, domain.CreateBankAccountParams{
		UserID:           st.req.UserID,
		BankID:           st.itemID,
		AccountID:        st.account.AccountID,
		AccessToken:      st.accessToken,
		FundingSourceURL: st.fundingSourceURL,
		ShareableID:      shareableID,
	})
	if err != nil {
		return err
	}
	st.record = record
	return nil
}
