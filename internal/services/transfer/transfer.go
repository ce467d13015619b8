package transfer

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GalaDe/finance-link-service/internal/domain"
	"github.com/GalaDe/finance-link-service/internal/metrics"
	"github.com/GalaDe/finance-link-service/internal/services/dwolla"
)

type PaymentNetwork interface {
	CreateTransfer(ctx context.Context, params dwolla.TransferParams) (string, error)
}

type RecordStore interface {
	GetBank(ctx context.Context, documentID string) (*domain.BankAccount, error)
	GetBankByShareableID(ctx context.Context, shareableID string) (*domain.BankAccount, error)
}

type Request struct {
	SourceFundingSourceURL      string          `json:"source_funding_source_url"`
	DestinationFundingSourceURL string          `json:"destination_funding_source_url"`
	Amount                      decimal.Decimal `json:"amount"`
}

type Result struct {
	TransferURL string `json:"transfer_url"`
}

type Service struct {
	network PaymentNetwork
	store   RecordStore
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func New(network PaymentNetwork, store RecordStore, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		network: network,
		store:   store,
		metrics: m,
		logger:  logger,
	}
}

// Transfer moves req.Amount between two funding sources. Sufficiency of funds
// is left to the payment network.
func (s *Service) Transfer(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		s.record(err)
		return nil, err
	}

	location, err := s.network.CreateTransfer(ctx, dwolla.TransferParams{
		SourceFundingSourceURL:      req.SourceFundingSourceURL,
		DestinationFundingSourceURL: req.DestinationFundingSourceURL,
		Amount:                      req.Amount,
	})
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
		s.logger.Error("transfer failed",
			zap.String("source", req.SourceFundingSourceURL),
			zap.String("destination", req.DestinationFundingSourceURL),
			zap.Error(err))
		s.record(err)
		return nil, err
	}

	s.logger.Info("transfer created",
		zap.String("transfer_url", location),
		zap.String("amount", req.Amount.StringFixed(2)))
	s.record(nil)
	return &Result{TransferURL: location}, nil
}

// TransferBetweenAccounts resolves the sender's own record and the receiver's
// record by the shareable id they handed out, then transfers between their
// funding sources.
func (s *Service) TransferBetweenAccounts(ctx context.Context, senderBankID, receiverShareableID string, amount decimal.Decimal) (*Result, error) {
	if senderBankID == "" || receiverShareableID == "" {
		err := fmt.Errorf("%w: %w: sender and receiver are required", domain.ErrTransferFailed, domain.ErrValidationFailed)
		s.record(err)
		return nil, err
	}

	sender, err := s.store.GetBank(ctx, senderBankID)
	if err != nil {
		s.logger.Warn("sender bank not found", zap.String("bank_id", senderBankID), zap.Error(err))
		s.record(err)
		return nil, fmt.Errorf("%w: sender bank: %w", domain.ErrTransferFailed, err)
	}
	receiver, err := s.store.GetBankByShareableID(ctx, receiverShareableID)
	if err != nil {
		s.logger.Warn("receiver bank not found", zap.String("shareable_id", receiverShareableID), zap.Error(err))
		s.record(err)
		return nil, fmt.Errorf("%w: receiver bank: %w", domain.ErrTransferFailed, err)
	}

	return s.Transfer(ctx, Request{
		SourceFundingSourceURL:      sender.FundingSourceURL,
		DestinationFundingSourceURL: receiver.FundingSourceURL,
		Amount:                      amount,
	})
}

func validate(req Request) error {
	switch {
	case req.SourceFundingSourceURL == "" || req.DestinationFundingSourceURL == "":
		return fmt.Errorf("%w: %w: funding source urls are required", domain.ErrTransferFailed, domain.ErrValidationFailed)
	case !req.Amount.IsPositive():
		return fmt.Errorf("%w: %w: amount must be positive", domain.ErrTransferFailed, domain.ErrValidationFailed)
	case req.Amount.Exponent() < -2 && !req.Amount.Equal(req.Amount.Round(2)):
		return fmt.Errorf("%w: %w: amount has more than two decimal places", domain.ErrTransferFailed, domain.ErrValidationFailed)
	}
	return nil
}

func (s *Service) record(err error) {
	outcome := metrics.OutcomeComplete
	if err != nil {
		outcome = domain.KindOf(err)
	}
	s.metrics.Transfers.WithLabelValues(outcome).Inc()
}
