package activity

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/GalaDe/finance-link-service/internal/domain"
	"github.com/GalaDe/finance-link-service/internal/services/linking"
	"github.com/GalaDe/finance-link-service/internal/services/transfer"
)

type Linker interface {
	Link(ctx context.Context, req linking.LinkRequest) (*linking.LinkResult, error)
}

type Transferrer interface {
	Transfer(ctx context.Context, req transfer.Request) (*transfer.Result, error)
	TransferBetweenAccounts(ctx context.Context, senderBankID, receiverShareableID string, amount decimal.Decimal) (*transfer.Result, error)
}

// Registry is the part of a worker (or test environment) activities register on.
type Registry interface {
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

type TemporalActivityPort struct {
	linker      Linker
	transferrer Transferrer
}

func NewTemporalActivityPort(linker Linker, transferrer Transferrer) *TemporalActivityPort {
	return &TemporalActivityPort{
		linker:      linker,
		transferrer: transferrer,
	}
}

const (
	LinkBankAccountActivity = "LinkBankAccountActivity"
	TransferActivity        = "TransferActivity"
)

func (a *TemporalActivityPort) RegisterActivities(r Registry) {
	r.RegisterActivityWithOptions(a.linkBankAccount, activity.RegisterOptions{Name: LinkBankAccountActivity})
	r.RegisterActivityWithOptions(a.transfer, activity.RegisterOptions{Name: TransferActivity})
}

// TransferInput carries either explicit funding source URLs or a sender bank
// id plus receiver shareable id.
type TransferInput struct {
	SourceFundingSourceURL      string          `json:"source_funding_source_url,omitempty"`
	DestinationFundingSourceURL string          `json:"destination_funding_source_url,omitempty"`
	SenderBankID                string          `json:"sender_bank_id,omitempty"`
	ReceiverShareableID         string          `json:"receiver_shareable_id,omitempty"`
	Amount                      decimal.Decimal `json:"amount"`
}

func (a *TemporalActivityPort) linkBankAccount(ctx context.Context, input linking.LinkRequest) (*linking.LinkResult, error) {
	res, err := a.linker.Link(ctx, input)
	if err != nil {
		return nil, nonRetryable(err)
	}
	return res, nil
}

func (a *TemporalActivityPort) transfer(ctx context.Context, input TransferInput) (*transfer.Result, error) {
	var (
		res *transfer.Result
		err error
	)
	if input.SenderBankID != "" || input.ReceiverShareableID != "" {
		res, err = a.transferrer.TransferBetweenAccounts(ctx, input.SenderBankID, input.ReceiverShareableID, input.Amount)
	} else {
		res, err = a.transferrer.Transfer(ctx, transfer.Request{
			SourceFundingSourceURL:      input.SourceFundingSourceURL,
			DestinationFundingSourceURL: input.DestinationFundingSourceURL,
			Amount:                      input.Amount,
		})
	}
	if err != nil {
		return nil, nonRetryable(err)
	}
	return res, nil
}

// FailureDetails travels with a failed activity so the caller can rebuild the
// domain error: every sentinel it matched and, for linking, the failed step.
type FailureDetails struct {
	Step     string   `json:"step,omitempty"`
	StepKind string   `json:"step_kind,omitempty"`
	Kinds    []string `json:"kinds"`
}

func nonRetryable(err error) error {
	details := FailureDetails{Kinds: domain.KindNames(err)}
	var stepErr *domain.StepError
	if errors.As(err, &stepErr) {
		details.Step = stepErr.Step
		if names := domain.KindNames(stepErr.Kind); len(names) > 0 {
			details.StepKind = names[0]
		}
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), domain.KindOf(err), err, details)
}
