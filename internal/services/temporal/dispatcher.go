package temporal

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/client"
	sdktemporal "go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/GalaDe/finance-link-service/internal/domain"
	"github.com/GalaDe/finance-link-service/internal/services/linking"
	"github.com/GalaDe/finance-link-service/internal/services/temporal/activity"
	"github.com/GalaDe/finance-link-service/internal/services/temporal/workflow"
	"github.com/GalaDe/finance-link-service/internal/services/transfer"
)

// WorkflowStarter is the subset of client.Client the dispatcher needs.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Dispatcher runs linking and transfers as workflows and waits for their
// result, so it can stand in for the orchestrators behind the HTTP handlers.
type Dispatcher struct {
	starter   WorkflowStarter
	taskQueue string
	logger    *zap.Logger
}

func NewDispatcher(starter WorkflowStarter, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		starter:   starter,
		taskQueue: workflow.DefaultTaskQueue,
		logger:    logger,
	}
}

func (d *Dispatcher) Link(ctx context.Context, req linking.LinkRequest) (*linking.LinkResult, error) {
	var result *linking.LinkResult
	id := fmt.Sprintf("link-%s-%s", req.UserID, uuid.NewString())
	if err := d.run(ctx, id, workflow.LinkBankAccountWorkflow, req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Dispatcher) Transfer(ctx context.Context, req transfer.Request) (*transfer.Result, error) {
	return d.transfer(ctx, activity.TransferInput{
		SourceFundingSourceURL:      req.SourceFundingSourceURL,
		DestinationFundingSourceURL: req.DestinationFundingSourceURL,
		Amount:                      req.Amount,
	})
}

func (d *Dispatcher) TransferBetweenAccounts(ctx context.Context, senderBankID, receiverShareableID string, amount decimal.Decimal) (*transfer.Result, error) {
	return d.transfer(ctx, activity.TransferInput{
		SenderBankID:        senderBankID,
		ReceiverShareableID: receiverShareableID,
		Amount:              amount,
	})
}

func (d *Dispatcher) transfer(ctx context.Context, input activity.TransferInput) (*transfer.Result, error) {
	var result *transfer.Result
	if err := d.run(ctx, "transfer-"+uuid.NewString(), workflow.TransferWorkflow, input, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Dispatcher) run(ctx context.Context, id, name string, input, valuePtr interface{}) error {
	run, err := d.starter.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        id,
		TaskQueue: d.taskQueue,
	}, name, input)
	if err != nil {
		d.logger.Error("failed to start workflow", zap.String("workflow", name), zap.Error(err))
		return fmt.Errorf("start %s: %w", name, err)
	}

	d.logger.Info("started workflow",
		zap.String("workflow", name),
		zap.String("workflow_id", run.GetID()),
		zap.String("run_id", run.GetRunID()))

	if err := run.Get(ctx, valuePtr); err != nil {
		return KindError(err)
	}
	return nil
}

// KindError restores the domain error carried by a failed workflow: every
// sentinel the activity error matched, and the *domain.StepError for linking
// failures.
func KindError(err error) error {
	var appErr *sdktemporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}

	var details activity.FailureDetails
	if !appErr.HasDetails() || appErr.Details(&details) != nil {
		if sentinel := domain.ErrorForKind(appErr.Type()); sentinel != nil {
			return domain.WithKinds(err, sentinel)
		}
		return err
	}

	var sentinels []error
	for _, name := range details.Kinds {
		if sentinel := domain.ErrorForKind(name); sentinel != nil {
			sentinels = append(sentinels, sentinel)
		}
	}
	restored := domain.WithKinds(err, sentinels...)

	if details.Step != "" {
		if kind := domain.ErrorForKind(details.StepKind); kind != nil {
			return domain.NewStepError(details.Step, kind, restored)
		}
	}
	return restored
}
