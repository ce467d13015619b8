package workflow

import (
	"go.temporal.io/sdk/workflow"

	"github.com/GalaDe/finance-link-service/internal/services/transfer"
	activity "github.com/GalaDe/finance-link-service/internal/services/temporal/activity"
)

func transferWorkflow(ctx workflow.Context, input activity.TransferInput) (*transfer.Result, error) {
	ctx = workflow.WithActivityOptions(ctx, singleAttempt)

	var result *transfer.Result
	if err := workflow.ExecuteActivity(ctx, activity.TransferActivity, input).Get(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}
