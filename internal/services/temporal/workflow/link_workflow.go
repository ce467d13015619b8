package workflow

import (
	"go.temporal.io/sdk/workflow"

	"github.com/GalaDe/finance-link-service/internal/services/linking"
	activity "github.com/GalaDe/finance-link-service/internal/services/temporal/activity"
)

/*
 The whole linking chain runs as one activity with a single attempt:
	public token -> access token -> account -> processor token -> funding source -> record
 A failure anywhere ends the workflow. A funding source created before the
 failure is left in place.
*/
func linkBankAccountWorkflow(ctx workflow.Context, input linking.LinkRequest) (*linking.LinkResult, error) {
	ctx = workflow.WithActivityOptions(ctx, singleAttempt)

	var result *linking.LinkResult
	if err := workflow.ExecuteActivity(ctx, activity.LinkBankAccountActivity, input).Get(ctx, &result); err != nil {
		workflow.GetLogger(ctx).Error("link bank account failed", "user_id", input.UserID, "error", err)
		return nil, err
	}
	return result, nil
}
