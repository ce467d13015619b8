package workflow

import (
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

const (
	DefaultActivityTimeout = 120 * time.Second
	DefaultTaskQueue       = "finance-link-task-queue"
)

var (
	// Linking and transfers are never retried: none of the payment-network
	// calls carry an idempotency key.
	RetryPolicy1Attempt = &temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    time.Second * 100,
		MaximumAttempts:    1,
	}

	singleAttempt = workflow.ActivityOptions{
		StartToCloseTimeout: DefaultActivityTimeout,
		RetryPolicy:         RetryPolicy1Attempt,
	}
)

func NewWorker(t client.Client) worker.Worker {
	return worker.New(t, DefaultTaskQueue, worker.Options{
		MaxConcurrentActivityTaskPollers: 8, // Default is 2
		MaxConcurrentWorkflowTaskPollers: 8, // Default is 2
	})
}
