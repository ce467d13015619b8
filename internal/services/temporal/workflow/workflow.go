package workflow

import (
	"go.temporal.io/sdk/workflow"
)

const (
	LinkBankAccountWorkflow = "LinkBankAccountWorkflow"
	TransferWorkflow        = "TransferWorkflow"
)

// Registry is the part of a worker (or test environment) workflows register on.
type Registry interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
}

func RegisterWorkflows(r Registry) {
	r.RegisterWorkflowWithOptions(linkBankAccountWorkflow, workflow.RegisterOptions{Name: LinkBankAccountWorkflow})
	r.RegisterWorkflowWithOptions(transferWorkflow, workflow.RegisterOptions{Name: TransferWorkflow})
}
