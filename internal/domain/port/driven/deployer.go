package driven

import (
	"context"

	"github.com/integrations-hub/integrations/internal/domain/model"
)

// CloudDeployer drives the managed build and serverless platform. Each method
// blocks until the underlying tool exits and returns its failure unchanged so
// callers can recover the exit status.
type CloudDeployer interface {
	SubmitBuild(ctx context.Context, plan model.DeployPlan) error
	Deploy(ctx context.Context, plan model.DeployPlan) error
	ReadLogs(ctx context.Context, plan model.DeployPlan) error
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}
