package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/integrations-hub/integrations/internal/domain/model"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// DeployPrompt is the question asked before any cloud command runs.
const DeployPrompt = "Proceed with deployment? (y/n)"

// ErrCancelled is returned when the operator declines the deployment.
var ErrCancelled = errors.New("deployment cancelled")

// StepError reports which deployment step failed. Err is the underlying
// failure, typically carrying the tool's exit status.
type StepError struct {
	Step model.DeployStep
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// DeployService runs the confirm, build, deploy, logs sequence.
type DeployService struct {
	cloud   driven.CloudDeployer
	confirm driven.Confirmer
	out     io.Writer
}

// NewDeployService creates a new DeployService. A nil confirmer skips the prompt.
func NewDeployService(cloud driven.CloudDeployer, confirm driven.Confirmer, out io.Writer) *DeployService {
	if out == nil {
		out = io.Discard
	}
	return &DeployService{cloud: cloud, confirm: confirm, out: out}
}

// Run prints the plan, asks for confirmation and then executes each step in
// order. The first failing step stops the run; nothing is retried or undone.
func (s *DeployService) Run(ctx context.Context, plan model.DeployPlan) error {
	if err := ValidatePlan(plan); err != nil {
		return err
	}

	writePlanSummary(s.out, plan)

	if s.confirm != nil {
		ok, err := s.confirm.Confirm(DeployPrompt)
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if !ok {
			fmt.Fprintln(s.out, "Deployment cancelled.")
			return ErrCancelled
		}
	}

	steps := []struct {
		step model.DeployStep
		msg  string
		run  func(context.Context, model.DeployPlan) error
	}{
		{model.DeployStepBuild, "Building container image...", s.cloud.SubmitBuild},
		{model.DeployStepDeploy, "Deploying to Cloud Run...", s.cloud.Deploy},
		{model.DeployStepLogs, "Fetching recent logs...", s.cloud.ReadLogs},
	}

	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintln(s.out, st.msg)
		if err := st.run(ctx, plan); err != nil {
			return &StepError{Step: st.step, Err: err}
		}
	}

	fmt.Fprintln(s.out, "Deployment complete.")
	return nil
}

// ValidatePlan checks that a plan names everything the cloud commands need.
func ValidatePlan(plan model.DeployPlan) error {
	var missing []string
	if plan.Service == "" {
		missing = append(missing, "service")
	}
	if plan.Region == "" {
		missing = append(missing, "region")
	}
	if plan.Image == "" {
		missing = append(missing, "image")
	}
	if plan.SourceDir == "" {
		missing = append(missing, "source")
	}
	if len(missing) > 0 {
		return InvalidInputf("deploy plan is missing %s", strings.Join(missing, ", "))
	}
	if plan.Port < 1 || plan.Port > 65535 {
		return InvalidInputf("port %d out of range", plan.Port)
	}
	if plan.LogLimit < 1 {
		return InvalidInputf("log limit must be positive")
	}
	for _, s := range plan.Secrets {
		if s.Target == "" || s.Secret == "" {
			return InvalidInputf("secret binding needs both a target and a secret name")
		}
	}
	return nil
}

// ConfirmAnswer reports whether a raw prompt answer approves the deployment.
// Only "y", ignoring surrounding whitespace, does.
func ConfirmAnswer(answer string) bool {
	return strings.TrimSpace(answer) == "y"
}

func writePlanSummary(w io.Writer, plan model.DeployPlan) {
	fmt.Fprintln(w, "Deployment plan:")
	if plan.Project != "" {
		fmt.Fprintf(w, "  project:  %s\n", plan.Project)
	}
	fmt.Fprintf(w, "  service:  %s\n", plan.Service)
	fmt.Fprintf(w, "  region:   %s\n", plan.Region)
	fmt.Fprintf(w, "  image:    %s\n", plan.Image)
	fmt.Fprintf(w, "  source:   %s\n", plan.SourceDir)
	fmt.Fprintf(w, "  port:     %d\n", plan.Port)
	for _, e := range plan.Env {
		fmt.Fprintf(w, "  env:      %s\n", e.Name)
	}
	for _, s := range plan.Secrets {
		fmt.Fprintf(w, "  secret:   %s\n", s.Flag())
	}
}
