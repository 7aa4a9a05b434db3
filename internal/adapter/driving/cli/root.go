// Package cli implements the deployctl command tree.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/integrations-hub/integrations/internal/adapter/driven/gcloud"
	"github.com/integrations-hub/integrations/internal/application"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Deps are the collaborators the command tree needs. NewCloud is called once
// per run with the resolved dry-run setting.
type Deps struct {
	NewCloud func(dryRun bool) driven.CloudDeployer
}

// DefaultDeps wires the real gcloud CLI.
func DefaultDeps() Deps {
	return Deps{
		NewCloud: func(dryRun bool) driven.CloudDeployer {
			return gcloud.NewDeployer(dryRun)
		},
	}
}

// NewRootCmd builds the deployctl command tree. Invoked without a
// subcommand it runs a deployment.
func NewRootCmd(deps Deps) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deployctl",
		Short: "Build and deploy the integrations service to Cloud Run",
		Long: `deployctl builds the service image with Cloud Build, deploys it to
Cloud Run and prints the most recent log lines.

It asks for confirmation before running anything. Answer "y" to proceed;
any other answer cancels the deployment.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	initDeployFlags(rootCmd, deps)
	rootCmd.AddCommand(newKeygenCmd(), newVersionCmd())

	return rootCmd
}

// ExitCode maps the outcome of a command to a process exit status.
// Cancellation and generic failures exit 1; a failed gcloud step exits with
// that step's own status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, application.ErrCancelled) {
		return 1
	}
	var stepErr *application.StepError
	if errors.As(err, &stepErr) {
		return gcloud.ExitCode(stepErr.Err)
	}
	return 1
}
