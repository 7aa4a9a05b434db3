// Package gcloud drives Cloud Build and Cloud Run through the gcloud CLI.
package gcloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/integrations-hub/integrations/internal/domain/model"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CloudDeployer = (*Deployer)(nil)

// Deployer runs gcloud commands, streaming their output. With DryRun set it
// only prints the command lines.
type Deployer struct {
	Binary string
	Stdout io.Writer
	Stderr io.Writer
	DryRun bool
}

// NewDeployer returns a Deployer invoking "gcloud" from PATH and writing to
// the process stdout and stderr.
func NewDeployer(dryRun bool) *Deployer {
	return &Deployer{Binary: "gcloud", Stdout: os.Stdout, Stderr: os.Stderr, DryRun: dryRun}
}

// SubmitBuild builds and pushes the image with Cloud Build.
func (d *Deployer) SubmitBuild(ctx context.Context, plan model.DeployPlan) error {
	return d.run(ctx, BuildArgs(plan))
}

// Deploy rolls the image out to Cloud Run.
func (d *Deployer) Deploy(ctx context.Context, plan model.DeployPlan) error {
	args, err := DeployArgs(plan)
	if err != nil {
		return err
	}
	return d.run(ctx, args)
}

// ReadLogs prints the most recent service log lines.
func (d *Deployer) ReadLogs(ctx context.Context, plan model.DeployPlan) error {
	return d.run(ctx, LogsArgs(plan))
}

func (d *Deployer) run(ctx context.Context, args []string) error {
	stdout := d.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := d.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	if d.DryRun {
		_, err := fmt.Fprintln(stdout, CommandLine(d.Binary, args))
		return err
	}

	cmd := exec.CommandContext(ctx, d.Binary, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", d.Binary, strings.Join(args[:min(len(args), 3)], " "), err)
	}
	return nil
}

// BuildArgs returns the arguments for "gcloud builds submit".
func BuildArgs(plan model.DeployPlan) []string {
	args := []string{"builds", "submit", "--tag", plan.Image}
	args = withProject(args, plan)
	return append(args, plan.SourceDir)
}

// DeployArgs returns the arguments for "gcloud run deploy".
func DeployArgs(plan model.DeployPlan) ([]string, error) {
	args := []string{
		"run", "deploy", plan.Service,
		"--image", plan.Image,
		"--region", plan.Region,
		"--platform", "managed",
		"--port", strconv.Itoa(plan.Port),
	}
	if plan.AllowUnauthenticated {
		args = append(args, "--allow-unauthenticated")
	}
	if len(plan.Env) > 0 {
		envFlag, err := envVarsFlag(plan.Env)
		if err != nil {
			return nil, err
		}
		args = append(args, "--set-env-vars", envFlag)
	}
	if len(plan.Secrets) > 0 {
		flags := make([]string, 0, len(plan.Secrets))
		for _, s := range plan.Secrets {
			flags = append(flags, s.Flag())
		}
		args = append(args, "--set-secrets", strings.Join(flags, ","))
	}
	return withProject(args, plan), nil
}

// LogsArgs returns the arguments for "gcloud run services logs read".
func LogsArgs(plan model.DeployPlan) []string {
	args := []string{
		"run", "services", "logs", "read", plan.Service,
		"--region", plan.Region,
		"--limit", strconv.Itoa(plan.LogLimit),
	}
	return withProject(args, plan)
}

func withProject(args []string, plan model.DeployPlan) []string {
	if plan.Project == "" {
		return args
	}
	return append(args, "--project", plan.Project)
}

// altDelimiters are tried in order when a value contains a comma.
var altDelimiters = []string{"@", "|", ";", "#", "~", "!", "%", "+"}

// envVarsFlag joins env vars with commas, switching to gcloud's ^DELIM^
// syntax with the first delimiter that appears in no pair when a value
// itself contains a comma.
func envVarsFlag(env []model.EnvVar) (string, error) {
	pairs := make([]string, 0, len(env))
	needsAlt := false
	for _, e := range env {
		if strings.Contains(e.Value, ",") {
			needsAlt = true
		}
		pairs = append(pairs, e.Name+"="+e.Value)
	}
	if !needsAlt {
		return strings.Join(pairs, ","), nil
	}

	for _, delim := range altDelimiters {
		free := true
		for _, p := range pairs {
			if strings.Contains(p, delim) {
				free = false
				break
			}
		}
		if free {
			return "^" + delim + "^" + strings.Join(pairs, delim), nil
		}
	}
	return "", fmt.Errorf("set env vars: no free delimiter among %q for values containing commas", strings.Join(altDelimiters, ""))
}

// CommandLine renders a command with POSIX shell quoting for display.
func CommandLine(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellQuote(binary))
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:=,@^+%", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ExitCode extracts the exit status of a failed command from err. It returns
// 0 for nil and 1 when err did not come from a process exit.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return code
		}
	}
	return 1
}
