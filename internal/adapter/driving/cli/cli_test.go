package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/integrations-hub/integrations/internal/adapter/driven/security"
	"github.com/integrations-hub/integrations/internal/application"
	"github.com/integrations-hub/integrations/internal/domain/model"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// fakeCloud records invocations and fails at failAt with err.
type fakeCloud struct {
	calls  []model.DeployStep
	plans  []model.DeployPlan
	failAt model.DeployStep
	err    error
	dryRun bool
}

func (f *fakeCloud) record(step model.DeployStep, plan model.DeployPlan) error {
	f.calls = append(f.calls, step)
	f.plans = append(f.plans, plan)
	if step == f.failAt {
		return f.err
	}
	return nil
}

func (f *fakeCloud) SubmitBuild(_ context.Context, p model.DeployPlan) error {
	return f.record(model.DeployStepBuild, p)
}

func (f *fakeCloud) Deploy(_ context.Context, p model.DeployPlan) error {
	return f.record(model.DeployStepDeploy, p)
}

func (f *fakeCloud) ReadLogs(_ context.Context, p model.DeployPlan) error {
	return f.record(model.DeployStepLogs, p)
}

// execute runs the command tree with args and stdin, returning output and error.
func execute(t *testing.T, cloud *fakeCloud, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	cmd := NewRootCmd(Deps{NewCloud: func(dryRun bool) driven.CloudDeployer {
		cloud.dryRun = dryRun
		return cloud
	}})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestDeploy_RefusalRunsNothing(t *testing.T) {
	for _, answer := range []string{"n\n", "\n", "yes\n", "Y\n", ""} {
		t.Run(strings.TrimSpace(answer), func(t *testing.T) {
			cloud := &fakeCloud{}

			out, err := execute(t, cloud, answer, "--project", "acme")

			assert.ErrorIs(t, err, application.ErrCancelled)
			assert.Equal(t, 1, ExitCode(err))
			assert.Empty(t, cloud.calls)
			assert.Contains(t, out, "Proceed with deployment? (y/n)")
		})
	}
}

func TestDeploy_AcceptRunsStepsInOrder(t *testing.T) {
	cloud := &fakeCloud{}

	_, err := execute(t, cloud, "y\n", "--project", "acme")

	require.NoError(t, err)
	assert.Equal(t, 0, ExitCode(err))
	assert.Equal(t, []model.DeployStep{model.DeployStepBuild, model.DeployStepDeploy, model.DeployStepLogs}, cloud.calls)

	plan := cloud.plans[0]
	assert.Equal(t, "gcr.io/acme/integrations-microservice", plan.Image)
	assert.Equal(t, "us-central1", plan.Region)
	assert.Equal(t, ".", plan.SourceDir)
	assert.Equal(t, 8000, plan.Port)
	assert.Equal(t, 50, plan.LogLimit)
	assert.True(t, plan.AllowUnauthenticated)
	assert.Empty(t, plan.Secrets)
}

func TestDeploy_StepFailureExitStatus(t *testing.T) {
	exitErr := exec.Command("sh", "-c", "exit 4").Run()
	require.Error(t, exitErr)

	cloud := &fakeCloud{failAt: model.DeployStepDeploy, err: exitErr}

	_, err := execute(t, cloud, "y\n", "--project", "acme")

	require.Error(t, err)
	assert.Equal(t, 4, ExitCode(err))
	assert.Equal(t, []model.DeployStep{model.DeployStepBuild, model.DeployStepDeploy}, cloud.calls)
}

func TestDeploy_YesSkipsPromptAndDryRunPropagates(t *testing.T) {
	cloud := &fakeCloud{}

	out, err := execute(t, cloud, "", "--project", "acme", "--yes", "--dry-run")

	require.NoError(t, err)
	assert.True(t, cloud.dryRun)
	assert.Len(t, cloud.calls, 3)
	assert.NotContains(t, out, "Proceed with deployment?")
}

func TestDeploy_WithSecretsAndOverrides(t *testing.T) {
	cloud := &fakeCloud{}

	_, err := execute(t, cloud, "y\n",
		"--image", "us-docker.pkg.dev/acme/svc/api:1",
		"--region", "europe-west1",
		"--with-secrets",
		"--secret", "/secrets/client_secret.json=google-client-secrets:3",
		"--secret", "DATABASE_URL=prod-database-url",
		"--env", "LOG_FORMAT=json",
		"--allow-unauthenticated=false",
	)

	require.NoError(t, err)
	plan := cloud.plans[0]
	assert.Equal(t, "us-docker.pkg.dev/acme/svc/api:1", plan.Image)
	assert.Equal(t, "europe-west1", plan.Region)
	assert.False(t, plan.AllowUnauthenticated)
	assert.Equal(t, []model.EnvVar{{Name: "LOG_FORMAT", Value: "json"}}, plan.Env)

	flags := make([]string, 0, len(plan.Secrets))
	for _, s := range plan.Secrets {
		flags = append(flags, s.Flag())
	}
	assert.Equal(t, []string{
		"JWT_SECRET_KEY=jwt-secret-key:latest",
		"DATABASE_URL=prod-database-url:latest",
		"TOKEN_ENCRYPTION_KEY=token-encryption-key:latest",
		"GOOGLE_CLIENT_SECRET=google-client-secret:latest",
		"GOOGLE_REDIRECT_URIS=google-redirect-uris:latest",
		"/secrets/client_secret.json=google-client-secrets:3",
	}, flags)
}

func TestDeploy_NoImageNoProject(t *testing.T) {
	cloud := &fakeCloud{}

	_, err := execute(t, cloud, "y\n")

	require.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))
	assert.Empty(t, cloud.calls)
}

func TestDeploy_BadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"--project", "acme", "--env", "NOEQUALS"},
		{"--project", "acme", "--secret", "TARGET"},
		{"--project", "acme", "--secret", "TARGET=:1"},
		{"--project", "acme", "unexpected-arg"},
	} {
		cloud := &fakeCloud{}
		_, err := execute(t, cloud, "y\n", args...)
		assert.Error(t, err, args)
		assert.Empty(t, cloud.calls)
	}
}

func TestDeploy_ConfigFile(t *testing.T) {
	cloud := &fakeCloud{}
	dir := t.TempDir()
	path := filepath.Join(dir, "prod.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
project = "acme"
region = "asia-east1"
service = "integrations"
allow_unauthenticated = false
log_limit = 10
with_secrets = true

[env]
LOG_LEVEL = "debug"
FASTAPIPORT = "8000"

[[secrets]]
target = "/secrets/client_secret.json"
secret = "google-client-secrets"
`), 0o600))

	_, err := execute(t, cloud, "y\n", "--config", path, "--region", "us-east1")

	require.NoError(t, err)
	plan := cloud.plans[0]
	assert.Equal(t, "acme", plan.Project)
	assert.Equal(t, "us-east1", plan.Region, "flag should override file")
	assert.Equal(t, "gcr.io/acme/integrations", plan.Image)
	assert.False(t, plan.AllowUnauthenticated)
	assert.Equal(t, 10, plan.LogLimit)
	assert.Equal(t, []model.EnvVar{{Name: "FASTAPIPORT", Value: "8000"}, {Name: "LOG_LEVEL", Value: "debug"}}, plan.Env)
	require.Len(t, plan.Secrets, 6)
	assert.True(t, plan.Secrets[0].IsMount())
}

func TestDeploy_MissingExplicitConfig(t *testing.T) {
	cloud := &fakeCloud{}

	_, err := execute(t, cloud, "y\n", "--config", filepath.Join(t.TempDir(), "absent.toml"))

	require.Error(t, err)
	assert.Empty(t, cloud.calls)
}

func TestKeygenCmd(t *testing.T) {
	out, err := execute(t, &fakeCloud{}, "", "keygen")

	require.NoError(t, err)
	key := strings.TrimSpace(out)
	_, err = security.NewFernetCipher(key)
	assert.NoError(t, err)
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := execute(t, &fakeCloud{}, "", "version")

	assert.NoError(t, err)
	assert.Contains(t, out, "deployctl version test-version-1.0.0")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(application.ErrCancelled))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 1, ExitCode(&application.StepError{Step: model.DeployStepBuild, Err: errors.New("not an exit")}))
}
