package gcloud

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/integrations-hub/integrations/internal/domain/model"
)

func testPlan() model.DeployPlan {
	return model.DeployPlan{
		Project:              "acme",
		Region:               "us-central1",
		Service:              "integrations-microservice",
		Image:                "gcr.io/acme/integrations-microservice",
		SourceDir:            ".",
		Port:                 8000,
		AllowUnauthenticated: true,
		LogLimit:             50,
	}
}

func TestBuildArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"builds", "submit", "--tag", "gcr.io/acme/integrations-microservice", "--project", "acme", "."},
		BuildArgs(testPlan()))

	p := testPlan()
	p.Project = ""
	assert.Equal(t,
		[]string{"builds", "submit", "--tag", "gcr.io/acme/integrations-microservice", "."},
		BuildArgs(p))
}

func TestDeployArgs(t *testing.T) {
	p := testPlan()
	p.Env = []model.EnvVar{{Name: "FASTAPIPORT", Value: "8000"}, {Name: "LOG_FORMAT", Value: "json"}}
	p.Secrets = []model.SecretBinding{
		{Target: "DATABASE_URL", Secret: "database-url"},
		{Target: "/secrets/client_secret.json", Secret: "google-client-secrets-file", Version: "2"},
	}

	args, err := DeployArgs(p)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"run", "deploy", "integrations-microservice",
		"--image", "gcr.io/acme/integrations-microservice",
		"--region", "us-central1",
		"--platform", "managed",
		"--port", "8000",
		"--allow-unauthenticated",
		"--set-env-vars", "FASTAPIPORT=8000,LOG_FORMAT=json",
		"--set-secrets", "DATABASE_URL=database-url:latest,/secrets/client_secret.json=google-client-secrets-file:2",
		"--project", "acme",
	}, args)
}

func TestDeployArgs_NoAuthNoExtras(t *testing.T) {
	p := testPlan()
	p.AllowUnauthenticated = false
	p.Project = ""

	args, err := DeployArgs(p)
	require.NoError(t, err)
	assert.NotContains(t, args, "--allow-unauthenticated")
	assert.NotContains(t, args, "--set-env-vars")
	assert.NotContains(t, args, "--set-secrets")
	assert.NotContains(t, args, "--project")
}

func TestEnvVarsFlag(t *testing.T) {
	tests := []struct {
		name string
		env  []model.EnvVar
		want string
	}{
		{
			name: "plain",
			env:  []model.EnvVar{{Name: "A", Value: "1"}, {Name: "B", Value: "x@y"}},
			want: "A=1,B=x@y",
		},
		{
			name: "comma switches to at",
			env:  []model.EnvVar{{Name: "GMAIL_OAUTH_SCOPES", Value: "a,b"}, {Name: "LOG_LEVEL", Value: "debug"}},
			want: "^@^GMAIL_OAUTH_SCOPES=a,b@LOG_LEVEL=debug",
		},
		{
			name: "at in value skips to pipe",
			env: []model.EnvVar{
				{Name: "DATABASE_URL", Value: "postgres://u:p@db/app?options=a,b"},
				{Name: "LOG_LEVEL", Value: "debug"},
			},
			want: "^|^DATABASE_URL=postgres://u:p@db/app?options=a,b|LOG_LEVEL=debug",
		},
		{
			name: "at and pipe taken",
			env:  []model.EnvVar{{Name: "A", Value: "u@h,x|y"}, {Name: "B", Value: "2"}},
			want: "^;^A=u@h,x|y;B=2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := envVarsFlag(tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			if strings.HasPrefix(got, "^") {
				delim := got[1:2]
				assert.Len(t, strings.Split(got[3:], delim), len(tt.env))
			}
		})
	}
}

func TestEnvVarsFlag_NoFreeDelimiter(t *testing.T) {
	_, err := envVarsFlag([]model.EnvVar{{Name: "A", Value: ",@|;#~!%+"}})
	require.Error(t, err)

	p := testPlan()
	p.Env = []model.EnvVar{{Name: "A", Value: ",@|;#~!%+"}}
	_, err = DeployArgs(p)
	require.Error(t, err)

	var out bytes.Buffer
	d := &Deployer{Binary: "gcloud", Stdout: &out, DryRun: true}
	require.Error(t, d.Deploy(context.Background(), p))
	assert.Empty(t, out.String())
}

func TestLogsArgs(t *testing.T) {
	assert.Equal(t, []string{
		"run", "services", "logs", "read", "integrations-microservice",
		"--region", "us-central1", "--limit", "50", "--project", "acme",
	}, LogsArgs(testPlan()))
}

func TestCommandLine(t *testing.T) {
	assert.Equal(t, "gcloud run deploy svc --set-env-vars 'A=hello world'",
		CommandLine("gcloud", []string{"run", "deploy", "svc", "--set-env-vars", "A=hello world"}))
	assert.Equal(t, `echo 'it'\''s' ''`, CommandLine("echo", []string{"it's", ""}))
}

func TestDeployer_DryRun(t *testing.T) {
	var out bytes.Buffer
	d := &Deployer{Binary: "gcloud", Stdout: &out, DryRun: true}
	ctx := context.Background()

	require.NoError(t, d.SubmitBuild(ctx, testPlan()))
	require.NoError(t, d.Deploy(ctx, testPlan()))
	require.NoError(t, d.ReadLogs(ctx, testPlan()))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, "gcloud builds submit --tag gcr.io/acme/integrations-microservice --project acme .", string(lines[0]))
	assert.Contains(t, string(lines[1]), "gcloud run deploy integrations-microservice")
	assert.Contains(t, string(lines[2]), "gcloud run services logs read")
}

// fakeGcloud writes a shell script standing in for gcloud that echoes its
// arguments and exits with code.
func fakeGcloud(t *testing.T, code int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "gcloud")
	script := "#!/bin/sh\necho \"$@\"\nexit " + strconv.Itoa(code) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestDeployer_ExecStreamsOutput(t *testing.T) {
	var out bytes.Buffer
	d := &Deployer{Binary: fakeGcloud(t, 0), Stdout: &out}

	require.NoError(t, d.ReadLogs(context.Background(), testPlan()))
	assert.Contains(t, out.String(), "run services logs read integrations-microservice")
}

func TestDeployer_ExecExitCode(t *testing.T) {
	d := &Deployer{Binary: fakeGcloud(t, 7)}

	err := d.SubmitBuild(context.Background(), testPlan())

	require.Error(t, err)
	assert.Equal(t, 7, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("not a process error")))
}
