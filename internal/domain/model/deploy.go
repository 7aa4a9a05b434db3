package model

import (
	"path"
	"strings"
)

// DeployStep names one stage of a deployment run.
type DeployStep string

const (
	DeployStepBuild  DeployStep = "build"
	DeployStepDeploy DeployStep = "deploy"
	DeployStepLogs   DeployStep = "logs"
)

// EnvVar is a plain (non-secret) runtime environment variable.
type EnvVar struct {
	Name  string
	Value string
}

// SecretBinding maps a secret manager entry into the deployed runtime, either
// as an environment variable or, when Target is an absolute path, as a mounted file.
type SecretBinding struct {
	Target  string
	Secret  string
	Version string
}

// IsMount reports whether the binding mounts the secret as a file.
func (b SecretBinding) IsMount() bool {
	return path.IsAbs(b.Target)
}

// Flag renders the binding in the TARGET=SECRET:VERSION form.
func (b SecretBinding) Flag() string {
	version := b.Version
	if version == "" {
		version = "latest"
	}
	return b.Target + "=" + b.Secret + ":" + version
}

// DeployPlan is the fully resolved description of one deployment.
type DeployPlan struct {
	Project              string
	Region               string
	Service              string
	Image                string
	SourceDir            string
	Port                 int
	AllowUnauthenticated bool
	Env                  []EnvVar
	Secrets              []SecretBinding
	LogLimit             int
}

// StandardSecretEnv lists the env vars the service reads from the secret store.
var StandardSecretEnv = []string{
	"JWT_SECRET_KEY",
	"DATABASE_URL",
	"TOKEN_ENCRYPTION_KEY",
	"GOOGLE_CLIENT_SECRET",
	"GOOGLE_REDIRECT_URIS",
}

// StandardSecretBindings returns bindings for StandardSecretEnv, naming each
// secret after its env var in lower-kebab-case.
func StandardSecretBindings() []SecretBinding {
	bindings := make([]SecretBinding, 0, len(StandardSecretEnv))
	for _, env := range StandardSecretEnv {
		bindings = append(bindings, SecretBinding{
			Target:  env,
			Secret:  strings.ReplaceAll(strings.ToLower(env), "_", "-"),
			Version: "latest",
		})
	}
	return bindings
}
