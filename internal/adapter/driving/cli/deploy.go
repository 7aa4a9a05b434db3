package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/integrations-hub/integrations/internal/application"
	"github.com/integrations-hub/integrations/internal/domain/model"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// deployFlags holds the raw flag values for one invocation.
type deployFlags struct {
	configPath  string
	project     string
	region      string
	service     string
	image       string
	source      string
	port        int
	allowUnauth bool
	logLimit    int
	withSecrets bool
	secrets     []string
	env         []string
	yes         bool
	dryRun      bool
}

func initDeployFlags(cmd *cobra.Command, deps Deps) {
	f := &deployFlags{}
	flags := cmd.Flags()

	flags.StringVar(&f.configPath, "config", defaultConfigPath, "Path to a TOML deploy config")
	flags.StringVar(&f.project, "project", "", "Google Cloud project id")
	flags.StringVar(&f.region, "region", "", "Cloud Run region (default us-central1)")
	flags.StringVar(&f.service, "service", "", "Cloud Run service name (default integrations-microservice)")
	flags.StringVar(&f.image, "image", "", "Container image (default gcr.io/<project>/<service>)")
	flags.StringVar(&f.source, "source", "", "Build context directory (default .)")
	flags.IntVar(&f.port, "port", 0, "Container port (default 8000)")
	flags.BoolVar(&f.allowUnauth, "allow-unauthenticated", true, "Allow unauthenticated invocations")
	flags.IntVar(&f.logLimit, "log-limit", 0, "Number of log lines to read after deploying (default 50)")
	flags.BoolVar(&f.withSecrets, "with-secrets", false, "Bind the standard secret set from Secret Manager")
	flags.StringArrayVar(&f.secrets, "secret", nil, "Extra secret binding TARGET=SECRET[:VERSION] (repeatable)")
	flags.StringArrayVar(&f.env, "env", nil, "Plain env var NAME=VALUE (repeatable)")
	flags.BoolVarP(&f.yes, "yes", "y", false, "Skip the confirmation prompt")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Print the gcloud commands without running them")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		plan, err := resolvePlan(cmd, f)
		if err != nil {
			return err
		}

		var confirm driven.Confirmer
		if !f.yes {
			confirm = newPromptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
		}

		svc := application.NewDeployService(deps.NewCloud(f.dryRun), confirm, cmd.OutOrStdout())
		return svc.Run(cmd.Context(), plan)
	}
}

// resolvePlan merges defaults, the config file and flags, in increasing priority.
func resolvePlan(cmd *cobra.Command, f *deployFlags) (model.DeployPlan, error) {
	explicit := cmd.Flags().Changed("config")
	fc, err := loadDeployConfig(f.configPath, explicit)
	if err != nil {
		return model.DeployPlan{}, err
	}

	plan := fc.plan()
	changed := cmd.Flags().Changed

	if changed("project") {
		plan.Project = f.project
	}
	if changed("region") {
		plan.Region = f.region
	}
	if changed("service") {
		plan.Service = f.service
	}
	if changed("image") {
		plan.Image = f.image
	}
	if changed("source") {
		plan.SourceDir = f.source
	}
	if changed("port") {
		plan.Port = f.port
	}
	if changed("allow-unauthenticated") {
		plan.AllowUnauthenticated = f.allowUnauth
	}
	if changed("log-limit") {
		plan.LogLimit = f.logLimit
	}

	for _, raw := range f.env {
		name, value, ok := strings.Cut(raw, "=")
		if !ok || name == "" {
			return model.DeployPlan{}, fmt.Errorf("invalid --env %q: want NAME=VALUE", raw)
		}
		plan.Env = setEnv(plan.Env, model.EnvVar{Name: name, Value: value})
	}

	if f.withSecrets || fc.WithSecrets {
		for _, b := range model.StandardSecretBindings() {
			plan.Secrets = setSecret(plan.Secrets, b)
		}
	}
	for _, raw := range f.secrets {
		b, err := parseSecretFlag(raw)
		if err != nil {
			return model.DeployPlan{}, err
		}
		plan.Secrets = setSecret(plan.Secrets, b)
	}

	if plan.Image == "" {
		if plan.Project == "" {
			return model.DeployPlan{}, fmt.Errorf("no image set: pass --image or --project")
		}
		plan.Image = fmt.Sprintf("gcr.io/%s/%s", plan.Project, plan.Service)
	}

	return plan, nil
}

// parseSecretFlag parses TARGET=SECRET[:VERSION].
func parseSecretFlag(raw string) (model.SecretBinding, error) {
	target, ref, ok := strings.Cut(raw, "=")
	if !ok || target == "" || ref == "" {
		return model.SecretBinding{}, fmt.Errorf("invalid --secret %q: want TARGET=SECRET[:VERSION]", raw)
	}
	secret, version, _ := strings.Cut(ref, ":")
	if secret == "" {
		return model.SecretBinding{}, fmt.Errorf("invalid --secret %q: empty secret name", raw)
	}
	return model.SecretBinding{Target: target, Secret: secret, Version: version}, nil
}

// setEnv replaces an existing variable of the same name or appends.
func setEnv(env []model.EnvVar, v model.EnvVar) []model.EnvVar {
	for i := range env {
		if env[i].Name == v.Name {
			env[i] = v
			return env
		}
	}
	return append(env, v)
}

// setSecret replaces an existing binding with the same target or appends.
func setSecret(secrets []model.SecretBinding, b model.SecretBinding) []model.SecretBinding {
	for i := range secrets {
		if secrets[i].Target == b.Target {
			secrets[i] = b
			return secrets
		}
	}
	return append(secrets, b)
}
