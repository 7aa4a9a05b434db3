package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/integrations-hub/integrations/internal/domain/model"
)

const defaultConfigPath = "deploy.toml"

// Deploy defaults applied before the config file and flags.
const (
	defaultRegion   = "us-central1"
	defaultService  = "integrations-microservice"
	defaultSource   = "."
	defaultPort     = 8000
	defaultLogLimit = 50
)

// deployConfig is the on-disk shape of deploy.toml.
type deployConfig struct {
	Project              string            `toml:"project"`
	Region               string            `toml:"region"`
	Service              string            `toml:"service"`
	Image                string            `toml:"image"`
	Source               string            `toml:"source"`
	Port                 int               `toml:"port"`
	AllowUnauthenticated *bool             `toml:"allow_unauthenticated"`
	LogLimit             int               `toml:"log_limit"`
	WithSecrets          bool              `toml:"with_secrets"`
	Env                  map[string]string `toml:"env"`
	Secrets              []secretConfig    `toml:"secrets"`
}

type secretConfig struct {
	Target  string `toml:"target"`
	Secret  string `toml:"secret"`
	Version string `toml:"version"`
}

// loadDeployConfig reads path. A missing file is only an error when the path
// was given explicitly.
func loadDeployConfig(path string, explicit bool) (*deployConfig, error) {
	cfg := &deployConfig{}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read deploy config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse deploy config %s: %w", path, err)
	}
	return cfg, nil
}

// plan converts the file into a plan with defaults filled in. Env vars are
// ordered by name.
func (c *deployConfig) plan() model.DeployPlan {
	p := model.DeployPlan{
		Project:              c.Project,
		Region:               orString(c.Region, defaultRegion),
		Service:              orString(c.Service, defaultService),
		Image:                c.Image,
		SourceDir:            orString(c.Source, defaultSource),
		Port:                 orInt(c.Port, defaultPort),
		AllowUnauthenticated: true,
		LogLimit:             orInt(c.LogLimit, defaultLogLimit),
	}
	if c.AllowUnauthenticated != nil {
		p.AllowUnauthenticated = *c.AllowUnauthenticated
	}

	names := make([]string, 0, len(c.Env))
	for name := range c.Env {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p.Env = append(p.Env, model.EnvVar{Name: name, Value: c.Env[name]})
	}

	for _, s := range c.Secrets {
		p.Secrets = append(p.Secrets, model.SecretBinding{Target: s.Target, Secret: s.Secret, Version: s.Version})
	}

	return p
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
