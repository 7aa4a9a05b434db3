// Package config loads application configuration from environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Google endpoint defaults used when neither the env nor the client secrets
// file names them.
const (
	defaultGoogleAuthURI  = "https://accounts.google.com/o/oauth2/auth"
	defaultGoogleTokenURI = "https://oauth2.googleapis.com/token"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DatabaseURL        string
	TokenEncryptionKey string
	JWTSecretKey       string
	Port               int
	ListenAddr         string

	Google GoogleConfig

	LogLevel  string
	LogFormat string
	LogFile   string

	RateLimitRPS   float64
	RateLimitBurst int

	OAuthStateTTL           time.Duration
	OAuthStateSweepInterval time.Duration
}

// GoogleConfig holds the OAuth client registration for Google providers.
type GoogleConfig struct {
	ClientID                string
	ClientSecret            string
	AuthURI                 string
	TokenURI                string
	ProjectID               string
	AuthProviderX509CertURL string
	RedirectURIs            []string
	Scopes                  []string
	ClientSecretsFile       string
}

// RedirectURI returns the first registered redirect URI, or "".
func (g GoogleConfig) RedirectURI() string {
	if len(g.RedirectURIs) == 0 {
		return ""
	}
	return g.RedirectURIs[0]
}

// HasAuthSecret reports whether session tokens can be issued.
func (c *Config) HasAuthSecret() bool {
	return c.JWTSecretKey != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// A .env file in the working directory is read first; variables already present
// in the process environment win.
// Required: DATABASE_URL, TOKEN_ENCRYPTION_KEY.
// Optional variables with defaults: FASTAPIPORT (8000), LOG_LEVEL (info),
// LOG_FORMAT (text), RATE_LIMIT_RPS (20), RATE_LIMIT_BURST (40),
// OAUTH_STATE_TTL (5m), OAUTH_STATE_SWEEP_INTERVAL (1m).
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TokenEncryptionKey: strings.TrimSpace(os.Getenv("TOKEN_ENCRYPTION_KEY")),
		JWTSecretKey:       os.Getenv("JWT_SECRET_KEY"),
		LogLevel:           envOr("LOG_LEVEL", "info"),
		LogFormat:          envOr("LOG_FORMAT", "text"),
		LogFile:            os.Getenv("LOG_FILE"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.TokenEncryptionKey == "" {
		return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY environment variable is required")
	}

	var err error
	if cfg.Port, err = envInt("FASTAPIPORT", 8000); err != nil {
		return nil, err
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("FASTAPIPORT out of range: %d", cfg.Port)
	}
	cfg.ListenAddr = fmt.Sprintf("0.0.0.0:%d", cfg.Port)

	if cfg.RateLimitBurst, err = envInt("RATE_LIMIT_BURST", 40); err != nil {
		return nil, err
	}
	cfg.RateLimitRPS = 20
	if v, ok := os.LookupEnv("RATE_LIMIT_RPS"); ok {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("RATE_LIMIT_RPS has invalid number %q: %w", v, err)
		}
		cfg.RateLimitRPS = parsed
	}

	if cfg.OAuthStateTTL, err = envDuration("OAUTH_STATE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OAuthStateSweepInterval, err = envDuration("OAUTH_STATE_SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	if cfg.Google, err = loadGoogle(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadGoogle() (GoogleConfig, error) {
	g := GoogleConfig{
		ClientID:                os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret:            os.Getenv("GOOGLE_CLIENT_SECRET"),
		AuthURI:                 os.Getenv("GOOGLE_AUTH_URI"),
		TokenURI:                os.Getenv("GOOGLE_TOKEN_URI"),
		ProjectID:               os.Getenv("GOOGLE_PROJECT_ID"),
		AuthProviderX509CertURL: os.Getenv("GOOGLE_AUTH_PROVIDER_X509_CERT_URL"),
		ClientSecretsFile:       os.Getenv("GOOGLE_CLIENT_SECRETS_FILE"),
	}

	var err error
	if g.RedirectURIs, err = parseList("GOOGLE_REDIRECT_URIS"); err != nil {
		return g, err
	}
	if g.Scopes, err = parseList("GMAIL_OAUTH_SCOPES"); err != nil {
		return g, err
	}

	if g.ClientSecretsFile != "" {
		if err := g.fillFromSecretsFile(); err != nil {
			return g, err
		}
	}

	if g.AuthURI == "" {
		g.AuthURI = defaultGoogleAuthURI
	}
	if g.TokenURI == "" {
		g.TokenURI = defaultGoogleTokenURI
	}

	return g, nil
}

// clientSecretsFile mirrors the JSON Google issues for a web OAuth client.
type clientSecretsFile struct {
	Web struct {
		ClientID                string   `json:"client_id"`
		ProjectID               string   `json:"project_id"`
		AuthURI                 string   `json:"auth_uri"`
		TokenURI                string   `json:"token_uri"`
		AuthProviderX509CertURL string   `json:"auth_provider_x509_cert_url"`
		ClientSecret            string   `json:"client_secret"`
		RedirectURIs            []string `json:"redirect_uris"`
	} `json:"web"`
}

// fillFromSecretsFile copies values from the client secrets file into any
// field the environment left empty.
func (g *GoogleConfig) fillFromSecretsFile() error {
	data, err := os.ReadFile(g.ClientSecretsFile)
	if err != nil {
		return fmt.Errorf("read GOOGLE_CLIENT_SECRETS_FILE: %w", err)
	}

	var f clientSecretsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse GOOGLE_CLIENT_SECRETS_FILE: %w", err)
	}

	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&g.ClientID, f.Web.ClientID)
	fill(&g.ClientSecret, f.Web.ClientSecret)
	fill(&g.AuthURI, f.Web.AuthURI)
	fill(&g.TokenURI, f.Web.TokenURI)
	fill(&g.ProjectID, f.Web.ProjectID)
	fill(&g.AuthProviderX509CertURL, f.Web.AuthProviderX509CertURL)
	if len(g.RedirectURIs) == 0 {
		g.RedirectURIs = f.Web.RedirectURIs
	}

	return nil
}

// parseList accepts either a JSON array of strings or a comma-separated list.
func parseList(key string) ([]string, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return []string{}, nil
	}

	if strings.HasPrefix(v, "[") {
		var out []string
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("%s has invalid JSON list: %w", key, err)
		}
		return out, nil
	}

	out := []string{}
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out, nil
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid integer %q: %w", key, v, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
