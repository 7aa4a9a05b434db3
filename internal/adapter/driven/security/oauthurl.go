package security

import (
	"golang.org/x/oauth2"

	"github.com/integrations-hub/integrations/internal/domain/model"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AuthURLBuilder = (*GoogleAuthURLs)(nil)

// DefaultGoogleScopes are requested when no scopes are configured.
var DefaultGoogleScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/gmail.modify",
}

// GoogleOAuthConfig is the subset of Google client settings needed to build
// consent URLs.
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	AuthURI      string
	TokenURI     string
	RedirectURI  string
	Scopes       []string
}

// GoogleAuthURLs builds Google consent URLs for gmail and google connections.
// Only the URL is produced here; the code exchange happens elsewhere.
type GoogleAuthURLs struct {
	conf *oauth2.Config
}

// NewGoogleAuthURLs returns a builder, or nil when the client id, auth
// endpoint or redirect URI is missing. An empty scope list falls back to
// DefaultGoogleScopes.
func NewGoogleAuthURLs(cfg GoogleOAuthConfig) *GoogleAuthURLs {
	if cfg.ClientID == "" || cfg.AuthURI == "" || cfg.RedirectURI == "" {
		return nil
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = append([]string(nil), DefaultGoogleScopes...)
	}
	return &GoogleAuthURLs{conf: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURI,
			TokenURL: cfg.TokenURI,
		},
		RedirectURL: cfg.RedirectURI,
		Scopes:      scopes,
	}}
}

// AuthURL returns the consent URL for provider carrying state. Offline access
// and a forced consent prompt are requested so a refresh token is granted.
func (g *GoogleAuthURLs) AuthURL(provider, state string) (string, bool) {
	if g == nil || !model.Provider(provider).UsesGoogleOAuth() {
		return "", false
	}
	return g.conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	), true
}
