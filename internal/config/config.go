// Package config defines the necessary types to configure the application.
// An example config file config.yaml is provided in the repository.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash" yaml:",inline"`

	HTTP    HTTPServer `yaml:"http"`
	Gateway Gateway    `yaml:"gateway"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"5s"`
	// Origin is the upstream that authenticated requests are proxied to when
	// the gateway runs as a standalone HTTP server.
	Origin string `yaml:"origin" validate:"omitempty,url"`
}

type Gateway struct {
	// Parameters are the parameter store names of the identity settings.
	Parameters Parameters `yaml:"parameters"`
	// ParameterRegion pins the parameter store region. Empty uses the
	// region of the environment.
	ParameterRegion string `yaml:"parameterRegion"`
	// ConfigRefreshInterval bounds how long loaded identity settings are
	// reused. Zero keeps them for the lifetime of the process.
	ConfigRefreshInterval time.Duration `yaml:"configRefreshInterval" validate:"gte=0"`
	// TokenExchangeTimeout bounds the call to the token endpoint. Zero leaves
	// it to the platform.
	TokenExchangeTimeout time.Duration `yaml:"tokenExchangeTimeout" validate:"gte=0"`
	Scope                string        `yaml:"scope" validate:"required"`

	SessionCookie  CookieTemplate `yaml:"sessionCookie"`
	VerifierCookie CookieTemplate `yaml:"verifierCookie"`
}

type Parameters struct {
	ClientID       string `yaml:"clientID" validate:"required"`
	IdentityDomain string `yaml:"identityDomain" validate:"required"`
	PublicDomain   string `yaml:"publicDomain" validate:"required"`
}

// Names returns the parameter names in a fixed order, for a single batched lookup.
func (p Parameters) Names() []string {
	return []string{p.ClientID, p.IdentityDomain, p.PublicDomain}
}

// DefaultValues are applied before the configuration files are read.
func DefaultValues() map[string]any {
	return map[string]any{
		"http.address":         ":8080",
		"http.shutdownTimeout": "5s",

		"gateway.parameters.clientID":       "/mkmemoportal/cognito/client-id",
		"gateway.parameters.identityDomain": "/mkmemoportal/cognito/domain",
		"gateway.parameters.publicDomain":   "/mkmemoportal/cloudfront/domain",
		"gateway.scope":                     "openid email profile",

		"gateway.sessionCookie.name":     "mkmemoportal_access_token",
		"gateway.sessionCookie.maxAge":   3600,
		"gateway.sessionCookie.path":     "/",
		"gateway.sessionCookie.secure":   true,
		"gateway.sessionCookie.sameSite": string(CookieSameSiteLax),

		"gateway.verifierCookie.name":     "mkmemoportal_code_verifier",
		"gateway.verifierCookie.maxAge":   300,
		"gateway.verifierCookie.path":     "/",
		"gateway.verifierCookie.secure":   true,
		"gateway.verifierCookie.sameSite": string(CookieSameSiteLax),
	}
}

// Validate checks the fields the gateway cannot run without.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(c.HTTP); err != nil {
		return fmt.Errorf("validating http config: %w", err)
	}

	if err := v.Struct(c.Gateway); err != nil {
		return fmt.Errorf("validating gateway config: %w", err)
	}

	if c.Gateway.SessionCookie.Name == c.Gateway.VerifierCookie.Name {
		return fmt.Errorf("session and verifier cookies share the name %q", c.Gateway.SessionCookie.Name)
	}

	return nil
}
