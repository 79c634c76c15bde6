package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/notelens/notelens/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Auth holds CLI flags for bearer token verification
type Auth struct {
	issuer     string
	audience   string
	jwksURI    string
	noAuthnUID string
}

// Flags returns CLI flags for authentication configuration
func (a *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "auth-issuer",
			Usage:       "Expected issuer of bearer tokens (e.g. https://your-tenant.example.com)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("NOTELENS_AUTH_ISSUER"),
			Destination: &a.issuer,
		},
		&cli.StringFlag{
			Name:        "auth-audience",
			Usage:       "Expected audience claim of bearer tokens (optional)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("NOTELENS_AUTH_AUDIENCE"),
			Destination: &a.audience,
		},
		&cli.StringFlag{
			Name:        "auth-jwks-uri",
			Usage:       "JWKS endpoint override (defaults to <issuer>/.well-known/jwks.json)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("NOTELENS_AUTH_JWKS_URI"),
			Destination: &a.jwksURI,
		},
		&cli.StringFlag{
			Name:        "no-auth",
			Usage:       "Skip authentication and run as the specified user ID (development only)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("NOTELENS_NO_AUTH"),
			Destination: &a.noAuthnUID,
		},
	}
}

// IsNoAuthnMode reports whether authentication is bypassed
func (a *Auth) IsNoAuthnMode() bool {
	return a.noAuthnUID != ""
}

// LogValue returns the configuration as a structured log value
func (a *Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("issuer", a.issuer),
		slog.String("audience", a.audience),
		slog.String("jwks_uri", a.jwksURI),
		slog.Bool("no_authn", a.IsNoAuthnMode()),
	)
}

// Configure builds the authentication use case from the configured
// flags. Exactly one of auth-issuer and no-auth must be set.
func (a *Auth) Configure() (usecase.AuthUseCaseInterface, error) {
	if a.IsNoAuthnMode() {
		if a.issuer != "" {
			return nil, goerr.New("no-auth and auth-issuer are mutually exclusive")
		}
		return usecase.NewNoAuthnUseCase(a.noAuthnUID, "", ""), nil
	}

	if a.issuer == "" {
		return nil, goerr.New("auth-issuer is required (or use no-auth for development)")
	}

	var opts []usecase.AuthOption
	if a.jwksURI != "" {
		opts = append(opts, usecase.WithJWKSURI(a.jwksURI))
	}
	if a.audience != "" {
		opts = append(opts, usecase.WithAudience(a.audience))
	}

	authUC, err := usecase.NewAuthUseCase(a.issuer, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure token verification")
	}

	return authUC, nil
}
