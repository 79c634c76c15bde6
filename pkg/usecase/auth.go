package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/notelens/notelens/pkg/domain/model/auth"
)

// AuthUseCaseInterface verifies bearer credentials into identities
type AuthUseCaseInterface interface {
	VerifyCredential(ctx context.Context, credential string) (*auth.Identity, error)
	IsNoAuthn() bool
}

// AuthUseCase verifies JWT bearer credentials against the identity
// provider's published key set.
type AuthUseCase struct {
	issuer   string
	audience string
	jwksURI  string
	cache    *authCache
}

var _ AuthUseCaseInterface = &AuthUseCase{}

// AuthOption is a functional option for AuthUseCase
type AuthOption func(*AuthUseCase)

// WithJWKSURI overrides the key set URL derived from the issuer
func WithJWKSURI(uri string) AuthOption {
	return func(uc *AuthUseCase) {
		uc.jwksURI = uri
	}
}

// WithAudience requires the given audience claim in verified tokens
func WithAudience(audience string) AuthOption {
	return func(uc *AuthUseCase) {
		uc.audience = audience
	}
}

func NewAuthUseCase(issuer string, options ...AuthOption) (*AuthUseCase, error) {
	if issuer == "" {
		return nil, goerr.New("issuer is required")
	}

	uc := &AuthUseCase{
		issuer: issuer,
		cache:  newAuthCache(),
	}

	for _, opt := range options {
		opt(uc)
	}

	if uc.jwksURI == "" {
		uc.jwksURI = strings.TrimSuffix(issuer, "/") + "/.well-known/jwks.json"
	}

	return uc, nil
}

// IsNoAuthn returns false for regular AuthUseCase
func (uc *AuthUseCase) IsNoAuthn() bool {
	return false
}

// VerifyCredential parses and verifies the bearer JWT and returns the
// caller's identity. Any failure means the request is unauthenticated;
// callers map it to 401.
func (uc *AuthUseCase) VerifyCredential(ctx context.Context, credential string) (*auth.Identity, error) {
	if credential == "" {
		return nil, goerr.Wrap(ErrUnauthorized, "empty credential")
	}

	if id, ok := uc.cache.get(credential); ok {
		return id, nil
	}

	keySet, err := jwk.Fetch(ctx, uc.jwksURI)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch identity provider keys", goerr.V("jwks_uri", uc.jwksURI))
	}

	// Allow 10 seconds of clock skew to handle time synchronization differences
	parseOpts := []jwt.ParseOption{
		jwt.WithKeySet(keySet),
		jwt.WithValidate(true),
		jwt.WithIssuer(uc.issuer),
		jwt.WithAcceptableSkew(10 * time.Second),
	}
	if uc.audience != "" {
		parseOpts = append(parseOpts, jwt.WithAudience(uc.audience))
	}

	token, err := jwt.Parse([]byte(credential), parseOpts...)
	if err != nil {
		return nil, goerr.Wrap(ErrUnauthorized, "failed to parse or verify JWT token",
			goerr.V("cause", err.Error()))
	}

	sub := token.Subject()
	if sub == "" {
		return nil, goerr.Wrap(ErrUnauthorized, "sub claim not found in token")
	}

	var email, name string
	if v, ok := token.Get("email"); ok {
		email, _ = v.(string)
	}
	if v, ok := token.Get("name"); ok {
		name, _ = v.(string)
	}

	id := auth.NewIdentity(sub, email, name)
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid identity from token")
	}

	uc.cache.set(credential, id, token.Expiration())

	return id, nil
}
