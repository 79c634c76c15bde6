package usecase

import (
	"context"

	"github.com/notelens/notelens/pkg/domain/model/auth"
)

// NoAuthnUseCase provides authentication using a specified user (for development/testing)
type NoAuthnUseCase struct {
	sub   string
	email string
	name  string
}

var _ AuthUseCaseInterface = &NoAuthnUseCase{}

// NewNoAuthnUseCase creates a new NoAuthnUseCase instance with specified user info
func NewNoAuthnUseCase(sub, email, name string) *NoAuthnUseCase {
	return &NoAuthnUseCase{
		sub:   sub,
		email: email,
		name:  name,
	}
}

// VerifyCredential always returns the configured identity
func (uc *NoAuthnUseCase) VerifyCredential(ctx context.Context, credential string) (*auth.Identity, error) {
	return auth.NewIdentity(uc.sub, uc.email, uc.name), nil
}

// IsNoAuthn returns true for NoAuthnUseCase
func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}
