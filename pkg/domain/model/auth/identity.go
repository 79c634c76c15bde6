package auth

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

// Identity is the verified caller of a request. It is established once
// by the authentication layer and carried through the request context.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

func NewIdentity(userID, email, name string) *Identity {
	return &Identity{
		UserID: userID,
		Email:  email,
		Name:   name,
	}
}

func (x *Identity) Validate() error {
	if x.UserID == "" {
		return goerr.New("identity has no user ID")
	}
	return nil
}

type ctxIdentityKey struct{}

// ContextWithIdentity returns a new context carrying the identity
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey{}, id)
}

// IdentityFrom extracts the identity from the context, or nil when the
// request was not authenticated
func IdentityFrom(ctx context.Context) *Identity {
	if id, ok := ctx.Value(ctxIdentityKey{}).(*Identity); ok {
		return id
	}
	return nil
}
