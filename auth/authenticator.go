package auth

import (
	"context"
	"strings"
)

// Authenticator turns a session token into an identity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines.
// - Errors: rejected tokens return one of the package sentinels
//   (ErrMissingCredentials, ErrInvalidCredentials, ErrTokenExpired,
//   ErrTokenMalformed), possibly wrapped.
type Authenticator interface {
	// Name returns a unique identifier for this authenticator.
	Name() string

	// Authenticate validates token and returns the identity it carries.
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

// AuthenticatorFunc is an adapter to allow use of ordinary functions as Authenticators.
type AuthenticatorFunc struct {
	name string
	fn   func(ctx context.Context, token string) (*Identity, error)
}

// NewAuthenticatorFunc creates an AuthenticatorFunc.
func NewAuthenticatorFunc(name string, fn func(ctx context.Context, token string) (*Identity, error)) *AuthenticatorFunc {
	return &AuthenticatorFunc{name: name, fn: fn}
}

// Name returns the authenticator name.
func (f *AuthenticatorFunc) Name() string {
	return f.name
}

// Authenticate calls the function.
func (f *AuthenticatorFunc) Authenticate(ctx context.Context, token string) (*Identity, error) {
	return f.fn(ctx, token)
}

// Session authenticates token and returns ctx carrying the identity. An
// empty token yields the anonymous identity.
func Session(ctx context.Context, a Authenticator, token string) (context.Context, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return WithIdentity(ctx, AnonymousIdentity()), nil
	}
	id, err := a.Authenticate(ctx, token)
	if err != nil {
		return ctx, err
	}
	return WithIdentity(ctx, id), nil
}

var _ Authenticator = (*AuthenticatorFunc)(nil)
