// Package auth defines the boundary to the external identity provider.
// Every operation is a validated pass-through: no retries, no custom
// protocol, generic error wrapping.
package auth

import (
	"context"
	"errors"
)

var (
	// ErrUnauthenticated is returned when no valid session is present.
	ErrUnauthenticated = errors.New("user not authenticated")

	// ErrInvalidCredentials is returned on a failed sign-in.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when signing up an existing address.
	ErrEmailTaken = errors.New("email already registered")
)

// Session identifies an authenticated user for the duration of a request.
type Session struct {
	UserID string
	Email  string
}

// UserUpdate carries optional fields for a profile/credentials update.
// Empty fields are left unchanged.
type UserUpdate struct {
	Email    string
	Password string
	FullName string
}

// Provider is the identity provider port.
type Provider interface {
	// SignUp registers a new user. The provider may require email
	// confirmation before the first sign-in.
	SignUp(ctx context.Context, email, password string) error

	// SignIn exchanges credentials for an access token.
	SignIn(ctx context.Context, email, password string) (accessToken string, err error)

	// MagicLink requests a one-time sign-in link for the address.
	MagicLink(ctx context.Context, email string) error

	// SignOut revokes the access token.
	SignOut(ctx context.Context, accessToken string) error

	// UpdateUser applies email/password/name changes for the token's user.
	UpdateUser(ctx context.Context, accessToken string, upd UserUpdate) error
}
