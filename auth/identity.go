package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials means the email/password pair was rejected.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailExists means an account already uses the email.
	ErrEmailExists = errors.New("email already in use")
	// ErrAccountNotFound means no account exists for the uid.
	ErrAccountNotFound = errors.New("account not found")
)

// Identity is the account the provider vouches for.
type Identity struct {
	UID   string
	Email string
}

// IdentityProvider checks credentials and manages accounts. Profiles are
// kept separately in the record store, keyed by Identity.UID.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	CreateAccount(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context, uid string) error
	SetPassword(ctx context.Context, uid, password string) error
	DeleteAccount(ctx context.Context, uid string) error
}
