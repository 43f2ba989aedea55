package domain

import (
	"context"
	"errors"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Credentials binds a login email to the owning uid and its password hash.
// The hash never travels with the presence record.
type Credentials struct {
	Email        string
	UID          string
	PasswordHash string
}

// CredentialStore persists login credentials keyed by email.
type CredentialStore interface {
	SaveCredentials(ctx context.Context, creds Credentials) error
	LookupCredentials(ctx context.Context, email string) (Credentials, error)
}
