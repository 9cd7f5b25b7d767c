package identity

import (
	"context"
	"errors"
	"time"
)

// Identity is the verified caller attached to a request after the bearer
// check succeeds.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// Token is a signed bearer token with its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Provider owns account records and bearer-token verification. Handlers
// depend on this interface so tests can swap in a double.
type Provider interface {
	// CreateUser registers credentials and returns the issued identifier.
	CreateUser(ctx context.Context, email, password, name string) (string, error)
	// Authenticate exchanges credentials for a bearer token.
	Authenticate(ctx context.Context, email, password string) (Token, error)
	// Verify validates a bearer token and returns the caller identity.
	Verify(tokenStr string) (Identity, error)
}

var (
	// ErrInvalidToken covers malformed, expired and mis-issued tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when the email already has an account.
	ErrEmailTaken = errors.New("email already registered")
)
