// Package identity talks to the hosted identity provider that signs users
// in and issues the ID tokens the backend accepts.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotSignedIn is returned when an operation needs a signed-in user
var ErrNotSignedIn = errors.New("no user is signed in")

// User is the signed-in identity
type User struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Event is an auth observation: a user is signed in, or nobody is
type Event struct {
	ID   string
	User *User
	At   time.Time
}

// SignedIn reports whether the event carries a user
func (e Event) SignedIn() bool {
	return e.User != nil
}

// Provider is the identity provider capability set.
// Observe delivers the current state once, then every change, until ctx ends.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignOut(ctx context.Context) error
	IDToken(ctx context.Context, user *User, forceRefresh bool) (string, error)
	Observe(ctx context.Context) <-chan Event
	CurrentUser() *User
}

// Persistence keeps the signed-in user between runs. SaveUser(nil) forgets it.
type Persistence interface {
	LoadUser() (*User, error)
	SaveUser(user *User) error
}

// ProviderError is a failure reported by the identity provider
type ProviderError struct {
	Op         string
	StatusCode int
	Code       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.StatusCode, e.Code)
}
