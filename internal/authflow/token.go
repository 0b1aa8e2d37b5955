// Package authflow decides, on every sign-in state change and page load,
// whether to fetch a token, initialize the backend session, or redirect.
package authflow

import (
	"context"
	"fmt"

	"github.com/pixgram-dev/pixgram/internal/identity"
	"github.com/pixgram-dev/pixgram/internal/session"
)

// CredentialStore is the cached-token handle
type CredentialStore interface {
	Save(token string)
	Clear()
	Read() (string, bool)
}

// TokenIssuer mints ID tokens for a signed-in user
type TokenIssuer interface {
	IDToken(ctx context.Context, user *identity.User, forceRefresh bool) (string, error)
}

// SessionInitializer establishes the backend session
type SessionInitializer interface {
	Init(ctx context.Context, token string) (session.Info, error)
}

// Navigator is the current page
type Navigator interface {
	Path() string
	Redirect(target string) bool
	Done() <-chan struct{}
}

// IssueToken fetches a fresh ID token for user and caches it in store
func IssueToken(ctx context.Context, issuer TokenIssuer, store CredentialStore, user *identity.User) (string, error) {
	if user == nil {
		return "", identity.ErrNotSignedIn
	}
	token, err := issuer.IDToken(ctx, user, true)
	if err != nil {
		return "", fmt.Errorf("failed to get ID token: %w", err)
	}
	if token == "" {
		return "", fmt.Errorf("failed to get ID token: provider returned an empty token")
	}
	store.Save(token)
	return token, nil
}
