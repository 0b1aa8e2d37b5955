package identity

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// DevSigningKey signs tokens of the in-memory provider unless overridden
const DevSigningKey = "pixgram-dev"

type memoryAccount struct {
	uid      string
	password string
}

// MemoryProvider is an in-process identity provider for development and
// tests. It issues HS256 ID tokens shaped like the hosted provider's.
type MemoryProvider struct {
	signingKey []byte
	persist    Persistence
	log        zerolog.Logger
	now        func() time.Time

	bc *broadcaster

	mu       sync.Mutex
	accounts map[string]memoryAccount
	issued   int
}

// NewMemoryProvider creates a provider with no accounts. persist may be nil.
func NewMemoryProvider(signingKey string, persist Persistence, log zerolog.Logger) (*MemoryProvider, error) {
	if signingKey == "" {
		signingKey = DevSigningKey
	}

	var current *User
	if persist != nil {
		u, err := persist.LoadUser()
		if err != nil {
			return nil, fmt.Errorf("failed to restore signed-in user: %w", err)
		}
		current = u
	}

	return &MemoryProvider{
		signingKey: []byte(signingKey),
		persist:    persist,
		log:        log,
		now:        time.Now,
		bc:         newBroadcaster(current),
		accounts:   make(map[string]memoryAccount),
	}, nil
}

// AddAccount registers an account without signing it in
func (m *MemoryProvider) AddAccount(email, password string) *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct := memoryAccount{uid: ulid.Make().String(), password: password}
	m.accounts[email] = acct
	return &User{UID: acct.uid, Email: email, RefreshToken: "refresh-" + acct.uid}
}

func (m *MemoryProvider) SignIn(ctx context.Context, email, password string) (*User, error) {
	m.mu.Lock()
	acct, ok := m.accounts[email]
	m.mu.Unlock()
	if !ok || acct.password != password {
		return nil, &ProviderError{Op: "sign in", StatusCode: http.StatusBadRequest, Code: "INVALID_LOGIN_CREDENTIALS"}
	}
	return m.signedIn(&User{UID: acct.uid, Email: email, RefreshToken: "refresh-" + acct.uid}), nil
}

func (m *MemoryProvider) SignUp(ctx context.Context, email, password string) (*User, error) {
	m.mu.Lock()
	_, exists := m.accounts[email]
	m.mu.Unlock()
	if exists {
		return nil, &ProviderError{Op: "sign up", StatusCode: http.StatusBadRequest, Code: "EMAIL_EXISTS"}
	}
	if len(password) < 6 {
		return nil, &ProviderError{Op: "sign up", StatusCode: http.StatusBadRequest, Code: "WEAK_PASSWORD : Password should be at least 6 characters"}
	}
	return m.signedIn(m.AddAccount(email, password)), nil
}

func (m *MemoryProvider) signedIn(user *User) *User {
	if m.persist != nil {
		if err := m.persist.SaveUser(user); err != nil {
			m.log.Warn().Err(err).Msg("Failed to persist signed-in user")
		}
	}
	m.bc.publish(user)
	return user
}

func (m *MemoryProvider) SignOut(ctx context.Context) error {
	if m.persist != nil {
		if err := m.persist.SaveUser(nil); err != nil {
			return fmt.Errorf("failed to forget signed-in user: %w", err)
		}
	}
	m.bc.publish(nil)
	return nil
}

// IDToken always mints a new token
func (m *MemoryProvider) IDToken(ctx context.Context, user *User, forceRefresh bool) (string, error) {
	if user == nil {
		return "", ErrNotSignedIn
	}

	m.mu.Lock()
	m.issued++
	m.mu.Unlock()

	now := m.now()
	claims := Claims{
		UserID: user.UID,
		Email:  user.Email,
		Name:   user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "pixgram-memory",
			Subject:   user.UID,
			ID:        ulid.Make().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.signingKey)
}

// Issued counts tokens minted so far
func (m *MemoryProvider) Issued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issued
}

// Publish pushes a sign-in state change to observers without touching
// accounts, the way a provider replays state at startup.
func (m *MemoryProvider) Publish(user *User) {
	m.bc.publish(user)
}

func (m *MemoryProvider) Observe(ctx context.Context) <-chan Event {
	return m.bc.observe(ctx)
}

func (m *MemoryProvider) CurrentUser() *User {
	return m.bc.currentUser()
}
