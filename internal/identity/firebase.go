package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultIdentityURL = "https://identitytoolkit.googleapis.com"
	DefaultTokenURL    = "https://securetoken.googleapis.com"

	// refresh a cached ID token this long before it expires
	tokenExpirySkew = 5 * time.Minute
)

// FirebaseConfig configures the REST endpoints of the provider
type FirebaseConfig struct {
	APIKey      string
	IdentityURL string
	TokenURL    string
}

type cachedToken struct {
	value   string
	expires time.Time
}

// FirebaseProvider signs users in with email and password against the
// Identity Toolkit REST API and refreshes ID tokens via Secure Token.
type FirebaseProvider struct {
	cfg        FirebaseConfig
	httpClient *http.Client
	persist    Persistence
	log        zerolog.Logger
	now        func() time.Time

	bc *broadcaster

	mu     sync.Mutex
	tokens map[string]cachedToken
}

// NewFirebaseProvider restores the persisted user, if any, and returns the provider
func NewFirebaseProvider(cfg FirebaseConfig, httpClient *http.Client, persist Persistence, log zerolog.Logger) (*FirebaseProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("firebase API key is required")
	}
	if cfg.IdentityURL == "" {
		cfg.IdentityURL = DefaultIdentityURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	cfg.IdentityURL = strings.TrimRight(cfg.IdentityURL, "/")
	cfg.TokenURL = strings.TrimRight(cfg.TokenURL, "/")

	current, err := persist.LoadUser()
	if err != nil {
		return nil, fmt.Errorf("failed to restore signed-in user: %w", err)
	}

	return &FirebaseProvider{
		cfg:        cfg,
		httpClient: httpClient,
		persist:    persist,
		log:        log.With().Str("component", "identity").Logger(),
		now:        time.Now,
		bc:         newBroadcaster(current),
		tokens:     make(map[string]cachedToken),
	}, nil
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn signs in with email and password
func (f *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*User, error) {
	return f.passwordFlow(ctx, "sign in", "accounts:signInWithPassword", email, password)
}

// SignUp creates the account and signs it in
func (f *FirebaseProvider) SignUp(ctx context.Context, email, password string) (*User, error) {
	return f.passwordFlow(ctx, "sign up", "accounts:signUp", email, password)
}

func (f *FirebaseProvider) passwordFlow(ctx context.Context, op, method, email, password string) (*User, error) {
	endpoint := fmt.Sprintf("%s/v1/%s?key=%s", f.cfg.IdentityURL, method, url.QueryEscape(f.cfg.APIKey))

	jsonData, err := json.Marshal(passwordRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out passwordResponse
	if err := f.do(op, req, &out); err != nil {
		return nil, err
	}

	user := &User{
		UID:          out.LocalID,
		Email:        out.Email,
		DisplayName:  out.DisplayName,
		RefreshToken: out.RefreshToken,
	}
	f.cacheToken(user.UID, out.IDToken, out.ExpiresIn)

	if err := f.persist.SaveUser(user); err != nil {
		f.log.Warn().Err(err).Msg("Failed to persist signed-in user")
	}
	f.log.Debug().Str("uid", user.UID).Str("op", op).Msg("Signed in")
	f.bc.publish(user)
	return user, nil
}

// SignOut forgets the signed-in user
func (f *FirebaseProvider) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.tokens = make(map[string]cachedToken)
	f.mu.Unlock()

	if err := f.persist.SaveUser(nil); err != nil {
		return fmt.Errorf("failed to forget signed-in user: %w", err)
	}
	f.bc.publish(nil)
	return nil
}

// IDToken returns an ID token for user; forceRefresh always asks the provider
func (f *FirebaseProvider) IDToken(ctx context.Context, user *User, forceRefresh bool) (string, error) {
	if user == nil {
		return "", ErrNotSignedIn
	}

	if !forceRefresh {
		f.mu.Lock()
		cached, ok := f.tokens[user.UID]
		f.mu.Unlock()
		if ok && f.now().Add(tokenExpirySkew).Before(cached.expires) {
			return cached.value, nil
		}
	}

	if user.RefreshToken == "" {
		return "", fmt.Errorf("user %s has no refresh token: %w", user.UID, ErrNotSignedIn)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", user.RefreshToken)

	endpoint := fmt.Sprintf("%s/v1/token?key=%s", f.cfg.TokenURL, url.QueryEscape(f.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out refreshResponse
	if err := f.do("refresh token", req, &out); err != nil {
		return "", err
	}

	if out.RefreshToken != "" && out.RefreshToken != user.RefreshToken {
		user.RefreshToken = out.RefreshToken
		if current := f.bc.currentUser(); current != nil && current.UID == user.UID {
			if err := f.persist.SaveUser(user); err != nil {
				f.log.Warn().Err(err).Msg("Failed to persist rotated refresh token")
			}
		}
	}
	f.cacheToken(user.UID, out.IDToken, out.ExpiresIn)
	return out.IDToken, nil
}

// Observe delivers sign-in state changes
func (f *FirebaseProvider) Observe(ctx context.Context) <-chan Event {
	return f.bc.observe(ctx)
}

// CurrentUser returns the signed-in user or nil
func (f *FirebaseProvider) CurrentUser() *User {
	return f.bc.currentUser()
}

func (f *FirebaseProvider) cacheToken(uid, token, expiresIn string) {
	seconds, err := strconv.Atoi(expiresIn)
	if err != nil || seconds <= 0 {
		seconds = 3600
	}
	f.mu.Lock()
	f.tokens[uid] = cachedToken{value: token, expires: f.now().Add(time.Duration(seconds) * time.Second)}
	f.mu.Unlock()
}

func (f *FirebaseProvider) do(op string, req *http.Request, out any) error {
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: failed to send request: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	if resp.StatusCode != http.StatusOK {
		perr := &ProviderError{Op: op, StatusCode: resp.StatusCode, Code: strings.TrimSpace(string(body))}
		var ae apiError
		if err := json.Unmarshal(body, &ae); err == nil && ae.Error.Message != "" {
			perr.Code = ae.Error.Message
		}
		return perr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}
