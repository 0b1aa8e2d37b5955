// Package app assembles the client for one backend: credential store,
// authenticated HTTP client, session initializer and identity provider.
package app

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/pixgram-dev/pixgram/internal/cli/userconfig"
	"github.com/pixgram-dev/pixgram/internal/config"
	"github.com/pixgram-dev/pixgram/internal/credentials"
	"github.com/pixgram-dev/pixgram/internal/database"
	"github.com/pixgram-dev/pixgram/internal/identity"
	"github.com/pixgram-dev/pixgram/internal/interceptor"
	"github.com/pixgram-dev/pixgram/internal/session"
)

// Options override parts of the wiring
type Options struct {
	// Persistence keeps the signed-in user between runs (nil: not kept)
	Persistence identity.Persistence

	// RememberUser keeps the signed-in user in the user config and its
	// refresh token in the token backend. Ignored when Persistence is set.
	RememberUser bool

	// Transport is the base round tripper under the interceptor
	Transport http.RoundTripper

	// Persistent replaces the configured token backend
	Persistent credentials.Slot
}

// App is the wired client for one backend
type App struct {
	BaseURL  string
	Log      zerolog.Logger
	Cookies  *credentials.CookieSink
	Store    *credentials.Store
	Client   *http.Client
	Sessions *session.Initializer
	Provider identity.Provider

	// nil when no profile backend is configured
	Profiles identity.ProfileWriter

	closers []func() error
}

// New wires the client for baseURL
func New(baseURL string, cfg *config.Config, log zerolog.Logger, opts Options) (*App, error) {
	site, err := url.Parse(baseURL)
	if err != nil || site.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", baseURL)
	}

	a := &App{BaseURL: baseURL, Log: log}

	persistent := opts.Persistent
	if persistent == nil {
		persistent, err = a.openTokenBackend(cfg, site.Host)
		if err != nil {
			return nil, err
		}
	}

	persist := opts.Persistence
	if persist == nil && opts.RememberUser {
		persist = userconfig.NewUserStore(baseURL, persistent)
	}

	jar, err := credentials.NewCookieJar()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Cookies, err = credentials.NewCookieSink(jar, baseURL, persistent)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := a.Cookies.Restore(); err != nil {
		log.Warn().Err(err).Msg("Failed to restore token cookie")
	}

	a.Store = credentials.NewStore(a.Cookies, persistent, credentials.NewMemorySlot(), log)
	a.Client = interceptor.NewClient(opts.Transport, a.Store, jar)
	a.Sessions = session.NewInitializer(baseURL, a.Client, log)

	switch cfg.Identity.Provider {
	case config.IdentityMemory:
		provider, err := identity.NewMemoryProvider("", persist, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		for email, password := range cfg.Identity.DevAccounts {
			provider.AddAccount(email, password)
		}
		a.Provider = provider
	default:
		if persist == nil {
			persist = &volatileUser{}
		}
		provider, err := identity.NewFirebaseProvider(identity.FirebaseConfig{APIKey: cfg.Identity.APIKey}, a.Client, persist, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Provider = provider
		if cfg.Identity.ProjectID != "" {
			a.Profiles = identity.NewFirestoreProfiles(identity.DefaultFirestoreURL, cfg.Identity.ProjectID, a.Client)
		}
	}

	return a, nil
}

func (a *App) openTokenBackend(cfg *config.Config, scope string) (credentials.Slot, error) {
	if cfg.Tokens.Backend != config.TokenBackendSQLite {
		return credentials.NewKeyringSlot(scope), nil
	}

	db, err := database.Open(cfg.Tokens.DBPath, a.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to open token database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	a.closers = append(a.closers, sqlDB.Close)
	return credentials.NewSQLiteSlot(db, scope), nil
}

// Close releases the token database, if one was opened
func (a *App) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

type volatileUser struct {
	user *identity.User
}

func (v *volatileUser) LoadUser() (*identity.User, error) { return v.user, nil }

func (v *volatileUser) SaveUser(u *identity.User) error {
	v.user = u
	return nil
}
