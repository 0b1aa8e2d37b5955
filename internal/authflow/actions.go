package authflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/pixgram-dev/pixgram/internal/identity"
	"github.com/pixgram-dev/pixgram/internal/page"
	"github.com/pixgram-dev/pixgram/internal/session"
)

var (
	ErrMissingCredentials = errors.New("please enter both email and password")
	ErrIncompleteForm     = errors.New("please complete all required fields")
)

// Accounts is the part of the identity provider that user actions drive
type Accounts interface {
	SignIn(ctx context.Context, email, password string) (*identity.User, error)
	SignUp(ctx context.Context, email, password string) (*identity.User, error)
	SignOut(ctx context.Context) error
	IDToken(ctx context.Context, user *identity.User, forceRefresh bool) (string, error)
}

// LoginForm is what the login page submits
type LoginForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// SignupForm is what the signup page submits. An empty name is replaced by
// the local part of the email.
type SignupForm struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// Actions runs the flows a user starts directly. Failures are returned so
// the caller can show them; nothing here is retried.
type Actions struct {
	store    CredentialStore
	accounts Accounts
	sessions SessionInitializer
	profiles identity.ProfileWriter
	page     Navigator
	validate *validator.Validate
	now      func() time.Time
	log      zerolog.Logger
}

// NewActions wires the user flows for page p. profiles may be nil, in which
// case signup skips the profile document.
func NewActions(store CredentialStore, accounts Accounts, sessions SessionInitializer, profiles identity.ProfileWriter, p Navigator, log zerolog.Logger) *Actions {
	return &Actions{
		store:    store,
		accounts: accounts,
		sessions: sessions,
		profiles: profiles,
		page:     p,
		validate: validator.New(),
		now:      time.Now,
		log:      log.With().Str("component", "actions").Logger(),
	}
}

// Login signs in, caches a fresh token, initializes the session and goes home
func (a *Actions) Login(ctx context.Context, form LoginForm) (session.Info, error) {
	form.Email = strings.TrimSpace(form.Email)
	form.Password = strings.TrimSpace(form.Password)
	if err := a.validate.Struct(form); err != nil {
		return nil, ErrMissingCredentials
	}

	a.store.Clear()

	user, err := a.accounts.SignIn(ctx, form.Email, form.Password)
	if err != nil {
		a.log.Error().Err(err).Msg("Login error")
		return nil, fmt.Errorf("login failed: %w", err)
	}

	token, err := IssueToken(ctx, a.accounts, a.store, user)
	if err != nil {
		a.log.Error().Err(err).Msg("Login error")
		return nil, fmt.Errorf("login failed: %w", err)
	}

	info, err := a.sessions.Init(ctx, token)
	if err != nil {
		a.log.Error().Err(err).Msg("Session init error")
		return nil, fmt.Errorf("session initialization failed: %w", err)
	}

	a.page.Redirect(page.HomePath)
	return info, nil
}

// Signup creates the account and its profile document, then behaves like a
// login. A failed profile write does not stop the signup.
func (a *Actions) Signup(ctx context.Context, form SignupForm) (session.Info, error) {
	form.Email = strings.TrimSpace(form.Email)
	form.Password = strings.TrimSpace(form.Password)
	form.Name = strings.TrimSpace(form.Name)
	if form.Name == "" {
		form.Name, _, _ = strings.Cut(form.Email, "@")
	}
	if err := a.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, formError(verrs)
		}
		return nil, ErrIncompleteForm
	}

	user, err := a.accounts.SignUp(ctx, form.Email, form.Password)
	if err != nil {
		a.log.Error().Err(err).Msg("Signup error")
		return nil, fmt.Errorf("signup failed: %w", err)
	}
	user.DisplayName = form.Name

	token, err := IssueToken(ctx, a.accounts, a.store, user)
	if err != nil {
		a.log.Error().Err(err).Msg("Signup error")
		return nil, fmt.Errorf("signup failed: %w", err)
	}

	if a.profiles != nil {
		err := a.profiles.WriteProfile(ctx, token, identity.Profile{
			ID:        user.UID,
			Email:     user.Email,
			Name:      form.Name,
			Role:      "user",
			CreatedAt: a.now(),
		})
		if err != nil {
			a.log.Error().Err(err).Msg("Error creating user document")
		}
	}

	info, err := a.sessions.Init(ctx, token)
	if err != nil {
		a.log.Error().Err(err).Msg("Signup error")
		return nil, fmt.Errorf("signup failed: %w", err)
	}

	a.page.Redirect(page.HomePath)
	return info, nil
}

// SignOut drops the cached credentials before telling the provider, then
// sends the user to the login page
func (a *Actions) SignOut(ctx context.Context) error {
	a.store.Clear()

	if err := a.accounts.SignOut(ctx); err != nil {
		a.log.Error().Err(err).Msg("Sign out error")
		return fmt.Errorf("sign out failed: %w", err)
	}

	a.page.Redirect(page.LoginPath)
	return nil
}

func formError(verrs validator.ValidationErrors) error {
	for _, fe := range verrs {
		switch {
		case fe.Field() == "Email" && fe.Tag() == "email":
			return fmt.Errorf("invalid email address %q", fe.Value())
		case fe.Field() == "Password" && fe.Tag() == "min":
			return fmt.Errorf("password must be at least %s characters", fe.Param())
		}
	}
	return ErrIncompleteForm
}
