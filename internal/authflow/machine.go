package authflow

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pixgram-dev/pixgram/internal/identity"
	"github.com/pixgram-dev/pixgram/internal/page"
	"github.com/pixgram-dev/pixgram/internal/session"
)

// State is where an observation put the client
type State int

const (
	SignedOut State = iota
	SignedInOnAuthPage
	SignedInOnProtectedPageNoToken
	SignedInOnProtectedPageWithToken
)

func (s State) String() string {
	switch s {
	case SignedInOnAuthPage:
		return "signed-in-on-auth-page"
	case SignedInOnProtectedPageNoToken:
		return "signed-in-no-token"
	case SignedInOnProtectedPageWithToken:
		return "signed-in-with-token"
	default:
		return "signed-out"
	}
}

// Action is what the machine did about an observation
type Action int

const (
	ActionNone Action = iota
	ActionRedirectHome
	ActionRedirectLogin
	ActionInitSession
	ActionClearAndRedirectLogin
)

func (a Action) String() string {
	switch a {
	case ActionRedirectHome:
		return "redirect-home"
	case ActionRedirectLogin:
		return "redirect-login"
	case ActionInitSession:
		return "init-session"
	case ActionClearAndRedirectLogin:
		return "clear-and-redirect-login"
	default:
		return "none"
	}
}

// Outcome is the result of handling one observation
type Outcome struct {
	EventID string
	State   State
	Action  Action
	Session session.Info
	Err     error
}

// Machine reacts to auth observations on the current page. It keeps no
// state of its own, so repeated identical observations are handled the same
// way each time (including repeated session initialization).
type Machine struct {
	store    CredentialStore
	issuer   TokenIssuer
	sessions SessionInitializer
	page     Navigator
	log      zerolog.Logger
}

// NewMachine creates a machine for the page p
func NewMachine(store CredentialStore, issuer TokenIssuer, sessions SessionInitializer, p Navigator, log zerolog.Logger) *Machine {
	return &Machine{
		store:    store,
		issuer:   issuer,
		sessions: sessions,
		page:     p,
		log:      log.With().Str("component", "authflow").Logger(),
	}
}

// Handle applies one observation
func (m *Machine) Handle(ctx context.Context, ev identity.Event) Outcome {
	class := page.Classify(m.page.Path())
	log := m.log.With().Str("event", ev.ID).Str("path", m.page.Path()).Logger()
	log.Debug().Bool("signed_in", ev.SignedIn()).Msg("Auth state changed")

	if !ev.SignedIn() {
		if class == page.ClassAuth {
			return Outcome{EventID: ev.ID, State: SignedOut, Action: ActionNone}
		}
		log.Info().Msg("No user signed in, redirecting to login")
		m.page.Redirect(page.LoginPath)
		return Outcome{EventID: ev.ID, State: SignedOut, Action: ActionRedirectLogin}
	}

	token, cached := m.store.Read()
	out := Outcome{EventID: ev.ID, State: SignedInOnProtectedPageWithToken}
	switch {
	case class == page.ClassAuth:
		out.State = SignedInOnAuthPage
	case !cached:
		out.State = SignedInOnProtectedPageNoToken
	}

	if !cached {
		fresh, err := IssueToken(ctx, m.issuer, m.store, ev.User)
		if err != nil {
			log.Error().Err(err).Msg("User token refresh failed")
			out.Err = err
			return out
		}
		token = fresh
	}

	if class == page.ClassAuth {
		log.Info().Msg("Already signed in, redirecting to home")
		m.page.Redirect(page.HomePath)
		out.Action = ActionRedirectHome
		return out
	}

	out.Action = ActionInitSession
	info, err := m.sessions.Init(ctx, token)
	if err != nil {
		log.Error().Err(err).Msg("Session initialization failed")
		out.Err = err
		if isUnauthorized(err) {
			m.store.Clear()
			m.page.Redirect(page.LoginPath)
			out.Action = ActionClearAndRedirectLogin
		}
		return out
	}
	out.Session = info
	return out
}

// Run handles observations one at a time until the channel closes, ctx
// ends, or the page navigates away. onOutcome may be nil.
func (m *Machine) Run(ctx context.Context, events <-chan identity.Event, onOutcome func(Outcome)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.page.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			out := m.Handle(ctx, ev)
			if onOutcome != nil {
				onOutcome(out)
			}
		}
	}
}

// isUnauthorized matches "401" or "unauthorized" in the error text.
// TODO: switch to errors.As(*session.RejectedError) with StatusCode 401 once
// the backend's "Invalid or expired token" 401s should also sign the user out.
func isUnauthorized(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized")
}
