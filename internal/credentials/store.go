package credentials

import (
	"github.com/rs/zerolog"
)

// TokenKey is the slot key holding the application-readable token
const TokenKey = "authToken"

// Store is the credential store handle. Storage failures are logged and
// otherwise ignored, so callers see Save/Clear as infallible.
// Concurrent writers are last-write-wins.
type Store struct {
	cookies    *CookieSink
	persistent Slot
	session    Slot
	log        zerolog.Logger
}

// NewStore wires the transport sink and the application-readable slots
func NewStore(cookies *CookieSink, persistent, session Slot, log zerolog.Logger) *Store {
	return &Store{
		cookies:    cookies,
		persistent: persistent,
		session:    session,
		log:        log.With().Str("component", "credentials").Logger(),
	}
}

// Save writes token into both sinks
func (s *Store) Save(token string) {
	if err := s.cookies.Write(token); err != nil {
		s.log.Warn().Err(err).Msg("Failed to write token cookie")
	}
	if err := s.persistent.Set(TokenKey, token); err != nil {
		s.log.Warn().Err(err).Msg("Failed to persist token")
	}
}

// Clear expires the cookie and removes the token from the persistent and
// session slots, whatever state they are in.
func (s *Store) Clear() {
	if err := s.cookies.Expire(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to expire token cookie")
	}
	if err := s.persistent.Delete(TokenKey); err != nil {
		s.log.Warn().Err(err).Msg("Failed to delete persisted token")
	}
	if err := s.session.Delete(TokenKey); err != nil {
		s.log.Warn().Err(err).Msg("Failed to delete session token")
	}
}

// Read returns the cached token; an empty value counts as absent
func (s *Store) Read() (string, bool) {
	token, found, err := s.persistent.Get(TokenKey)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read persisted token")
		return "", false
	}
	if !found || token == "" {
		return "", false
	}
	return token, true
}
