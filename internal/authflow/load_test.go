package authflow

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixgram-dev/pixgram/internal/page"
)

func TestGuard(t *testing.T) {
	h := newHarness(t)

	p := page.Load("/feed")
	assert.True(t, Guard(p, h.store))
	assert.Equal(t, page.LoginPath, redirected(t, p))

	p = page.Load("/login")
	assert.False(t, Guard(p, h.store), "auth pages are never guarded")

	h.store.Save("anything")
	p = page.Load("/feed")
	assert.False(t, Guard(p, h.store), "cached token passes even if invalid")
}

func TestLoad_SignInOnLoginPage(t *testing.T) {
	h := newHarness(t)
	p := page.Load("/login")
	h.provider.AddAccount("ada@example.com", "hunter22")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- h.machine(p).Load(ctx, h.provider, true, nil) }()

	_, err := h.provider.SignIn(ctx, "ada@example.com", "hunter22")
	require.NoError(t, err)
	require.NoError(t, <-done)

	_, ok := h.store.Read()
	assert.True(t, ok, "token saved")
	assert.Zero(t, h.backend.InitCalls(), "no session init on the login page")
	assert.Equal(t, page.HomePath, redirected(t, p))
}

func TestLoad_ReturningVisitorWithRejectedToken(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.store.Save("expired-token")
	h.backend.FailInit(http.StatusUnauthorized, `{"error":"unauthorized"}`)
	p := page.Load("/feed")

	var outcome Outcome
	err := h.machine(p).Load(context.Background(), h.provider, false, func(o Outcome) { outcome = o })
	require.NoError(t, err)

	assert.Equal(t, ActionClearAndRedirectLogin, outcome.Action)
	_, ok := h.store.Read()
	assert.False(t, ok)
	assert.Equal(t, page.LoginPath, redirected(t, p))
}

func TestLoad_NoTokenOnProtectedPageMakesNoNetworkCall(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	p := page.Load("/feed")

	called := false
	err := h.machine(p).Load(context.Background(), h.provider, false, func(Outcome) { called = true })
	require.NoError(t, err)

	assert.Equal(t, page.LoginPath, redirected(t, p))
	assert.False(t, called, "machine never ran")
	assert.Empty(t, h.backend.Requests())
	assert.Zero(t, h.provider.Issued())
}

func TestLoad_SignedInVisitorInitializesSession(t *testing.T) {
	h := newHarness(t)
	user := h.signIn(t)
	h.cacheAcceptedToken(t, user)
	p := page.Load("/")

	var outcome Outcome
	err := h.machine(p).Load(context.Background(), h.provider, false, func(o Outcome) { outcome = o })
	require.NoError(t, err)

	require.NoError(t, outcome.Err)
	assert.Equal(t, ActionInitSession, outcome.Action)
	assert.Equal(t, 1, h.backend.InitCalls())
}

func TestIsUnauthorized(t *testing.T) {
	cases := map[string]bool{
		"Server error: unauthorized":             true,
		"Server error: 401 Unauthorized":         true,
		"Server error: Unauthorized":             false,
		"Server error: Invalid or expired token": false,
		"failed to send request: EOF":            false,
	}
	for msg, want := range cases {
		assert.Equal(t, want, isUnauthorized(errString(msg)), msg)
	}
}

type errString string

func (e errString) Error() string { return string(e) }
