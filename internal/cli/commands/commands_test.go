package commands

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixgram-dev/pixgram/internal/authflow"
	"github.com/pixgram-dev/pixgram/internal/cli/app"
	"github.com/pixgram-dev/pixgram/internal/cli/config"
	"github.com/pixgram-dev/pixgram/internal/cli/userconfig"
	envconfig "github.com/pixgram-dev/pixgram/internal/config"
	"github.com/pixgram-dev/pixgram/internal/credentials"
	"github.com/pixgram-dev/pixgram/internal/identity"
	"github.com/pixgram-dev/pixgram/internal/testbackend"
)

// setupTestApp wires a client with the memory provider against a stub backend
func setupTestApp(t *testing.T) (*app.App, *testbackend.Backend) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	backend := testbackend.New(t, nil)
	backend.VerifyHS256(identity.DevSigningKey)

	env := &envconfig.Config{
		Identity: envconfig.IdentityConfig{
			Provider:    envconfig.IdentityMemory,
			DevAccounts: map[string]string{"ada@example.com": "hunter22"},
		},
	}
	a, err := app.New(backend.URL, env, zerolog.Nop(), app.Options{
		RememberUser: true,
		Persistent:   credentials.NewMemorySlot(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a, backend
}

func login(t *testing.T, a *app.App) {
	t.Helper()
	require.NoError(t, runLogin(context.Background(), &bytes.Buffer{}, a, "ada@example.com", "hunter22"))
}

func TestLogin_Success(t *testing.T) {
	a, backend := setupTestApp(t)
	var out bytes.Buffer

	err := runLogin(context.Background(), &out, a, "ada@example.com", "hunter22")
	require.NoError(t, err)

	assert.Contains(t, out.String(), "✓ Login successful!")
	assert.Contains(t, out.String(), "User: ada@example.com")
	assert.Contains(t, out.String(), "→ Redirected to /")

	token, ok := a.Store.Read()
	require.True(t, ok)
	assert.Equal(t, 1, backend.InitCalls())
	assert.Equal(t, "Bearer "+token, backend.Requests()[0].Authorization)

	// the provider remembers the user for the next run
	user, err := userconfig.NewUserStore(a.BaseURL, nil).LoadUser()
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestLogin_WrongPassword(t *testing.T) {
	a, backend := setupTestApp(t)

	err := runLogin(context.Background(), &bytes.Buffer{}, a, "ada@example.com", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login failed")
	assert.Zero(t, backend.InitCalls())
}

func TestLogin_SessionInitFailure(t *testing.T) {
	a, backend := setupTestApp(t)
	backend.FailInit(http.StatusInternalServerError, `{"success":false,"error":"Server error: boom"}`)

	err := runLogin(context.Background(), &bytes.Buffer{}, a, "ada@example.com", "hunter22")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session initialization failed")
}

func TestLoginCmd_RequiresEmail(t *testing.T) {
	t.Setenv("PIXGRAM_EMAIL", "")
	t.Setenv("PIXGRAM_PASSWORD", "")

	cmd := NewLoginCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email is required")
}

func TestLoginCmd_PasswordPromptFailure(t *testing.T) {
	t.Setenv("PIXGRAM_PASSWORD", "")
	readPassword = func() (string, error) { return "", errors.New("password is required in non-interactive mode") }
	t.Cleanup(func() { readPassword = promptPassword })

	cmd := NewLoginCmd()
	cmd.SetArgs([]string{"--email", "ada@example.com"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-interactive")
}

func TestSignup(t *testing.T) {
	a, backend := setupTestApp(t)
	var out bytes.Buffer

	err := runSignup(context.Background(), &out, a, authflow.SignupForm{Email: "grace@example.com", Password: "hunter22"})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Sign up successful")
	assert.Contains(t, out.String(), "→ Redirected to /")
	assert.Equal(t, 1, backend.InitCalls())
	assert.Equal(t, "grace@example.com", a.Provider.CurrentUser().Email)
}

func TestSignup_Validation(t *testing.T) {
	a, backend := setupTestApp(t)

	err := runSignup(context.Background(), &bytes.Buffer{}, a, authflow.SignupForm{Email: "grace@example.com", Password: "123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 6 characters")
	assert.Empty(t, backend.Requests())
}

func TestLogout(t *testing.T) {
	a, _ := setupTestApp(t)
	login(t, a)
	var out bytes.Buffer

	require.NoError(t, runLogout(context.Background(), &out, a))

	assert.Contains(t, out.String(), "→ Redirected to /login")
	_, ok := a.Store.Read()
	assert.False(t, ok)
	assert.Nil(t, a.Provider.CurrentUser())
}

func TestOpen_ProtectedPageWithoutTokenRedirectsFirst(t *testing.T) {
	a, backend := setupTestApp(t)
	var out bytes.Buffer

	require.NoError(t, runOpen(context.Background(), &out, a, "/feed", false))

	assert.Contains(t, out.String(), "→ Redirected to /login")
	assert.Empty(t, backend.Requests(), "no network call before the redirect")
}

func TestOpen_SignedInFetchesPage(t *testing.T) {
	a, backend := setupTestApp(t)
	login(t, a)
	token, _ := a.Store.Read()
	var out bytes.Buffer

	require.NoError(t, runOpen(context.Background(), &out, a, "/feed", false))

	assert.Contains(t, out.String(), "signed-in-with-token: init-session")
	assert.Contains(t, out.String(), "GET /feed: 200 OK")
	assert.Contains(t, out.String(), `"path":"/feed"`)

	reqs := backend.Requests()
	last := reqs[len(reqs)-1]
	assert.Equal(t, "/feed", last.Path)
	assert.Equal(t, "Bearer "+token, last.Authorization)
	assert.Equal(t, token, last.Cookie)
}

func TestOpen_SignedInOnLoginPageGoesHome(t *testing.T) {
	a, backend := setupTestApp(t)
	login(t, a)
	calls := backend.InitCalls()
	var out bytes.Buffer

	require.NoError(t, runOpen(context.Background(), &out, a, "/login", false))

	assert.Contains(t, out.String(), "→ Redirected to /")
	assert.Equal(t, calls, backend.InitCalls())
}

func TestOpen_RejectedSessionClearsToken(t *testing.T) {
	a, backend := setupTestApp(t)
	login(t, a)
	backend.FailInit(http.StatusUnauthorized, `{"error":"unauthorized"}`)
	var out bytes.Buffer

	require.NoError(t, runOpen(context.Background(), &out, a, "/feed", false))

	assert.Contains(t, out.String(), "clear-and-redirect-login")
	assert.Contains(t, out.String(), "→ Redirected to /login")
	_, ok := a.Store.Read()
	assert.False(t, ok)
}

func TestOpen_WatchStopsOnCancel(t *testing.T) {
	a, _ := setupTestApp(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	var out bytes.Buffer

	require.NoError(t, runOpen(ctx, &out, a, "/signup", true))
	assert.Contains(t, out.String(), "signed-out: none")
}

func TestFetch_SendsBearerToken(t *testing.T) {
	a, backend := setupTestApp(t)
	a.Store.Save("tok-1")
	var out bytes.Buffer

	require.NoError(t, fetchPage(context.Background(), &out, a, http.MethodGet, "profile/abc", nil))

	assert.Contains(t, out.String(), "GET /profile/abc: 200 OK")
	assert.Equal(t, "Bearer tok-1", backend.Requests()[0].Authorization)
}

func TestFetch_ErrorStatus(t *testing.T) {
	a, _ := setupTestApp(t)

	err := fetchPage(context.Background(), &bytes.Buffer{}, a, http.MethodPost, "/auth/init", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestStatus(t *testing.T) {
	a, _ := setupTestApp(t)
	var out bytes.Buffer

	require.NoError(t, runStatus(&out, a, time.Now()))
	assert.Contains(t, out.String(), "Signed in as: nobody")
	assert.Contains(t, out.String(), "Token: none cached")

	login(t, a)
	out.Reset()
	require.NoError(t, runStatus(&out, a, time.Now()))
	assert.Contains(t, out.String(), "Signed in as: ada@example.com")
	assert.Contains(t, out.String(), "Email:   ada@example.com")
	assert.Contains(t, out.String(), "expires")
	assert.Contains(t, out.String(), "from now")

	out.Reset()
	require.NoError(t, runStatus(&out, a, time.Now().Add(2*time.Hour)))
	assert.Contains(t, out.String(), "expired")
	assert.Contains(t, out.String(), "ago")
}

func TestStatus_UnreadableToken(t *testing.T) {
	a, _ := setupTestApp(t)
	a.Store.Save("not-a-jwt")
	var out bytes.Buffer

	require.NoError(t, runStatus(&out, a, time.Now()))
	assert.Contains(t, out.String(), "Token: cached, unreadable")
}

func TestAgo(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	var out bytes.Buffer

	runAgo(&out, []string{"2026-10-19T11:59:30Z", "2026-10-17T12:00:00Z", "yesterday"}, now)

	assert.Equal(t, "30 seconds ago\n2 days ago\nyesterday\n", out.String())
}

func TestWeb(t *testing.T) {
	var opened string
	openBrowser = func(url string) error {
		opened = url
		return nil
	}
	t.Cleanup(func() { openBrowser = defaultOpenBrowser })

	require.NoError(t, runWeb(&bytes.Buffer{}, "https://pixgram.example.com", "feed"))
	assert.Equal(t, "https://pixgram.example.com/feed", opened)

	openBrowser = func(string) error { return errors.New("no display") }
	err := runWeb(&bytes.Buffer{}, "https://pixgram.example.com", "/")
	assert.ErrorContains(t, err, "Please visit: https://pixgram.example.com/")
}

func TestResolveBaseURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	chdir(t, dir)
	env := &envconfig.Config{API: envconfig.APIConfig{URL: "http://localhost:8000"}}

	got, err := resolveBaseURL(env, "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", got, "falls back to PIXGRAM_API_URL")

	_, err = resolveBaseURL(env, "production")
	assert.ErrorContains(t, err, "pixgram init")

	require.NoError(t, config.Save(dir+"/pixgram.yaml", &config.Config{Servers: []config.Server{
		{Alias: "production", URL: "https://pixgram.example.com/"},
		{Alias: "local", URL: "http://localhost:9000"},
	}}))

	got, err = resolveBaseURL(env, "production")
	require.NoError(t, err)
	assert.Equal(t, "https://pixgram.example.com", got)

	require.NoError(t, userconfig.SetSelectedServer("http://localhost:9000"))
	got, err = resolveBaseURL(env, "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", got)
}

func TestSelectServer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, config.Save(dir+"/pixgram.yaml", &config.Config{Servers: []config.Server{
		{Alias: "production", URL: "https://pixgram.example.com"},
		{Alias: "local", URL: "http://localhost:9000"},
	}}))

	require.NoError(t, runSelectServer("local"))
	selected, err := userconfig.GetSelectedServer()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", selected)

	assert.Error(t, runSelectServer("missing"))
}
