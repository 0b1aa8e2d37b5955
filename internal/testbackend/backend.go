// Package testbackend runs a stand-in for the web backend in tests.
package testbackend

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/pixgram-dev/pixgram/internal/identity"
	"github.com/pixgram-dev/pixgram/internal/interceptor"
	"github.com/pixgram-dev/pixgram/internal/session"
)

// Request is what the backend saw for one call
type Request struct {
	Method        string
	Path          string
	Authorization string
	Cookie        string
	IDToken       string
}

// Backend is an httptest server with a /auth/init endpoint and a catch-all
// page handler. Valid tokens are the keys of Tokens.
type Backend struct {
	*httptest.Server

	mu         sync.Mutex
	tokens     map[string]string
	signingKey []byte
	requests   []Request
	initFail   *initFailure
}

type initFailure struct {
	status int
	body   string
}

// New starts a backend that accepts the given token -> user id pairs
func New(t *testing.T, tokens map[string]string) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &Backend{tokens: map[string]string{}}
	for token, uid := range tokens {
		b.tokens[token] = uid
	}

	router := gin.New()
	router.Use(b.record)
	router.POST(session.InitPath, b.initSession)
	router.NoRoute(b.page)

	b.Server = httptest.NewServer(router)
	t.Cleanup(b.Server.Close)
	return b
}

// Accept marks token as valid for user uid
func (b *Backend) Accept(token, uid string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = uid
}

// VerifyHS256 also accepts any valid HS256 ID token signed with key
func (b *Backend) VerifyHS256(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signingKey = []byte(key)
}

func (b *Backend) verify(token string) (string, bool) {
	b.mu.Lock()
	uid, ok := b.tokens[token]
	key := b.signingKey
	b.mu.Unlock()
	if ok || key == nil {
		return uid, ok
	}

	claims := &identity.Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || claims.UserID == "" {
		return "", false
	}
	return claims.UserID, true
}

// FailInit makes /auth/init answer status with the raw body
func (b *Backend) FailInit(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initFail = &initFailure{status: status, body: body}
}

// Requests returns a copy of every request received so far
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// InitCalls counts requests to /auth/init
func (b *Backend) InitCalls() int {
	n := 0
	for _, r := range b.Requests() {
		if r.Path == session.InitPath {
			n++
		}
	}
	return n
}

func (b *Backend) record(c *gin.Context) {
	req := Request{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		Authorization: c.GetHeader("Authorization"),
	}
	if cookie, err := c.Cookie("token"); err == nil {
		req.Cookie = cookie
	}
	if req.Path == session.InitPath {
		var body session.InitRequest
		if err := c.ShouldBindJSON(&body); err == nil {
			req.IDToken = body.IDToken
		}
	}

	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	c.Next()
}

func (b *Backend) initSession(c *gin.Context) {
	b.mu.Lock()
	fail := b.initFail
	b.mu.Unlock()
	if fail != nil {
		c.Data(fail.status, "application/json", []byte(fail.body))
		return
	}

	token, err := interceptor.BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "No token provided"})
		return
	}

	uid, ok := b.verify(token)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Session initialized",
		"user":    gin.H{"id": uid},
	})
}

func (b *Backend) page(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"path":          c.Request.URL.Path,
		"authorization": c.GetHeader("Authorization"),
	})
}
