// Package interceptor attaches the cached session token to outgoing requests.
package interceptor

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	bearerPrefix = "Bearer "
)

// DefaultExcluded lists URL fragments of the auth bootstrap endpoints.
// Requests to them are forwarded untouched.
var DefaultExcluded = []string{
	"/auth/init",
	"identitytoolkit.googleapis.com",
}

// TokenSource returns the cached token, if any
type TokenSource interface {
	Read() (string, bool)
}

// Transport is an http.RoundTripper that adds "Authorization: Bearer <token>"
// to every request not matching Excluded. A caller-supplied Authorization
// header is overwritten. Redirect hops only get the header while they stay
// on the origin of the first request.
type Transport struct {
	Base     http.RoundTripper
	Tokens   TokenSource
	Excluded []string
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if t.excluded(req) || !sameOrigin(req) {
		return base.RoundTrip(req)
	}

	token, ok := t.Tokens.Read()
	if !ok {
		return base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", bearerPrefix+token)
	return base.RoundTrip(out)
}

// sameOrigin reports whether req is the first hop or a redirect that stayed
// on the scheme and host of the first hop.
func sameOrigin(req *http.Request) bool {
	first := req
	for first.Response != nil && first.Response.Request != nil {
		first = first.Response.Request
	}
	if first == req {
		return req.Response == nil
	}
	return first.URL.Scheme == req.URL.Scheme && first.URL.Host == req.URL.Host
}

func (t *Transport) excluded(req *http.Request) bool {
	target := req.URL.String()
	for _, fragment := range t.Excluded {
		if strings.Contains(target, fragment) {
			return true
		}
	}
	return false
}

// NewClient builds the HTTP client every outbound call of the process goes
// through. jar may be nil.
func NewClient(base http.RoundTripper, tokens TokenSource, jar http.CookieJar) *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Jar:     jar,
		Transport: &Transport{
			Base:     base,
			Tokens:   tokens,
			Excluded: DefaultExcluded,
		},
	}
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("missing authorization header")
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", fmt.Errorf("invalid authorization header format")
	}
	token := strings.TrimPrefix(header, bearerPrefix)
	if token == "" {
		return "", fmt.Errorf("empty token")
	}
	return token, nil
}
