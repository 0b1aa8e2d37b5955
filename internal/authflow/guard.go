package authflow

import (
	"github.com/pixgram-dev/pixgram/internal/page"
)

// TokenReader reports whether a token is cached
type TokenReader interface {
	Read() (string, bool)
}

// Guard runs at page load, before anything asynchronous: a protected page
// without a cached token is sent to the login page. It reports whether it
// redirected. A cached token is not validated here.
func Guard(p Navigator, tokens TokenReader) bool {
	if page.Classify(p.Path()) != page.ClassProtected {
		return false
	}
	if _, ok := tokens.Read(); ok {
		return false
	}
	p.Redirect(page.LoginPath)
	return true
}
