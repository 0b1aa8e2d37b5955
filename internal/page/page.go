// Package page models the location the client is "on" and where it goes next.
package page

import (
	"strings"
	"sync"
)

// Redirect targets
const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Class is the sensitivity of a page
type Class int

const (
	// ClassProtected pages require a signed-in user
	ClassProtected Class = iota
	// ClassAuth pages are the login and signup forms
	ClassAuth
)

func (c Class) String() string {
	if c == ClassAuth {
		return "auth"
	}
	return "protected"
}

// Classify derives the class from the URL path alone
func Classify(path string) Class {
	if strings.Contains(path, "/login") || strings.Contains(path, "/signup") {
		return ClassAuth
	}
	return ClassProtected
}

// Page is one page load. The first Redirect navigates away: it is recorded,
// Done is closed, and later redirects are ignored.
type Page struct {
	path string

	mu       sync.Mutex
	redirect string
	done     chan struct{}
}

// Load starts a page load at path
func Load(path string) *Page {
	if path == "" {
		path = HomePath
	}
	return &Page{path: path, done: make(chan struct{})}
}

// Path is the location of the page
func (p *Page) Path() string {
	return p.path
}

// Class recomputes the classification of the page
func (p *Page) Class() Class {
	return Classify(p.path)
}

// Redirect navigates to target. It reports whether this call navigated.
func (p *Page) Redirect(target string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.redirect != "" {
		return false
	}
	p.redirect = target
	close(p.done)
	return true
}

// Redirected returns the navigation target, if the page navigated away
func (p *Page) Redirected() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.redirect, p.redirect != ""
}

// Done is closed once the page navigated away
func (p *Page) Done() <-chan struct{} {
	return p.done
}
