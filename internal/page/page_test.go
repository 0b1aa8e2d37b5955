package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := map[string]Class{
		"/login":         ClassAuth,
		"/signup":        ClassAuth,
		"/signup?ref=x":  ClassAuth,
		"/":              ClassProtected,
		"/feed":          ClassProtected,
		"/profile/abc":   ClassProtected,
		"/edit-profile":  ClassProtected,
		"/followers/abc": ClassProtected,
	}
	for path, want := range cases {
		assert.Equal(t, want, Classify(path), path)
	}
}

func TestPage_FirstRedirectWins(t *testing.T) {
	p := Load("/feed")

	assert.True(t, p.Redirect(LoginPath))
	assert.False(t, p.Redirect(HomePath))

	target, ok := p.Redirected()
	assert.True(t, ok)
	assert.Equal(t, LoginPath, target)

	select {
	case <-p.Done():
	default:
		t.Fatal("Done should be closed after a redirect")
	}
}

func TestPage_EmptyPathIsHome(t *testing.T) {
	p := Load("")
	assert.Equal(t, HomePath, p.Path())
	assert.Equal(t, ClassProtected, p.Class())

	_, ok := p.Redirected()
	assert.False(t, ok)
}
