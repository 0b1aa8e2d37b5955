package credentials

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	// CookieName is the cookie the backend reads the session token from
	CookieName = "token"
	// CookieMaxAge caps the cookie lifetime
	CookieMaxAge = 3600 * time.Second

	cookieRecordKey = "cookie:" + CookieName
)

// cookieRecord survives between CLI runs so the cookie keeps its lifetime
type cookieRecord struct {
	Value   string `json:"value"`
	Expires int64  `json:"expires"`
}

// NewCookieJar creates the jar shared by every HTTP client of the process
func NewCookieJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return jar, nil
}

// CookieSink writes the token cookie into a jar for the backend's site.
// It is write-only: the application never reads the cookie back.
type CookieSink struct {
	jar     http.CookieJar
	site    *url.URL
	persist Slot
	now     func() time.Time
}

// NewCookieSink creates a sink for siteURL. persist may be nil, in which
// case the cookie only lives as long as the jar.
func NewCookieSink(jar http.CookieJar, siteURL string, persist Slot) (*CookieSink, error) {
	site, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid site URL %q: %w", siteURL, err)
	}
	if site.Host == "" {
		return nil, fmt.Errorf("invalid site URL %q: missing host", siteURL)
	}
	return &CookieSink{
		jar:     jar,
		site:    &url.URL{Scheme: site.Scheme, Host: site.Host, Path: "/"},
		persist: persist,
		now:     time.Now,
	}, nil
}

// Write sets token=<value>; path=/; SameSite=Lax; Max-Age=3600
func (c *CookieSink) Write(token string) error {
	c.jar.SetCookies(c.site, []*http.Cookie{{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(CookieMaxAge / time.Second),
	}})

	if c.persist == nil {
		return nil
	}
	data, err := json.Marshal(cookieRecord{
		Value:   token,
		Expires: c.now().Add(CookieMaxAge).Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cookie record: %w", err)
	}
	return c.persist.Set(cookieRecordKey, string(data))
}

// Expire overwrites the cookie with an immediately expired one
func (c *CookieSink) Expire() error {
	c.jar.SetCookies(c.site, []*http.Cookie{{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}})

	if c.persist == nil {
		return nil
	}
	return c.persist.Delete(cookieRecordKey)
}

// Restore puts a previously written, still valid cookie back into the jar
func (c *CookieSink) Restore() error {
	if c.persist == nil {
		return nil
	}
	raw, found, err := c.persist.Get(cookieRecordKey)
	if err != nil || !found {
		return err
	}

	var rec cookieRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return fmt.Errorf("failed to parse cookie record: %w", err)
	}

	// the jar checks expiry against its own clock, so hand it the remaining
	// lifetime rather than the absolute time
	remaining := int(time.Unix(rec.Expires, 0).Sub(c.now()) / time.Second)
	if remaining <= 0 {
		return c.persist.Delete(cookieRecordKey)
	}

	c.jar.SetCookies(c.site, []*http.Cookie{{
		Name:     CookieName,
		Value:    rec.Value,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   remaining,
	}})
	return nil
}
