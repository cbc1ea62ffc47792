package model

import (
	"strings"
	"time"
)

type Session struct {
	ID           string
	ExpiresAt    time.Time
	AccessToken  string
	RefreshToken string
}

// Expired reports whether the session is past its expiry.
// A zero ExpiresAt means the backend did not tell us, so it never expires here.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AuthState - user and session are either both set or both nil
type AuthState struct {
	User    *User
	Session *Session
}

func (s AuthState) Authenticated() bool {
	return s.User != nil && s.Session != nil
}

// AuthSnapshot - copy of the store state handed to callers
type AuthSnapshot struct {
	AuthState
	IsLoading bool
}

// CachedAuth - session cache entry of one browser client
type CachedAuth struct {
	ClientID    string
	Fingerprint string // fingerprint of the session cookie the entry was written for
	State       AuthState
	UpdatedAt   time.Time
	Revision    string // changes on every write, empty when nothing is cached
}

// Reply - buffered answer of the identity backend
type Reply struct {
	Status      int
	ContentType string
	Body        []byte
	SetCookies  []string
}

func (r *Reply) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

func (r *Reply) IsJSON() bool {
	return strings.Contains(r.ContentType, "application/json")
}

// RefreshPolicy - what the store does with a hydrated cache entry when the
// backend cannot be reached during a session refresh
type RefreshPolicy string

const (
	RefreshKeepCached    RefreshPolicy = "keep"
	RefreshDiscardCached RefreshPolicy = "discard"
)

const (
	// SessionCookieName - session cookie issued by the identity backend
	SessionCookieName = "better-auth.session_token"
	// ClientIDCookieName - per-browser id namespacing the session cache
	ClientIDCookieName = "taskboard.client_id"
)

// BrowserClient - what the server knows about the browser behind a request
type BrowserClient struct {
	ID           string // value of the client id cookie
	SessionToken string // value of the session cookie, empty when absent
	CookieHeader string // raw Cookie header, forwarded to the identity backend
}
