// Package auth is the auth state store: the single source of truth for who
// is signed in for one browser client and which bearer token the task API
// client sends.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/pkg/token"
)

const (
	msgLoginFailed        = "Login failed"
	msgRegistrationFailed = "Registration failed"
	msgInvalidResponse    = "Invalid response from server"
	msgNetworkError       = "Network error occurred"
)

// ErrInvalidResponse - 2xx answer without user, session or access token
var ErrInvalidResponse = errors.New(msgInvalidResponse)

// AuthError - failed sign-in or sign-up, Message is safe to show to the user
type AuthError struct {
	Status  int // backend status, 0 when the backend was not reached
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

type Deps struct {
	Gateway service.AuthGateway
	Cache   repository.SessionCacheRepository
	Policy  model.RefreshPolicy
	Logger  *slog.Logger
	Now     func() time.Time
}

// Factory builds one Store per browser client
type Factory struct {
	deps Deps
}

func NewFactory(deps Deps) *Factory {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Policy == "" {
		deps.Policy = model.RefreshKeepCached
	}
	return &Factory{deps: deps}
}

func (f *Factory) NewStore(client model.BrowserClient) service.AuthStore {
	return newStore(f.deps, client)
}

// SessionContext holds the bearer token handed to the task API client.
// Only the store that owns it can change the token.
type SessionContext struct {
	mtx   sync.RWMutex
	token string
}

func (c *SessionContext) AccessToken() string {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.token
}

func (c *SessionContext) set(token string) {
	c.mtx.Lock()
	c.token = token
	c.mtx.Unlock()
}

type Store struct {
	deps    Deps
	session *SessionContext

	mtx       sync.Mutex
	client    model.BrowserClient
	state     model.AuthState
	isLoading bool
	// gen counts commits of this store, a refresh only commits if no other
	// commit happened since it started
	gen uint64
}

func newStore(deps Deps, client model.BrowserClient) *Store {
	return &Store{
		deps:      deps,
		session:   &SessionContext{},
		client:    client,
		isLoading: true,
	}
}

// State returns a copy of the current state
func (s *Store) State() model.AuthSnapshot {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	snap := model.AuthSnapshot{IsLoading: s.isLoading}
	if s.state.Authenticated() {
		user := *s.state.User
		session := *s.state.Session
		snap.User = &user
		snap.Session = &session
	}
	return snap
}

func (s *Store) Tokens() service.TokenSource {
	return s.session
}

// cacheView - the session cache entry a refresh saw when it started
type cacheView struct {
	revision string
	known    bool // false when the cache could not be read
}

// commit is the only path that changes user and session. It updates the
// session cache and the session context token in the same call.
func (s *Store) commit(ctx context.Context, state model.AuthState) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.commitLocked(ctx, state, nil)
}

// commitIf commits only when no commit of this store happened after gen was
// observed and the cache entry is still the one the caller saw. Commits of
// other stores of the same browser show up as a changed cache revision.
func (s *Store) commitIf(ctx context.Context, gen uint64, seen *cacheView, state model.AuthState) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.gen != gen {
		s.deps.Logger.Debug("dropping stale session refresh", "client_id", s.client.ID)
		return false
	}
	return s.commitLocked(ctx, state, seen)
}

func (s *Store) commitLocked(ctx context.Context, state model.AuthState, seen *cacheView) bool {
	if !state.Authenticated() {
		state = model.AuthState{}
	}

	if err := s.writeCache(ctx, state, seen); err != nil {
		if errors.Is(err, repository.ErrCacheConflict) {
			s.deps.Logger.Debug("dropping stale session refresh, cache entry changed", "client_id", s.client.ID)
			return false
		}
		s.deps.Logger.Warn("failed to update session cache",
			"client_id", s.client.ID,
			"signed_in", state.Authenticated(),
			"error", err,
		)
	}

	s.gen++
	s.state = state
	if state.Authenticated() {
		s.session.set(state.Session.AccessToken)
	} else {
		s.session.set("")
	}
	return true
}

// writeCache saves or clears the entry of the client, conditionally when
// seen tells which entry the caller based its state on
func (s *Store) writeCache(ctx context.Context, state model.AuthState, seen *cacheView) error {
	conditional := seen != nil && seen.known

	if !state.Authenticated() {
		if conditional {
			return s.deps.Cache.ClearAuthIf(ctx, s.client.ID, seen.revision)
		}
		return s.deps.Cache.ClearAuth(ctx, s.client.ID)
	}

	entry := model.CachedAuth{
		ClientID:    s.client.ID,
		Fingerprint: token.Fingerprint(s.client.SessionToken),
		State:       state,
		UpdatedAt:   s.deps.Now(),
	}
	if conditional {
		return s.deps.Cache.SaveAuthIf(ctx, entry, seen.revision)
	}
	return s.deps.Cache.SaveAuth(ctx, entry)
}

// hydrate sets state from the cache without writing it back. It does not
// count as a commit.
func (s *Store) hydrate(state model.AuthState) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.state = state
	s.session.set(state.Session.AccessToken)
}

// forget drops the in-memory state without touching the cache
func (s *Store) forget() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.state = model.AuthState{}
	s.session.set("")
}

func (s *Store) generation() uint64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.gen
}

func (s *Store) doneLoading() {
	s.mtx.Lock()
	s.isLoading = false
	s.mtx.Unlock()
}
