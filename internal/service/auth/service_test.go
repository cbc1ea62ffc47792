package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/repository/memory_cache_repo"
	"taskboard/internal/service"
	"taskboard/pkg/token"
)

const okPayload = `{
	"user": {"id": "u1", "email": "a@b.com", "name": "A", "emailVerified": true},
	"session": {"id": "s1", "expiresAt": "2099-01-01T00:00:00Z", "accessToken": "tok1", "refreshToken": "r1"}
}`

const noSession = `{"session":null,"user":null}`

var errDown = errors.New("connection refused")

// fakeGateway answers every call with a canned reply or error. When
// release is set, Session signals started and waits for release.
type fakeGateway struct {
	mtx     sync.Mutex
	reply   *model.Reply
	session *model.Reply // Session answer, reply when nil
	err     error
	calls   []string
	cookies []string
	creds   []model.Credentials

	started chan struct{}
	release chan struct{}
}

func (g *fakeGateway) record(call, cookie string, creds model.Credentials) (*model.Reply, error) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	g.calls = append(g.calls, call)
	g.cookies = append(g.cookies, cookie)
	g.creds = append(g.creds, creds)
	return g.reply, g.err
}

func (g *fakeGateway) Forward(_ context.Context, method, path string, _ []byte, cookie string) (*model.Reply, error) {
	return g.record(method+" "+path, cookie, model.Credentials{})
}

func (g *fakeGateway) SignIn(_ context.Context, creds model.Credentials) (*model.Reply, error) {
	return g.record("sign-in", "", creds)
}

func (g *fakeGateway) SignUp(_ context.Context, creds model.Credentials) (*model.Reply, error) {
	return g.record("sign-up", "", creds)
}

func (g *fakeGateway) Session(_ context.Context, cookie string) (*model.Reply, error) {
	if g.release != nil {
		g.started <- struct{}{}
		<-g.release
	}
	reply, err := g.record("session", cookie, model.Credentials{})
	if g.session != nil {
		return g.session, err
	}
	return reply, err
}

// slowGateway holds every Session call until release is closed
func slowGateway(session *model.Reply) *fakeGateway {
	return &fakeGateway{
		reply:   jsonReply(http.StatusOK, okPayload),
		session: session,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

// startRefresh runs RefreshSession until it is inside the backend call
func startRefresh(s *Store, gw *fakeGateway) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.RefreshSession(context.Background()) }()
	<-gw.started
	return errCh
}

func (g *fakeGateway) SignOut(_ context.Context, cookie string) (*model.Reply, error) {
	return g.record("sign-out", cookie, model.Credentials{})
}

func jsonReply(status int, body string, cookies ...string) *model.Reply {
	return &model.Reply{
		Status:      status,
		ContentType: "application/json",
		Body:        []byte(body),
		SetCookies:  cookies,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(gw *fakeGateway, cache *memory_cache_repo.CacheRepo, policy model.RefreshPolicy, client model.BrowserClient) *Store {
	f := NewFactory(Deps{
		Gateway: gw,
		Cache:   cache,
		Policy:  policy,
		Logger:  discardLogger(),
	})
	return f.NewStore(client).(*Store)
}

func browser() model.BrowserClient {
	return model.BrowserClient{
		ID:           "client-1",
		SessionToken: "cookie-1",
		CookieHeader: model.SessionCookieName + "=cookie-1",
	}
}

func signedInStore(t *testing.T, gw *fakeGateway, cache *memory_cache_repo.CacheRepo) *Store {
	t.Helper()
	gw.reply = jsonReply(http.StatusOK, okPayload)
	return signInWith(t, gw, cache)
}

// signInWith signs browser() in through gw, which must answer with a session
func signInWith(t *testing.T, gw *fakeGateway, cache *memory_cache_repo.CacheRepo) *Store {
	t.Helper()
	s := newTestStore(gw, cache, model.RefreshKeepCached, browser())
	if _, err := s.SignIn(context.Background(), "a@b.com", "secret123"); err != nil {
		t.Fatalf("SignIn() error: %v", err)
	}
	return s
}

func TestSignIn_CommitsAndSetsToken(t *testing.T) {
	gw := &fakeGateway{reply: jsonReply(http.StatusOK, okPayload, model.SessionCookieName+"=fresh; Path=/; HttpOnly")}
	cache := memory_cache_repo.NewCacheRepository()
	s := newTestStore(gw, cache, model.RefreshKeepCached, browser())

	cookies, err := s.SignIn(context.Background(), " a@b.com ", "secret123")
	if err != nil {
		t.Fatalf("SignIn() error: %v", err)
	}
	if len(cookies) != 1 {
		t.Errorf("expected the backend cookie to be returned, got %v", cookies)
	}
	if gw.creds[0].Email != "a@b.com" {
		t.Errorf("email not trimmed: %q", gw.creds[0].Email)
	}

	st := s.State()
	if st.User == nil || st.User.ID != "u1" || st.Session == nil || st.Session.ID != "s1" {
		t.Fatalf("unexpected state %+v", st)
	}
	if got := s.Tokens().AccessToken(); got != "tok1" {
		t.Errorf("AccessToken() = %q, want tok1", got)
	}

	entry, err := cache.GetAuth(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("expected cache entry: %v", err)
	}
	if !token.MatchFingerprint("fresh", entry.Fingerprint) {
		t.Error("cache entry should be fingerprinted for the new session cookie")
	}
}

func TestSignIn_FailuresLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		reply   *model.Reply
		err     error
		wantMsg string
		wantErr error
	}{
		{
			name:    "backend detail",
			reply:   jsonReply(http.StatusUnauthorized, `{"detail":"Invalid email or password"}`),
			wantMsg: "Invalid email or password",
		},
		{
			name:    "backend error field",
			reply:   jsonReply(http.StatusBadRequest, `{"error":"bad things"}`),
			wantMsg: "bad things",
		},
		{
			name:    "no message",
			reply:   &model.Reply{Status: http.StatusBadGateway, ContentType: "text/html", Body: []byte("<html>")},
			wantMsg: "Login failed",
		},
		{
			name:    "missing token",
			reply:   jsonReply(http.StatusOK, `{"user":{"id":"u2"},"session":{"id":"s2"}}`),
			wantMsg: "Invalid response from server",
			wantErr: ErrInvalidResponse,
		},
		{
			name:    "not json",
			reply:   &model.Reply{Status: http.StatusOK, Body: []byte("ok")},
			wantMsg: "Invalid response from server",
			wantErr: ErrInvalidResponse,
		},
		{
			name:    "network",
			err:     errDown,
			wantMsg: "Network error occurred",
			wantErr: errDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			s := signedInStore(t, gw, memory_cache_repo.NewCacheRepository())
			before := s.State()

			gw.reply, gw.err = tt.reply, tt.err
			_, err := s.SignIn(context.Background(), "a@b.com", "other")

			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected *AuthError, got %v", err)
			}
			if authErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", authErr.Message, tt.wantMsg)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v in chain, got %v", tt.wantErr, err)
			}

			after := s.State()
			if after.User.ID != before.User.ID || after.Session.AccessToken != before.Session.AccessToken {
				t.Errorf("state changed: %+v -> %+v", before, after)
			}
			if s.Tokens().AccessToken() != "tok1" {
				t.Errorf("token changed to %q", s.Tokens().AccessToken())
			}
		})
	}
}

func TestSignIn_Validation(t *testing.T) {
	gw := &fakeGateway{reply: jsonReply(http.StatusOK, okPayload)}
	s := newTestStore(gw, memory_cache_repo.NewCacheRepository(), model.RefreshKeepCached, browser())

	for _, c := range [][2]string{{"not-an-email", "pw"}, {"a@b.com", ""}} {
		_, err := s.SignIn(context.Background(), c[0], c[1])
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("SignIn(%q) error = %v, want ErrInvalidCredentials", c[0], err)
		}
	}
	if len(gw.calls) != 0 {
		t.Errorf("invalid credentials reached the backend: %v", gw.calls)
	}
}

func TestSignUp_FallbackMessage(t *testing.T) {
	gw := &fakeGateway{reply: jsonReply(http.StatusConflict, `{}`)}
	s := newTestStore(gw, memory_cache_repo.NewCacheRepository(), model.RefreshKeepCached, browser())

	_, err := s.SignUp(context.Background(), "a@b.com", "secret123", " Ann ")

	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Message != "Registration failed" {
		t.Fatalf("unexpected error %v", err)
	}
	if authErr.Status != http.StatusConflict {
		t.Errorf("Status = %d", authErr.Status)
	}
	if gw.creds[0].Name != "Ann" {
		t.Errorf("name not trimmed: %q", gw.creds[0].Name)
	}
}

func TestSignOut_ClearsRegardlessOfBackend(t *testing.T) {
	for _, backendErr := range []error{nil, errDown} {
		gw := &fakeGateway{}
		cache := memory_cache_repo.NewCacheRepository()
		s := signedInStore(t, gw, cache)

		gw.reply, gw.err = jsonReply(http.StatusOK, `{"success":true}`), backendErr
		s.SignOut(context.Background())

		st := s.State()
		if st.User != nil || st.Session != nil {
			t.Errorf("state not cleared: %+v", st)
		}
		if s.Tokens().AccessToken() != "" {
			t.Error("token not cleared")
		}
		if cache.Len() != 0 {
			t.Error("cache not cleared")
		}
		if gw.calls[len(gw.calls)-1] != "sign-out" {
			t.Errorf("backend not notified: %v", gw.calls)
		}
	}
}

func TestRefreshSession(t *testing.T) {
	tests := []struct {
		name     string
		reply    *model.Reply
		err      error
		policy   model.RefreshPolicy
		cached   bool
		wantUser bool
		wantErr  bool
	}{
		{name: "backend confirms", reply: jsonReply(http.StatusOK, okPayload), wantUser: true},
		{name: "backend says none", reply: jsonReply(http.StatusOK, `{"session":null,"user":null}`), cached: true},
		{name: "backend 401", reply: jsonReply(http.StatusUnauthorized, `{}`), cached: true},
		{name: "down, keep cached", err: errDown, policy: model.RefreshKeepCached, cached: true, wantUser: true, wantErr: true},
		{name: "down, discard cached", err: errDown, policy: model.RefreshDiscardCached, cached: true, wantErr: true},
		{name: "down, nothing cached", err: errDown, policy: model.RefreshKeepCached, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := memory_cache_repo.NewCacheRepository()
			if tt.cached {
				signedInStore(t, &fakeGateway{}, cache)
			}

			gw := &fakeGateway{reply: tt.reply, err: tt.err}
			s := newTestStore(gw, cache, tt.policy, browser())
			if !s.State().IsLoading {
				t.Error("new store should be loading")
			}

			err := s.RefreshSession(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("RefreshSession() error = %v, wantErr %v", err, tt.wantErr)
			}

			st := s.State()
			if st.IsLoading {
				t.Error("still loading after refresh")
			}
			if (st.User != nil) != tt.wantUser || (st.Session != nil) != tt.wantUser {
				t.Errorf("state = %+v, want user %v", st, tt.wantUser)
			}
			if (s.Tokens().AccessToken() != "") != tt.wantUser {
				t.Errorf("token %q does not follow state", s.Tokens().AccessToken())
			}
			if gw.cookies[0] != browser().CookieHeader {
				t.Errorf("cookie header not forwarded: %q", gw.cookies[0])
			}
		})
	}
}

func TestRefreshSession_IgnoresForeignOrExpiredCache(t *testing.T) {
	ctx := context.Background()
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name        string
		fingerprint string
		expiresAt   time.Time
	}{
		{name: "other session cookie", fingerprint: token.Fingerprint("someone-else"), expiresAt: future},
		{name: "expired", fingerprint: token.Fingerprint("cookie-1"), expiresAt: past},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := memory_cache_repo.NewCacheRepository()
			err := cache.SaveAuth(ctx, model.CachedAuth{
				ClientID:    "client-1",
				Fingerprint: tt.fingerprint,
				State: model.AuthState{
					User:    &model.User{ID: "u1"},
					Session: &model.Session{ID: "s1", AccessToken: "old", ExpiresAt: tt.expiresAt},
				},
			})
			if err != nil {
				t.Fatal(err)
			}

			gw := &fakeGateway{err: errDown}
			s := newTestStore(gw, cache, model.RefreshKeepCached, browser())
			_ = s.RefreshSession(ctx)

			if st := s.State(); st.User != nil {
				t.Errorf("untrusted cache entry was used: %+v", st)
			}
		})
	}
}

func TestRefreshSession_OwnSignInWins(t *testing.T) {
	ctx := context.Background()
	cache := memory_cache_repo.NewCacheRepository()
	gw := slowGateway(jsonReply(http.StatusOK, noSession))
	s := newTestStore(gw, cache, model.RefreshKeepCached, browser())

	errCh := startRefresh(s, gw)
	if _, err := s.SignIn(ctx, "a@b.com", "secret123"); err != nil {
		t.Fatal(err)
	}
	close(gw.release)

	if err := <-errCh; !errors.Is(err, service.ErrSessionSuperseded) {
		t.Errorf("RefreshSession() error = %v, want superseded", err)
	}
	if st := s.State(); st.User == nil || s.Tokens().AccessToken() != "tok1" {
		t.Errorf("sign-in was overwritten: %+v", st)
	}
	if entry, err := cache.GetAuth(ctx, "client-1"); err != nil || entry.State.Session.AccessToken != "tok1" {
		t.Errorf("cache entry of the sign-in lost: %+v, %v", entry, err)
	}
}

// Every request builds its own store, so a refresh and a sign-in of one
// browser race through separate stores that only share the cache.
func TestRefreshSession_NewerCommitOfOtherStoreWins(t *testing.T) {
	newCookie := model.SessionCookieName + "=cookie-2; Path=/; HttpOnly"

	tests := []struct {
		name         string
		cachedBefore bool
		refreshReply *model.Reply
		other        func(t *testing.T, cache *memory_cache_repo.CacheRepo)
		wantErr      bool
		wantToken    string // token of the refreshing store afterwards
		wantCached   string // cached token afterwards, "" for no entry
	}{
		{
			name:         "sign-in with a new cookie, refresh says no session",
			refreshReply: jsonReply(http.StatusOK, noSession),
			other: func(t *testing.T, cache *memory_cache_repo.CacheRepo) {
				gw := &fakeGateway{reply: jsonReply(http.StatusOK, okPayload, newCookie)}
				signInWith(t, gw, cache)
			},
			wantErr:    true,
			wantCached: "tok1",
		},
		{
			name:         "sign-in with a new cookie, refresh confirms the old session",
			refreshReply: jsonReply(http.StatusOK, strings.Replace(okPayload, "tok1", "tok0", 1)),
			other: func(t *testing.T, cache *memory_cache_repo.CacheRepo) {
				gw := &fakeGateway{reply: jsonReply(http.StatusOK, okPayload, newCookie)}
				signInWith(t, gw, cache)
			},
			wantErr:    true,
			wantCached: "tok1",
		},
		{
			name:         "parallel request with the same cookie",
			refreshReply: jsonReply(http.StatusOK, strings.Replace(okPayload, "tok1", "tok0", 1)),
			other: func(t *testing.T, cache *memory_cache_repo.CacheRepo) {
				signedInStore(t, &fakeGateway{}, cache)
			},
			wantToken:  "tok1",
			wantCached: "tok1",
		},
		{
			name:         "sign-out while the cached session is confirmed",
			cachedBefore: true,
			refreshReply: jsonReply(http.StatusOK, okPayload),
			other: func(t *testing.T, cache *memory_cache_repo.CacheRepo) {
				gw := &fakeGateway{reply: jsonReply(http.StatusOK, `{"success":true}`)}
				newTestStore(gw, cache, model.RefreshKeepCached, browser()).SignOut(context.Background())
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cache := memory_cache_repo.NewCacheRepository()
			if tt.cachedBefore {
				signedInStore(t, &fakeGateway{}, cache)
			}

			gw := slowGateway(tt.refreshReply)
			refreshing := newTestStore(gw, cache, model.RefreshKeepCached, browser())
			errCh := startRefresh(refreshing, gw)

			tt.other(t, cache)
			close(gw.release)

			err := <-errCh
			if tt.wantErr != errors.Is(err, service.ErrSessionSuperseded) {
				t.Errorf("RefreshSession() error = %v, want superseded %v", err, tt.wantErr)
			}
			if got := refreshing.Tokens().AccessToken(); got != tt.wantToken {
				t.Errorf("refreshing store token = %q, want %q", got, tt.wantToken)
			}

			entry, err := cache.GetAuth(ctx, "client-1")
			switch {
			case tt.wantCached == "":
				if !errors.Is(err, repository.ErrCacheMiss) {
					t.Errorf("stale refresh recreated the entry: %+v", entry)
				}
			case err != nil:
				t.Errorf("stale refresh wiped the newer entry: %v", err)
			case entry.State.Session.AccessToken != tt.wantCached:
				t.Errorf("cached token = %q, want %q", entry.State.Session.AccessToken, tt.wantCached)
			}
		})
	}
}

func TestCacheExpired_FallsBackToTokenClaim(t *testing.T) {
	now := time.Now()
	withExpiry := &model.Session{ExpiresAt: now.Add(-time.Minute), AccessToken: "opaque"}
	if !cacheExpired(withExpiry, now) {
		t.Error("past expiresAt should be expired")
	}

	opaque := &model.Session{AccessToken: "opaque"}
	if cacheExpired(opaque, now) {
		t.Error("opaque token without expiry should be trusted")
	}
}
