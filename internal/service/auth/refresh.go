package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	dto "taskboard/internal/api/dto/auth"
	"taskboard/internal/converter"
	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/pkg/token"
)

// RefreshSession hydrates the state from the session cache, then asks the
// backend whether the session is still valid and commits its answer.
// If the backend cannot be reached the refresh policy decides whether a
// hydrated entry stays live; the returned error wraps
// service.ErrSessionUnavailable either way. A result that lost the race
// against a newer sign-in or sign-out of the same browser is dropped and
// service.ErrSessionSuperseded is returned.
func (s *Store) RefreshSession(ctx context.Context) error {
	defer s.doneLoading()

	gen := s.generation()
	seen, hydrated := s.hydrateFromCache(ctx)

	reply, err := s.deps.Gateway.Session(ctx, s.client.CookieHeader)
	if err != nil {
		s.deps.Logger.Warn("session refresh failed",
			"client_id", s.client.ID,
			"policy", s.deps.Policy,
			"hydrated", hydrated,
			"error", err,
		)
		if !hydrated || s.deps.Policy == model.RefreshDiscardCached {
			if !s.commitIf(ctx, gen, &seen, model.AuthState{}) {
				return s.superseded(ctx, gen)
			}
		}
		return fmt.Errorf("failed to refresh session: %w: %w", service.ErrSessionUnavailable, err)
	}

	state, ok := sessionState(reply)
	if !ok {
		s.deps.Logger.Debug("no valid session from backend", "client_id", s.client.ID, "status", reply.Status)
	}
	if !s.commitIf(ctx, gen, &seen, state) {
		return s.superseded(ctx, gen)
	}
	return nil
}

var errSuperseded = fmt.Errorf("session refresh dropped: %w", service.ErrSessionSuperseded)

// superseded handles a refresh that lost against another commit. An entry
// written meanwhile for the same session cookie (a parallel request of the
// same browser) is taken over; anything else means the browser signed in
// or out again and its cookies are newer than this request's.
func (s *Store) superseded(ctx context.Context, gen uint64) error {
	if s.generation() != gen {
		return errSuperseded
	}
	if _, ok := s.hydrateFromCache(ctx); ok {
		return nil
	}
	s.forget()
	return errSuperseded
}

// hydrateFromCache reads the cache entry of the client and trusts it only if
// it was written for the session cookie the browser still sends and has not
// expired. The entry's revision is returned even when it is not trusted.
func (s *Store) hydrateFromCache(ctx context.Context) (cacheView, bool) {
	s.mtx.Lock()
	sessionToken := s.client.SessionToken
	s.mtx.Unlock()

	if s.client.ID == "" {
		return cacheView{}, false
	}

	entry, err := s.deps.Cache.GetAuth(ctx, s.client.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCacheMiss) {
			return cacheView{known: true}, false
		}
		s.deps.Logger.Warn("failed to read session cache", "client_id", s.client.ID, "error", err)
		return cacheView{}, false
	}
	seen := cacheView{revision: entry.Revision, known: true}

	if sessionToken == "" || !entry.State.Authenticated() || !token.MatchFingerprint(sessionToken, entry.Fingerprint) {
		return seen, false
	}
	if cacheExpired(entry.State.Session, s.deps.Now()) {
		return seen, false
	}

	s.hydrate(entry.State)
	return seen, true
}

// cacheExpired uses the session expiry, else the access token exp claim
func cacheExpired(session *model.Session, now time.Time) bool {
	if !session.ExpiresAt.IsZero() {
		return session.Expired(now)
	}
	return token.Expired(session.AccessToken, now)
}

// sessionState decodes a session answer. Anything but a 2xx JSON answer with
// user, session and access token counts as logged out.
func sessionState(reply *model.Reply) (model.AuthState, bool) {
	if !reply.OK() {
		return model.AuthState{}, false
	}

	var payload dto.AuthResponse
	if err := json.Unmarshal(reply.Body, &payload); err != nil {
		return model.AuthState{}, false
	}
	return converter.ToAuthState(payload)
}
