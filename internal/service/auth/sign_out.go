package auth

import (
	"context"

	"taskboard/internal/model"
)

// SignOut clears the state first, then tells the backend. The backend call
// is best effort: failures are logged and the state stays cleared.
func (s *Store) SignOut(ctx context.Context) []string {
	s.commit(ctx, model.AuthState{})

	s.mtx.Lock()
	cookie := s.client.CookieHeader
	s.mtx.Unlock()

	if cookie == "" {
		return nil
	}

	reply, err := s.deps.Gateway.SignOut(ctx, cookie)
	if err != nil {
		s.deps.Logger.Warn("backend sign-out failed", "client_id", s.client.ID, "error", err)
		return nil
	}
	if !reply.OK() {
		s.deps.Logger.Warn("backend sign-out rejected", "client_id", s.client.ID, "status", reply.Status)
	}
	return reply.SetCookies
}
