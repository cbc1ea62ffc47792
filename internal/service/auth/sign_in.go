package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	dto "taskboard/internal/api/dto/auth"
	"taskboard/internal/converter"
	"taskboard/internal/model"
	"taskboard/pkg/apierr"
)

// ErrInvalidCredentials - credentials rejected before reaching the backend
var ErrInvalidCredentials = errors.New("invalid credentials")

// SignIn posts the credentials to the identity backend. On success the
// returned user and session are committed and the backend's Set-Cookie
// lines are returned. On failure the state is left as it was.
func (s *Store) SignIn(ctx context.Context, email, password string) ([]string, error) {
	creds := model.Credentials{
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}

	return s.authenticate(ctx, creds, s.deps.Gateway.SignIn, msgLoginFailed)
}

type authCall func(ctx context.Context, creds model.Credentials) (*model.Reply, error)

func (s *Store) authenticate(ctx context.Context, creds model.Credentials, call authCall, fallback string) ([]string, error) {
	reply, err := call(ctx, creds)
	if err != nil {
		s.deps.Logger.Error("auth backend unreachable", "email", creds.Email, "error", err)
		return nil, &AuthError{Message: msgNetworkError, Err: err}
	}

	if !reply.OK() {
		msg, ok := apierr.Message(reply.Body)
		if !ok {
			msg = fallback
		}
		s.deps.Logger.Info("auth rejected", "email", creds.Email, "status", reply.Status)
		return nil, &AuthError{Status: reply.Status, Message: msg}
	}

	var payload dto.AuthResponse
	if err = json.Unmarshal(reply.Body, &payload); err != nil {
		s.deps.Logger.Error("undecodable auth payload", "email", creds.Email, "error", err)
		return nil, &AuthError{Status: reply.Status, Message: msgInvalidResponse, Err: ErrInvalidResponse}
	}

	state, ok := converter.ToAuthState(payload)
	if !ok {
		s.deps.Logger.Error("auth payload without user, session or token", "email", creds.Email)
		return nil, &AuthError{Status: reply.Status, Message: msgInvalidResponse, Err: ErrInvalidResponse}
	}

	s.adoptSessionCookie(reply.SetCookies)
	s.commit(ctx, state)

	s.deps.Logger.Info("signed in", "email", creds.Email, "user_id", state.User.ID)
	return reply.SetCookies, nil
}

// adoptSessionCookie switches the store to the session cookie the backend
// just issued, so the cache entry is fingerprinted for it
func (s *Store) adoptSessionCookie(setCookies []string) {
	for _, line := range setCookies {
		c, err := http.ParseSetCookie(line)
		if err != nil || c.Name != model.SessionCookieName || c.Value == "" {
			continue
		}
		s.mtx.Lock()
		s.client.SessionToken = c.Value
		s.mtx.Unlock()
		return
	}
}

func validateCredentials(creds model.Credentials) error {
	if _, err := mail.ParseAddress(creds.Email); err != nil || !strings.Contains(creds.Email, "@") {
		return &AuthError{
			Status:  http.StatusBadRequest,
			Message: "A valid email address is required",
			Err:     ErrInvalidCredentials,
		}
	}
	if creds.Password == "" {
		return &AuthError{
			Status:  http.StatusBadRequest,
			Message: "Password is required",
			Err:     ErrInvalidCredentials,
		}
	}
	return nil
}
