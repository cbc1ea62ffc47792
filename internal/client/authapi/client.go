// Package authapi talks to the backend identity service.
//
// Every call is buffered into a model.Reply so that callers can both relay
// it verbatim (the same-origin proxy routes) and decode it (the auth store).
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"taskboard/internal/converter"
	"taskboard/internal/model"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	SignInPath  = "/api/auth/sign-in"
	SignUpPath  = "/api/auth/sign-up"
	SessionPath = "/api/auth/use-session"
	SignOutPath = "/api/auth/sign-out"

	// RequestIDHeader carries the request id to the backend
	RequestIDHeader = "X-Request-ID"

	// maxReplySize bounds reads of backend replies (4 MB)
	maxReplySize int64 = 4 << 20
)

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a client for the identity service at baseURL.
// A nil httpClient gets a client with the given timeout.
func New(baseURL string, httpClient *http.Client, timeout time.Duration, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
			// Redirects are relayed to the browser, not followed here
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
	}
}

// Forward sends body to path and buffers the reply. cookie, when non-empty,
// is sent as the Cookie header.
func (c *Client) Forward(ctx context.Context, method, path string, body []byte, cookie string) (*model.Reply, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	r, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth request: %w", err)
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "application/json")
	r.Header.Set(RequestIDHeader, requestID(ctx))
	if cookie != "" {
		r.Header.Set("Cookie", cookie)
	}

	resp, err := c.http.Do(r)
	if err != nil {
		return nil, fmt.Errorf("auth backend %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read auth backend reply: %w", err)
	}

	c.logger.Debug("auth backend reply",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"has_cookie", len(resp.Header.Values("Set-Cookie")) > 0,
	)

	return &model.Reply{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
		SetCookies:  resp.Header.Values("Set-Cookie"),
	}, nil
}

func (c *Client) SignIn(ctx context.Context, creds model.Credentials) (*model.Reply, error) {
	body, err := json.Marshal(converter.ToSignInRequest(creds))
	if err != nil {
		return nil, err
	}
	return c.Forward(ctx, http.MethodPost, SignInPath, body, "")
}

func (c *Client) SignUp(ctx context.Context, creds model.Credentials) (*model.Reply, error) {
	body, err := json.Marshal(converter.ToSignUpRequest(creds))
	if err != nil {
		return nil, err
	}
	return c.Forward(ctx, http.MethodPost, SignUpPath, body, "")
}

func (c *Client) Session(ctx context.Context, cookie string) (*model.Reply, error) {
	return c.Forward(ctx, http.MethodGet, SessionPath, nil, cookie)
}

func (c *Client) SignOut(ctx context.Context, cookie string) (*model.Reply, error) {
	return c.Forward(ctx, http.MethodPost, SignOutPath, nil, cookie)
}

// requestID reuses the inbound chi request id so logs on both sides line up
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
