// Package proxy serves the same-origin auth routes of the browser. Each
// route forwards to the identity backend and relays its answer, including
// the session cookie, so the cookie is scoped to this origin.
package proxy

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	dto "taskboard/internal/api/dto/auth"
	"taskboard/internal/client/authapi"
	"taskboard/internal/model"
	"taskboard/internal/service"
	"taskboard/pkg/resp"
)

const (
	msgInternal           = "Internal server error"
	msgLoginFailed        = "Login failed"
	msgRegistrationFailed = "Registration failed"

	// maxRequestSize bounds credential bodies (64 KB)
	maxRequestSize int64 = 64 << 10
)

type HandlerDeps struct {
	Gateway service.AuthGateway
	Logger  *slog.Logger
}

type Handler struct {
	gateway service.AuthGateway
	logger  *slog.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		gateway: deps.Gateway,
		logger:  logger.With("component", "auth_proxy"),
	}
}

// SignIn forwards {email, password} to the backend sign-in endpoint
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	h.forwardCredentials(w, r, authapi.SignInPath, msgLoginFailed)
}

// SignUp forwards {email, password, name} to the backend sign-up endpoint
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	h.forwardCredentials(w, r, authapi.SignUpPath, msgRegistrationFailed)
}

// UseSession asks the backend for the session behind the browser's cookies.
// Any failure degrades to a logged out answer.
func (h *Handler) UseSession(w http.ResponseWriter, r *http.Request) {
	reply, err := h.gateway.Session(r.Context(), r.Header.Get("Cookie"))
	if err != nil {
		h.logger.Warn("session check failed", "error", err)
		writeNoSession(w)
		return
	}
	if !reply.IsJSON() || !json.Valid(reply.Body) {
		h.logger.Warn("session check returned non-JSON", "status", reply.Status, "content_type", reply.ContentType)
		writeNoSession(w)
		return
	}

	relayCookies(w, reply)
	resp.WriteRawJSON(w, reply.Status, reply.Body)
}

// SignOut tells the backend to drop the session. It always succeeds
// towards the browser.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	reply, err := h.gateway.SignOut(r.Context(), r.Header.Get("Cookie"))
	if err != nil {
		h.logger.Warn("backend sign-out failed", "error", err)
		resp.WriteJSONResponse(w, http.StatusOK, map[string]bool{"success": true})
		return
	}

	relayCookies(w, reply)
	if reply.IsJSON() && json.Valid(reply.Body) {
		resp.WriteRawJSON(w, reply.Status, reply.Body)
		return
	}
	resp.WriteJSONResponse(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) forwardCredentials(w http.ResponseWriter, r *http.Request, path, fallback string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize+1))
	if err != nil || int64(len(body)) > maxRequestSize || !json.Valid(body) {
		h.logger.Error("invalid credential body", "path", path, "size", len(body), "error", err)
		resp.WriteJSONError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	reply, err := h.gateway.Forward(r.Context(), http.MethodPost, path, body, "")
	if err != nil {
		h.logger.Error("auth backend unreachable", "path", path, "error", err)
		resp.WriteJSONError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	if reply.IsJSON() {
		if !json.Valid(reply.Body) {
			h.logger.Error("auth backend sent malformed JSON", "path", path, "status", reply.Status)
			resp.WriteJSONError(w, http.StatusInternalServerError, msgInternal)
			return
		}
		relayCookies(w, reply)
		resp.WriteRawJSON(w, reply.Status, reply.Body)
		return
	}

	text := strings.TrimSpace(string(reply.Body))
	if text == "" {
		text = fallback
	}
	h.logger.Warn("auth backend sent non-JSON", "path", path, "status", reply.Status)

	relayCookies(w, reply)
	resp.WriteJSONResponse(w, reply.Status, dto.ErrorResponse{Error: text})
}

// relayCookies copies every Set-Cookie line of the backend
func relayCookies(w http.ResponseWriter, reply *model.Reply) {
	for _, c := range reply.SetCookies {
		w.Header().Add("Set-Cookie", c)
	}
}

func writeNoSession(w http.ResponseWriter) {
	resp.WriteJSONResponse(w, http.StatusOK, dto.AuthResponse{})
}
