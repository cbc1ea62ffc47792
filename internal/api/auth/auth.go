package auth

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"

	dto "taskboard/internal/api/dto/auth"
	"taskboard/internal/config"
	"taskboard/internal/converter"
	"taskboard/internal/middleware"
	"taskboard/internal/model"
	"taskboard/internal/service"
	authService "taskboard/internal/service/auth"
	"taskboard/pkg/req"
	"taskboard/pkg/resp"
)

type HandlerDeps struct {
	Stores       service.AuthStoreFactory
	Guard        config.GuardConfig
	CookieSecure bool
	Logger       *slog.Logger
}

type Handler struct {
	stores       service.AuthStoreFactory
	guard        config.GuardConfig
	cookieSecure bool
	logger       *slog.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		stores:       deps.Stores,
		guard:        deps.Guard,
		cookieSecure: deps.CookieSecure,
		logger:       logger.With("component", "auth_pages"),
	}
}

// LoginPage describes the login form
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	resp.WriteJSONResponse(w, http.StatusOK, dto.PageResponse{
		Page:     "login",
		Action:   h.guard.LoginPath(),
		AltPage:  registerPath(h.guard),
		Redirect: h.guard.DashboardPath(),
	})
}

// RegisterPage describes the registration form
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	resp.WriteJSONResponse(w, http.StatusOK, dto.PageResponse{
		Page:     "register",
		Action:   registerPath(h.guard),
		AltPage:  h.guard.LoginPath(),
		Redirect: h.guard.DashboardPath(),
	})
}

// Login signs the browser in, relays the session cookie and redirects to
// the dashboard
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		resp.WriteJSONError(w, http.StatusBadRequest, "invalid request")
		return
	}

	store := h.stores.NewStore(middleware.BrowserClientFrom(r))
	cookies, err := store.SignIn(r.Context(), creds.Email, creds.Password)
	if err != nil {
		h.writeAuthError(w, err, http.StatusUnauthorized)
		return
	}

	relayCookies(w, cookies)
	http.Redirect(w, r, h.guard.DashboardPath(), http.StatusSeeOther)
}

// Register creates the account, signs it in and redirects to the dashboard
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		resp.WriteJSONError(w, http.StatusBadRequest, "invalid request")
		return
	}

	store := h.stores.NewStore(middleware.BrowserClientFrom(r))
	cookies, err := store.SignUp(r.Context(), creds.Email, creds.Password, creds.Name)
	if err != nil {
		h.writeAuthError(w, err, http.StatusBadRequest)
		return
	}

	relayCookies(w, cookies)
	http.Redirect(w, r, h.guard.DashboardPath(), http.StatusSeeOther)
}

// SignOut is the only logout path: explicit logouts, requests without a
// valid session and 401 answers of the task backend all end here. It
// clears the store, expires the cookies and redirects to the login page.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.StoreFrom(r.Context())
	if !ok {
		store = h.stores.NewStore(middleware.BrowserClientFrom(r))
	}

	relayCookies(w, store.SignOut(r.Context()))
	deleteSessionCookie(w, h.cookieSecure)
	deleteClientIDCookie(w, h.cookieSecure)

	h.logger.Info("signed out", "client_id", middleware.ClientIDFrom(r.Context()), "path", r.URL.Path)
	http.Redirect(w, r, h.guard.LoginPath(), http.StatusSeeOther)
}

func (h *Handler) writeAuthError(w http.ResponseWriter, err error, rejected int) {
	var authErr *authService.AuthError
	if !errors.As(err, &authErr) {
		h.logger.Error("unexpected auth error", "error", err)
		resp.WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	status := rejected
	switch {
	case errors.Is(err, authService.ErrInvalidCredentials):
		status = http.StatusBadRequest
	case authErr.Status == 0 || errors.Is(err, authService.ErrInvalidResponse):
		status = http.StatusBadGateway
	case authErr.Status >= http.StatusBadRequest:
		status = authErr.Status
	}
	resp.WriteJSONError(w, status, authErr.Message)
}

// decodeCredentials accepts JSON and plain form posts
func decodeCredentials(r *http.Request) (model.Credentials, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return model.Credentials{}, err
		}
		return model.Credentials{
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
			Name:     r.PostFormValue("name"),
		}, nil
	}

	body, err := req.Decode[dto.SignUpRequest](r.Body)
	if err != nil {
		return model.Credentials{}, err
	}
	return converter.SignUpRequestToCredentials(body), nil
}

func registerPath(guard config.GuardConfig) string {
	for _, p := range guard.AuthPages() {
		if p != guard.LoginPath() {
			return p
		}
	}
	return guard.LoginPath()
}

// relayCookies copies the backend's Set-Cookie lines to the browser
func relayCookies(w http.ResponseWriter, cookies []string) {
	for _, c := range cookies {
		w.Header().Add("Set-Cookie", c)
	}
}

// deleteSessionCookie expires the session cookie
func deleteSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     model.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// deleteClientIDCookie expires the client id cookie
func deleteClientIDCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     model.ClientIDCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
