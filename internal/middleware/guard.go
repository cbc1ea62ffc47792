package middleware

import (
	"net/http"
	"strings"

	"taskboard/internal/config"
	"taskboard/internal/model"
)

// Guard redirects by session cookie presence only: protected pages need the
// cookie, auth pages are skipped when it is there. The backend still
// authorizes every API call.
// Only page loads (GET, HEAD) are sent away from auth pages, so a form post
// with a stale cookie can still sign in.
func Guard(cfg config.GuardConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasSession := HasSessionCookie(r)
			path := r.URL.Path

			switch {
			case !hasSession && matchPrefix(path, cfg.ProtectedPrefixes()):
				http.Redirect(w, r, cfg.LoginPath(), http.StatusTemporaryRedirect)
				return
			case hasSession && isPageLoad(r) && matchPage(path, cfg.AuthPages()):
				http.Redirect(w, r, cfg.DashboardPath(), http.StatusTemporaryRedirect)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HasSessionCookie reports a non-empty session cookie
func HasSessionCookie(r *http.Request) bool {
	c, err := r.Cookie(model.SessionCookieName)
	return err == nil && c.Value != ""
}

// matchPrefix matches whole path segments, /dashboard covers
// /dashboard/tasks but not /dashboards
func matchPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func matchPage(path string, pages []string) bool {
	path = strings.TrimSuffix(path, "/")
	for _, p := range pages {
		if path == strings.TrimSuffix(p, "/") {
			return true
		}
	}
	return false
}

func isPageLoad(r *http.Request) bool {
	return r.Method == http.MethodGet || r.Method == http.MethodHead
}
