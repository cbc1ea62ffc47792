package middleware

import (
	"context"
	"net/http"

	"taskboard/internal/model"

	"github.com/google/uuid"
)

type ctxKey int

const (
	clientIDKey ctxKey = iota
	storeKey
)

// clientIDMaxAge - one year
const clientIDMaxAge = 365 * 24 * 60 * 60

// ClientID makes sure every browser carries a client id cookie and puts the
// id into the request context. Invalid ids are replaced.
func ClientID(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(model.ClientIDCookieName); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}

			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     model.ClientIDCookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   clientIDMaxAge,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), id)))
		})
	}
}

func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

func ClientIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey).(string)
	return id
}

// BrowserClientFrom collects the cookies the auth store needs
func BrowserClientFrom(r *http.Request) model.BrowserClient {
	client := model.BrowserClient{
		ID:           ClientIDFrom(r.Context()),
		CookieHeader: r.Header.Get("Cookie"),
	}
	if c, err := r.Cookie(model.SessionCookieName); err == nil {
		client.SessionToken = c.Value
	}
	return client
}
