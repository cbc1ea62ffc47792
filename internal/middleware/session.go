package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"taskboard/internal/service"
	"taskboard/pkg/resp"
)

const msgSessionUnavailable = "Session service unavailable. Please try again."

// LoadSession builds the auth store of the browser, refreshes it and puts
// it into the request context. Requests the identity backend answered
// without a valid session are handed to signOut. When the backend could not
// be asked, or a newer sign-in or sign-out of the browser won the race, the
// cookies are left alone.
func LoadSession(factory service.AuthStoreFactory, signOut http.Handler, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := factory.NewStore(BrowserClientFrom(r))
			ctx := WithStore(r.Context(), store)

			err := store.RefreshSession(ctx)
			switch {
			case errors.Is(err, service.ErrSessionSuperseded):
				// retry with the cookies the browser holds now
				logger.Info("session changed during refresh", "client_id", ClientIDFrom(ctx), "path", r.URL.Path)
				http.Redirect(w, r, r.URL.RequestURI(), http.StatusTemporaryRedirect)
				return
			case err != nil:
				logger.Warn("session refresh degraded", "client_id", ClientIDFrom(ctx), "error", err)
			}

			if !store.State().Authenticated() {
				if errors.Is(err, service.ErrSessionUnavailable) {
					w.Header().Set("Retry-After", "5")
					resp.WriteJSONError(w, http.StatusServiceUnavailable, msgSessionUnavailable)
					return
				}
				signOut.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithStore(ctx context.Context, store service.AuthStore) context.Context {
	return context.WithValue(ctx, storeKey, store)
}

func StoreFrom(ctx context.Context) (service.AuthStore, bool) {
	store, ok := ctx.Value(storeKey).(service.AuthStore)
	return store, ok
}
