package api

import (
	"context"
	"net/http"

	"github.com/krishisahai/sahai/internal/api/respond"
	"github.com/krishisahai/sahai/internal/auth"
	"github.com/krishisahai/sahai/internal/model"
)

type contextKey int

const actorKey contextKey = iota

// actorFrom returns the authenticated user stored by AuthMiddleware.
// Handlers behind the middleware can rely on it being present.
func actorFrom(ctx context.Context) *model.User {
	u, _ := ctx.Value(actorKey).(*model.User)
	return u
}

// AuthMiddleware resolves the bearer API key to a user and injects it into
// the request context. Requests without a valid key get 401.
func AuthMiddleware(authorizer auth.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := auth.ExtractAPIKey(r)
			if err != nil {
				respond.WriteServiceError(w, err)
				return
			}
			u, err := authorizer.Authorize(r.Context(), key)
			if err != nil {
				respond.WriteServiceError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, u)))
		})
	}
}
