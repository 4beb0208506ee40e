package middleware

import (
	"context"
	"net/http"
	"strings"

	"hrlite/internal/domain/auth"
)

type ctxKey int

const ctxKeyUser ctxKey = iota

// SessionStore validates the server-side session behind a bearer token and
// re-reads the admin flag so revocation takes effect immediately.
type SessionStore interface {
	SessionValid(ctx context.Context, userID, tokenHash string) (bool, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Auth populates the request context with the authenticated user when the
// bearer token checks out. It never rejects a request itself: routes that
// need an identity enforce it via RequirePermission or GetUser.
func Auth(secret string, store SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			isAdmin := false
			if store != nil {
				valid, err := store.SessionValid(r.Context(), claims.UserID, auth.HashToken(claims.SessionID))
				if err != nil || !valid {
					next.ServeHTTP(w, r)
					return
				}
				if isAdmin, err = store.IsAdmin(r.Context(), claims.UserID); err != nil {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, auth.UserContext{
				UserID:    claims.UserID,
				Username:  claims.Username,
				IsAdmin:   isAdmin,
				SessionID: claims.SessionID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}
