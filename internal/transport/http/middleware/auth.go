// Package middleware carries the auth gate that guards every protected route.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"converse/internal/httputil"
	"converse/internal/model"
	"converse/internal/service"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserID returns the authenticated user id injected by Auth.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// WithUserID injects a user id into the context. Exported for tests.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Auth rejects requests without a usable token before they reach a handler.
// A missing header is a 403; an expired, malformed or orphaned token is a
// 401 with a message saying which.
func Auth(authService service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.WriteForbidden(w, "Provide a valid auth token.")
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")

			userID, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, model.ErrTokenExpired):
					httputil.WriteUnauthorized(w, "Signature expired. Please log in again.")
				case errors.Is(err, model.ErrTokenInvalid):
					httputil.WriteUnauthorized(w, "Invalid token. Please log in again.")
				case errors.Is(err, model.ErrAuthNotFound):
					httputil.WriteUnauthorized(w, "Invalid token. Please log in again.")
				default:
					httputil.WriteInternalError(w, "Authentication failed.")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
