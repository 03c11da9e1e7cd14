package middleware

import (
	"context"
	"net/http"

	"resumegen/internal/utils"
)

type contextKey string

const (
	userIDKey   contextKey = "userID"
	userNameKey contextKey = "userName"
)

// RequireAuth rejects requests without a valid bearer token and stashes the
// verified identity in the request context.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := utils.VerifyRequest(r, secret)
			if err != nil {
				utils.Error(w, http.StatusUnauthorized, "unauthorized", "invalid or missing credentials")
				return
			}
			userID, err := utils.GetUserIDFromClaims(claims)
			if err != nil {
				utils.Error(w, http.StatusUnauthorized, "unauthorized", "invalid token claims")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, userNameKey, utils.GetUserNameFromClaims(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the verified user id stored by RequireAuth.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func UserName(ctx context.Context) string {
	if v, ok := ctx.Value(userNameKey).(string); ok {
		return v
	}
	return ""
}
