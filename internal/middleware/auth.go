package middleware

import (
	"context"
	"net/http"
	"roulette_backend/pkg/resp"
	"roulette_backend/pkg/token"
	"strings"
)

type ctxKey struct{}

// WithUserID stores the authenticated user in ctx
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(ctxKey{}).(int)
	return id, ok
}

// Auth requires a valid "Authorization: Bearer <jwt>" header
func Auth(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, tokenStr, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || tokenStr == "" {
				resp.WriteError(w, http.StatusUnauthorized, "authorization header required")
				return
			}

			claims, err := token.VerifyToken(tokenStr, secretKey)
			if err != nil {
				resp.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			userID, err := token.UserID(claims)
			if err != nil {
				resp.WriteError(w, http.StatusUnauthorized, "invalid token subject")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
