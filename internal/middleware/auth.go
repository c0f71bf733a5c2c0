package middleware

import (
	"context"
	"net/http"

	"github.com/Shivanshu999/casePlus/internal/auth"
	"github.com/google/uuid"
)

type contextKey int

const (
	contextKeyUserID contextKey = iota
)

// Auth gets the token from the cookie and puts the user id to the context
func Auth(ts auth.TokenService) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("auth_token")
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			payload, err := ts.VerifyToken(cookie.Value)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyUserID, payload.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts authenticated user id from context
func UserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(contextKeyUserID).(uuid.UUID)
	return userID, ok
}

// WithUserID puts user id to the context the same way Auth does
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}
