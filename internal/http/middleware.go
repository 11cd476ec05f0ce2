package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// SessionMiddleware resolves the session that owns the cart and wizard. The
// storefront sends X-Session-ID; a missing header gets a fresh UUID that is
// echoed back so the client can keep it.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get("X-Session-ID")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), "session_id", sessionID)
		w.Header().Set("X-Session-ID", sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthMiddleware lifts the bearer token and the user id resolved by the
// upstream auth provider into the context. Anonymous checkout is permitted,
// so both may be absent.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			ctx = context.WithValue(ctx, "bearer_token", strings.TrimPrefix(auth, "Bearer "))
		}
		if userID := r.Header.Get("X-User-ID"); userID != "" {
			ctx = context.WithValue(ctx, "user_id", userID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value("session_id").(string); ok {
		return sessionID
	}
	return ""
}

func getBearerToken(ctx context.Context) string {
	if token, ok := ctx.Value("bearer_token").(string); ok {
		return token
	}
	return ""
}

func getUserID(ctx context.Context) string {
	if userID, ok := ctx.Value("user_id").(string); ok {
		return userID
	}
	return ""
}
