package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"socialnet/internal/httputil"
	"socialnet/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	identityKey contextKey = "identity"
	sessionKey  contextKey = "session"

	// SessionCookie carries the token for browser clients.
	SessionCookie = "jwt"

	msgUnauthenticated = "Invalid or expired token or you just not logged in"
)

// TokenParser verifies a raw session token.
type TokenParser interface {
	ParseToken(ctx context.Context, raw string) (int64, model.Session, error)
}

// UserLookup resolves the token subject to a live account.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// AuthMiddleware creates a middleware that validates session tokens.
// Checks Authorization header first (for API clients), then falls back to the jwt cookie.
func AuthMiddleware(tokens TokenParser, users UserLookup, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				httputil.WriteUnauthorized(w, msgUnauthenticated)
				return
			}

			userID, session, err := tokens.ParseToken(r.Context(), tokenString)
			if err != nil {
				if !errors.Is(err, model.ErrInvalidToken) {
					log.Error("token verification failed", zap.Error(err))
					httputil.WriteInternalError(w)
					return
				}
				httputil.WriteUnauthorized(w, msgUnauthenticated)
				return
			}

			// The account may have been deleted after the token was issued.
			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, model.ErrUserNotFound) {
					log.Error("failed to load token subject", zap.Int64("user_id", userID), zap.Error(err))
					httputil.WriteInternalError(w)
					return
				}
				httputil.WriteUnauthorized(w, msgUnauthenticated)
				return
			}

			identity := model.Identity{UserID: user.ID, IsAdmin: user.IsAdmin}
			noteRequestUser(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity, session)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// WithIdentity attaches the authenticated caller and its session to ctx.
func WithIdentity(ctx context.Context, identity model.Identity, session model.Session) context.Context {
	ctx = context.WithValue(ctx, identityKey, identity)
	return context.WithValue(ctx, sessionKey, session)
}

// IdentityFromContext returns the caller set by AuthMiddleware.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(model.Identity)
	return identity, ok
}

// SessionFromContext returns the session the request was authenticated with.
func SessionFromContext(ctx context.Context) (model.Session, bool) {
	session, ok := ctx.Value(sessionKey).(model.Session)
	return session, ok
}
