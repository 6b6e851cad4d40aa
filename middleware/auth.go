package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"vendtrack/auth"
	"vendtrack/models"
	"vendtrack/service"
)

type contextKey string

const (
	UserContextKey    contextKey = "user"
	SessionContextKey contextKey = "session"
)

// SessionResolver loads the live session for a session id, re-reading the
// user's profile. *service.AuthService satisfies it.
type SessionResolver interface {
	CurrentUser(ctx context.Context, sessionID string) (*auth.Session, error)
}

// AuthMiddleware validates JWT tokens and injects the session user into context
func AuthMiddleware(jwtManager *auth.JWTManager, sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			token, err := auth.ExtractToken(authHeader)
			if err != nil {
				writeError(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.ValidateToken(token, auth.TokenTypeAccess)
			if err != nil {
				writeError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			// Fetch the profile on every request so role changes apply at once
			session, err := sessions.CurrentUser(r.Context(), claims.SessionID())
			if err != nil {
				if service.KindOf(err) == service.KindInternal {
					log.Printf("❌ Failed to resolve session: %v", err)
					writeError(w, service.MessageOf(err), http.StatusInternalServerError)
					return
				}
				writeError(w, service.MessageOf(err), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, session)
			ctx = context.WithValue(ctx, UserContextKey, &session.User)
			ctx = service.WithActor(ctx, session.User.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}

// GetSessionFromContext retrieves the session from the request context
func GetSessionFromContext(ctx context.Context) (*auth.Session, bool) {
	session, ok := ctx.Value(SessionContextKey).(*auth.Session)
	return session, ok
}

// RequireRole middleware checks if the user has the required role
func RequireRole(allowedRoles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				writeError(w, "User not found in context", http.StatusUnauthorized)
				return
			}

			for _, role := range allowedRoles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, "Insufficient permissions", http.StatusForbidden)
		})
	}
}

var statusCodes = map[int]service.ErrorKind{
	http.StatusUnauthorized:        service.KindUnauthorized,
	http.StatusForbidden:           service.KindForbidden,
	http.StatusTooManyRequests:     "rate_limited",
	http.StatusInternalServerError: service.KindInternal,
}

func writeError(w http.ResponseWriter, message string, status int) {
	code, ok := statusCodes[status]
	if !ok {
		code = service.ErrorKind(http.StatusText(status))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
		"code":    code,
	})
}
