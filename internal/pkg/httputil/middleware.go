package httputil

import (
	"context"
	"net/http"
	"strings"

	"github.com/study-on/billing/internal/domain"
)

// Authentication error messages.
const (
	MessageTokenNotFound      = "JWT Token not found"
	MessageInvalidToken       = "Invalid JWT Token"
	MessageInsufficientRights = "You do not have enough rights to perform this operation!"
)

// CORSMiddleware creates CORS middleware that handles preflight requests
// and adds appropriate CORS headers to responses.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if originsSet[origin] || originsSet["*"] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type contextKey string

// Context keys for storing the authenticated principal.
const (
	UserIDKey contextKey = "user_id"
	RolesKey  contextKey = "roles"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (userID string, roles []domain.Role, err error)
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				Error(w, http.StatusUnauthorized, MessageTokenNotFound)
				return
			}

			userID, roles, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				Error(w, http.StatusUnauthorized, MessageInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), userID, roles)))
		})
	}
}

// RequireAdmin rejects authenticated users lacking the super-admin role.
// Insufficient rights are reported as 401, matching the rest of the API.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == "" {
			Error(w, http.StatusUnauthorized, MessageTokenNotFound)
			return
		}
		if !domain.IsAdmin(GetRoles(r.Context())) {
			Error(w, http.StatusUnauthorized, MessageInsufficientRights)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithPrincipal stores the authenticated user in ctx.
func WithPrincipal(ctx context.Context, userID string, roles []domain.Role) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, RolesKey, roles)
}

// GetUserID extracts user ID from context.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetRoles extracts roles from context.
func GetRoles(ctx context.Context) []domain.Role {
	if roles, ok := ctx.Value(RolesKey).([]domain.Role); ok {
		return roles
	}
	return nil
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
