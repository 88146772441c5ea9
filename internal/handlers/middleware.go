package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"paperpile/internal/models"
	"paperpile/internal/security"
	"paperpile/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UserContextKey carries the authenticated user through a request
	UserContextKey ContextKey = "user"

	// SessionCookieName is the cookie set by the OAuth web flow
	SessionCookieName = "session_id"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	limiter     *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		authService: authService,
		limiter:     limiter,
	}
}

// RequireAuth authenticates the request via a bearer token, falling
// back to the session cookie the OAuth flow sets. The user lands in
// the request context on success.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := m.authenticate(r)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Authentication required", "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit rejects requests from IPs that exceed the limiter's budget
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			respondWithError(w, http.StatusTooManyRequests, "Too many requests", "", nil)
			return
		}
		next(w, r)
	}
}

func (m *Middleware) authenticate(r *http.Request) (*models.UserProfile, error) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimPrefix(auth, "Bearer ")
		userID, err := m.authService.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		return m.authService.GetUser(r.Context(), userID)
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, errors.New("no credentials supplied")
	}
	return m.authService.ValidateSession(r.Context(), cookie.Value)
}

// GetUserFromContext retrieves the authenticated user from the request context
func GetUserFromContext(ctx context.Context) *models.UserProfile {
	user, _ := ctx.Value(UserContextKey).(*models.UserProfile)
	return user
}
