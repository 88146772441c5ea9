package handlers

import (
	"errors"
	"net/http"
	"time"

	"paperpile/internal/security"
	"paperpile/internal/service"
	"paperpile/internal/validation"
)

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	authService    *service.AuthService
	oauthProviders map[string]OAuthProvider
	appBaseURL     string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, oauthProviders map[string]OAuthProvider, appBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		oauthProviders: oauthProviders,
		appBaseURL:     appBaseURL,
	}
}

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	InviteCode string `json:"inviteCode"`
}

// Register creates a new account, optionally joining a family by code
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name, req.InviteCode)
	if err != nil {
		var validationErr validation.ValidationError
		switch {
		case errors.As(err, &validationErr):
			respondWithError(w, http.StatusBadRequest, validationErr.Error(), "", nil)
		case errors.Is(err, service.ErrEmailTaken):
			respondWithError(w, http.StatusConflict, "Email already registered", "", nil)
		case errors.Is(err, service.ErrInvalidInviteCode):
			respondWithError(w, http.StatusBadRequest, "Invalid invite code", "", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, "Registration failed", "Error registering user", err)
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, newUserView(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserView  `json:"user"`
}

// Login authenticates and returns a bearer token. A session cookie is
// set as well so browser clients work without storing the token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	session, token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "Invalid email or password", "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Login failed", "Error logging in", err)
		return
	}

	http.SetCookie(w, security.SessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondWithJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      newUserView(user),
	})
}

// Logout removes the caller's session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			respondWithError(w, http.StatusInternalServerError, "Logout failed", "Error logging out", err)
			return
		}
	}

	http.SetCookie(w, security.ExpiredCookie(r, SessionCookieName))
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated user's profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, "Authentication required", "", nil)
		return
	}
	respondWithJSON(w, http.StatusOK, newUserView(user))
}
