package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/oauth2"

	"paperpile/internal/security"
)

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

// StartOAuth initiates the OAuth flow for a provider
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	providerKey := mux.Vars(r)["provider"]
	provider, ok := h.oauthProviders[providerKey]
	if !ok || provider.Config == nil || provider.Config.ClientID == "" || provider.Config.ClientSecret == "" {
		respondWithError(w, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return
	}

	state := security.NewSessionID()
	h.setTempCookie(w, r, "oauth_state", state, 10*time.Minute)

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(providerKey)

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback handles the OAuth provider callback: it exchanges the
// code, fetches the user info, resolves a local account and opens a
// session for it.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerKey := mux.Vars(r)["provider"]
	provider, ok := h.oauthProviders[providerKey]
	if !ok || provider.Config == nil || provider.Config.ClientID == "" || provider.Config.ClientSecret == "" {
		respondWithError(w, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Missing authorization code", "", nil)
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		respondWithError(w, http.StatusBadRequest, "Invalid OAuth state", "", err)
		return
	}
	http.SetCookie(w, security.ExpiredCookie(r, "oauth_state"))

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(providerKey)

	token, err := config.Exchange(r.Context(), code)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "OAuth exchange failed", "Error exchanging OAuth code", err)
		return
	}

	info, err := h.fetchOAuthUserInfo(r, &config, token, provider.UserInfoURL)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to fetch user info", "Error fetching OAuth user info", err)
		return
	}
	if info.Subject == "" || info.Email == "" {
		respondWithError(w, http.StatusBadGateway, "OAuth provider returned incomplete profile", "", nil)
		return
	}
	if info.Name == "" {
		info.Name = strings.SplitN(info.Email, "@", 2)[0]
	}

	user, err := h.authService.FindOrCreateOAuthUser(r.Context(), providerKey, info.Subject, info.Email, info.Name)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Sign-in failed", "Error resolving OAuth user", err)
		return
	}

	session, err := h.authService.CreateSession(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Sign-in failed", "Error creating session", err)
		return
	}

	http.SetCookie(w, security.SessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	http.Redirect(w, r, h.appBaseURL, http.StatusSeeOther)
}

func (h *AuthHandler) fetchOAuthUserInfo(r *http.Request, config *oauth2.Config, token *oauth2.Token, userInfoURL string) (*oauthUserInfo, error) {
	client := config.Client(r.Context(), token)
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		ID    string `json:"id"`
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	subject := payload.Sub
	if subject == "" {
		subject = payload.ID
	}
	return &oauthUserInfo{Subject: subject, Email: payload.Email, Name: payload.Name}, nil
}

func (h *AuthHandler) oauthRedirectURL(providerKey string) string {
	return fmt.Sprintf("%s/auth/%s/callback", h.appBaseURL, url.PathEscape(providerKey))
}

func (h *AuthHandler) setTempCookie(w http.ResponseWriter, r *http.Request, name, value string, ttl time.Duration) {
	http.SetCookie(w, security.SessionCookie(r, name, value, time.Now().Add(ttl)))
}
