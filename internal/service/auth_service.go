package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"paperpile/internal/models"
	"paperpile/internal/security"
	"paperpile/internal/store"
	"paperpile/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid access token")
)

// AuthService handles authentication business logic
type AuthService struct {
	store           store.Store
	familyService   *FamilyService
	sessionDuration time.Duration
	jwtSecret       []byte
}

// NewAuthService creates a new auth service
func NewAuthService(st store.Store, familyService *FamilyService, sessionDuration time.Duration, jwtSecret string) *AuthService {
	return &AuthService{
		store:           st,
		familyService:   familyService,
		sessionDuration: sessionDuration,
		jwtSecret:       []byte(jwtSecret),
	}
}

// Register creates a new user account. When an invite code is given
// the new user joins that family in the same call; the code is checked
// up front so a bad code does not leave an orphan account behind.
func (s *AuthService) Register(ctx context.Context, email, password, name, inviteCode string) (*models.UserProfile, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	if inviteCode != "" {
		family, err := s.familyService.GetFamilyByInviteCode(ctx, inviteCode)
		if err != nil {
			return nil, err
		}
		if family == nil {
			return nil, ErrInvalidInviteCode
		}
	}

	existing, err := s.findUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	profile := &models.UserProfile{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Set(ctx, store.Users, profile.ID, profile); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if inviteCode != "" {
		if _, err := s.familyService.JoinFamily(ctx, inviteCode, profile.ID, name, email); err != nil {
			return nil, err
		}
		// Reload so the response carries the membership fields
		if err := s.store.Get(ctx, store.Users, profile.ID, profile); err != nil {
			return nil, fmt.Errorf("failed to reload user: %w", err)
		}
	}

	return profile, nil
}

// Login authenticates a user and creates a session plus a signed
// access token for the API.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Session, string, *models.UserProfile, error) {
	user, err := s.findUserByEmail(ctx, email)
	if err != nil {
		return nil, "", nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, "", nil, ErrInvalidCredentials
	}
	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, "", nil, ErrInvalidCredentials
	}

	session, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, "", nil, err
	}

	token, err := s.issueToken(user.ID, session.ExpiresAt)
	if err != nil {
		return nil, "", nil, err
	}

	return session, token, user, nil
}

// CreateSession creates a session record for a user. Also used by the
// OAuth callback after the provider identifies the user.
func (s *AuthService) CreateSession(ctx context.Context, userID string) (*models.Session, error) {
	now := time.Now().UTC()
	session := &models.Session{
		ID:        security.NewSessionID(),
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionDuration),
		CreatedAt: now,
	}
	if err := s.store.Set(ctx, store.Sessions, session.ID, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ValidateSession checks a session and returns its user
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.UserProfile, error) {
	var session models.Session
	err := s.store.Get(ctx, store.Sessions, sessionID, &session)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.IsExpired() {
		// Best effort cleanup; the session is rejected either way
		_ = s.store.Delete(ctx, store.Sessions, sessionID)
		return nil, ErrSessionExpired
	}

	return s.GetUser(ctx, session.UserID)
}

// Logout removes a session
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, store.Sessions, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetUser retrieves a user profile by ID
func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.UserProfile, error) {
	var user models.UserProfile
	err := s.store.Get(ctx, store.Users, userID, &user)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// FindOrCreateOAuthUser resolves an OAuth identity to a local user,
// creating the account on first sign-in.
func (s *AuthService) FindOrCreateOAuthUser(ctx context.Context, provider, subject, email, name string) (*models.UserProfile, error) {
	var users []models.UserProfile
	if err := s.store.Query(ctx, store.Users, "oauthSubject", subject, &users); err != nil {
		return nil, fmt.Errorf("failed to look up oauth user: %w", err)
	}
	for i := range users {
		if users[i].OAuthProvider == provider {
			return &users[i], nil
		}
	}

	// Fall back to email so a password account can pick up the provider
	existing, err := s.findUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		err := s.store.Update(ctx, store.Users, existing.ID, map[string]interface{}{
			"oauthProvider": provider,
			"oauthSubject":  subject,
			"updatedAt":     time.Now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to link oauth identity: %w", err)
		}
		existing.OAuthProvider = provider
		existing.OAuthSubject = subject
		return existing, nil
	}

	now := time.Now().UTC()
	profile := &models.UserProfile{
		ID:            uuid.New().String(),
		Email:         email,
		Name:          name,
		OAuthProvider: provider,
		OAuthSubject:  subject,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Set(ctx, store.Users, profile.ID, profile); err != nil {
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}
	return profile, nil
}

// IssueToken signs a fresh access token for a user
func (s *AuthService) IssueToken(userID string) (string, error) {
	return s.issueToken(userID, time.Now().UTC().Add(s.sessionDuration))
}

// ValidateToken parses a signed access token and returns the user ID
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

func (s *AuthService) issueToken(userID string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().UTC().Unix(),
		"exp": expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) findUserByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	var users []models.UserProfile
	if err := s.store.Query(ctx, store.Users, "email", email, &users); err != nil {
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}
