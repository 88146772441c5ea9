package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"paperpile/internal/store"
)

func newTestAuthService() (*AuthService, *FamilyService) {
	st := store.NewMemStore()
	familyService := NewFamilyService(st)
	return NewAuthService(st, familyService, time.Hour, "test-secret"), familyService
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService()

	user, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "alice@example.com")
	}
	if user.Name != "Alice" {
		t.Errorf("Name = %q, want %q", user.Name, "Alice")
	}
	if user.PasswordHash == "" || user.PasswordHash == "password123" {
		t.Error("password was not hashed")
	}
	if user.InFamily() {
		t.Error("new user without invite code should not be in a family")
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService()

	tests := []struct {
		name     string
		email    string
		password string
		userName string
	}{
		{
			name:     "invalid email",
			email:    "not-an-email",
			password: "password123",
			userName: "Alice",
		},
		{
			name:     "short password",
			email:    "alice@example.com",
			password: "short",
			userName: "Alice",
		},
		{
			name:     "short name",
			email:    "alice@example.com",
			password: "password123",
			userName: "A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.email, tt.password, tt.userName, ""); err == nil {
				t.Error("Register() succeeded, want validation error")
			}
		})
	}
}

func TestRegisterEmailTaken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService()

	if _, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Register(ctx, "alice@example.com", "different456", "Alice Again", "")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Register() error = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterWithInviteCode(t *testing.T) {
	ctx := context.Background()
	svc, familyService := newTestAuthService()

	family, err := familyService.CreateFamily(ctx, "Family", "u1", "Alice", "alice@example.com")
	if err != nil {
		t.Fatalf("CreateFamily() error = %v", err)
	}

	user, err := svc.Register(ctx, "bob@example.com", "password123", "Bob", family.InviteCode)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if !user.InFamily() || *user.FamilyID != family.ID {
		t.Errorf("FamilyID = %v, want %q", user.FamilyID, family.ID)
	}

	fresh, err := familyService.GetFamily(ctx, family.ID)
	if err != nil {
		t.Fatalf("GetFamily() error = %v", err)
	}
	if !fresh.HasMember(user.ID) {
		t.Error("registered user missing from family member list")
	}
}

func TestRegisterWithBadInviteCodeCreatesNoAccount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService()

	_, err := svc.Register(ctx, "bob@example.com", "password123", "Bob", "ZZZZZZ")
	if !errors.Is(err, ErrInvalidInviteCode) {
		t.Fatalf("Register() error = %v, want ErrInvalidInviteCode", err)
	}

	// A failed registration must not leave the email claimed
	if _, err := svc.Register(ctx, "bob@example.com", "password123", "Bob", ""); err != nil {
		t.Errorf("Register() after failed attempt error = %v", err)
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService()

	registered, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	session, token, user, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("user ID = %q, want %q", user.ID, registered.ID)
	}
	if session.UserID != registered.ID {
		t.Errorf("session UserID = %q, want %q", session.UserID, registered.ID)
	}
	if session.IsExpired() {
		t.Error("fresh session is already expired")
	}
	if token == "" {
		t.Error("Login() returned empty token")
	}

	userID, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if userID != registered.ID {
		t.Errorf("token subject = %q, want %q", userID, registered.ID)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService()

	if _, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{
			name:     "wrong password",
			email:    "alice@example.com",
			password: "wrongpassword",
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: "password123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := svc.Login(ctx, tt.email, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestValidateSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService()

	registered, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	session, _, _, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	user, err := svc.ValidateSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("user ID = %q, want %q", user.ID, registered.ID)
	}

	if _, err := svc.ValidateSession(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ValidateSession() for unknown session error = %v, want ErrSessionNotFound", err)
	}
}

func TestValidateSessionExpired(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	familyService := NewFamilyService(st)
	// Negative duration so every session is born expired
	svc := NewAuthService(st, familyService, -time.Minute, "test-secret")

	if _, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	session, _, _, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if _, err := svc.ValidateSession(ctx, session.ID); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("ValidateSession() error = %v, want ErrSessionExpired", err)
	}

	// The expired session record is cleaned up on rejection
	if _, err := svc.ValidateSession(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ValidateSession() second call error = %v, want ErrSessionNotFound", err)
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService()

	if _, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	session, _, _, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := svc.Logout(ctx, session.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.ValidateSession(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ValidateSession() after logout error = %v, want ErrSessionNotFound", err)
	}

	// Logging out twice is harmless
	if err := svc.Logout(ctx, session.ID); err != nil {
		t.Errorf("second Logout() error = %v", err)
	}
}

func TestValidateToken(t *testing.T) {
	svc, _ := newTestAuthService()

	token, err := svc.IssueToken("u1")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantID  string
		wantErr bool
	}{
		{
			name:   "valid token",
			token:  token,
			wantID: "u1",
		},
		{
			name:    "garbage token",
			token:   "not.a.token",
			wantErr: true,
		},
		{
			name:    "empty token",
			token:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := svc.ValidateToken(tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateToken() error = %v", err)
			}
			if userID != tt.wantID {
				t.Errorf("user ID = %q, want %q", userID, tt.wantID)
			}
		})
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	st := store.NewMemStore()
	familyService := NewFamilyService(st)
	issuer := NewAuthService(st, familyService, time.Hour, "secret-one")
	verifier := NewAuthService(st, familyService, time.Hour, "secret-two")

	token, err := issuer.IssueToken("u1")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	if _, err := verifier.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() with wrong secret error = %v, want ErrInvalidToken", err)
	}
}

func TestFindOrCreateOAuthUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService()

	created, err := svc.FindOrCreateOAuthUser(ctx, "google", "sub-123", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("FindOrCreateOAuthUser() error = %v", err)
	}
	if created.OAuthProvider != "google" || created.OAuthSubject != "sub-123" {
		t.Errorf("oauth identity = %q/%q, want google/sub-123", created.OAuthProvider, created.OAuthSubject)
	}

	// Second sign-in resolves to the same account
	again, err := svc.FindOrCreateOAuthUser(ctx, "google", "sub-123", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("FindOrCreateOAuthUser() second call error = %v", err)
	}
	if again.ID != created.ID {
		t.Errorf("second sign-in resolved to %q, want %q", again.ID, created.ID)
	}
}

func TestFindOrCreateOAuthUserLinksByEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService()

	registered, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	linked, err := svc.FindOrCreateOAuthUser(ctx, "google", "sub-123", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("FindOrCreateOAuthUser() error = %v", err)
	}
	if linked.ID != registered.ID {
		t.Errorf("linked to %q, want existing account %q", linked.ID, registered.ID)
	}

	user, err := svc.GetUser(ctx, registered.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.OAuthSubject != "sub-123" {
		t.Errorf("OAuthSubject = %q, want %q", user.OAuthSubject, "sub-123")
	}
	if user.PasswordHash == "" {
		t.Error("linking wiped the password hash")
	}
}

func TestGetUserNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService()

	if _, err := svc.GetUser(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser() error = %v, want ErrUserNotFound", err)
	}
}
