package models

import "time"

// UserProfile represents an account in the system. FamilyID and
// FamilyRole mirror the user's membership in at most one family; both
// are null when the user does not belong to a family.
type UserProfile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	PasswordHash  string    `json:"passwordHash,omitempty"`
	OAuthProvider string    `json:"oauthProvider,omitempty"`
	OAuthSubject  string    `json:"oauthSubject,omitempty"`
	FamilyID      *string   `json:"familyId"`
	FamilyRole    *string   `json:"familyRole"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// InFamily checks if the user currently belongs to a family
func (u *UserProfile) InFamily() bool {
	return u.FamilyID != nil
}

// Session represents an authenticated session
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
