package models

import (
	"sort"
	"time"
)

// Member roles within a family
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Family represents a group of users sharing document visibility
type Family struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	CreatedBy  string            `json:"createdBy"`
	InviteCode string            `json:"inviteCode"`
	Members    map[string]Member `json:"members"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Member represents the role-annotated association between a user and
// a family. Name and email are copied at join time, not live-synced.
type Member struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Member returns the member entry for a user, if present
func (f *Family) Member(userID string) (Member, bool) {
	member, ok := f.Members[userID]
	return member, ok
}

// HasMember checks if a user belongs to the family
func (f *Family) HasMember(userID string) bool {
	_, ok := f.Members[userID]
	return ok
}

// AdminCount returns the number of admin-role members
func (f *Family) AdminCount() int {
	count := 0
	for _, member := range f.Members {
		if member.Role == RoleAdmin {
			count++
		}
	}
	return count
}

// IsAdmin checks if a user is an admin-role member of the family
func (f *Family) IsAdmin(userID string) bool {
	member, ok := f.Members[userID]
	return ok && member.Role == RoleAdmin
}

// MemberList returns the members ordered by join time, then user ID
func (f *Family) MemberList() []Member {
	members := make([]Member, 0, len(f.Members))
	for _, member := range f.Members {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool {
		if !members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].JoinedAt.Before(members[j].JoinedAt)
		}
		return members[i].UserID < members[j].UserID
	})
	return members
}
