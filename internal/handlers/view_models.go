package handlers

import (
	"time"

	"paperpile/internal/models"
)

// UserView is the API representation of a user profile, without the
// credential fields.
type UserView struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	FamilyID   *string   `json:"familyId"`
	FamilyRole *string   `json:"familyRole"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newUserView(user *models.UserProfile) UserView {
	return UserView{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		FamilyID:   user.FamilyID,
		FamilyRole: user.FamilyRole,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

// FamilyView is the API representation of a family with its members
// in join order.
type FamilyView struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	CreatedBy  string          `json:"createdBy"`
	InviteCode string          `json:"inviteCode"`
	Members    []models.Member `json:"members"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func newFamilyView(family *models.Family) FamilyView {
	return FamilyView{
		ID:         family.ID,
		Name:       family.Name,
		CreatedBy:  family.CreatedBy,
		InviteCode: family.InviteCode,
		Members:    family.MemberList(),
		CreatedAt:  family.CreatedAt,
		UpdatedAt:  family.UpdatedAt,
	}
}

// InviteValidationView reports a code check without exposing member
// details of the family behind it.
type InviteValidationView struct {
	Valid       bool   `json:"valid"`
	FamilyName  string `json:"familyName,omitempty"`
	MemberCount int    `json:"memberCount,omitempty"`
	Reason      string `json:"reason,omitempty"`
}
