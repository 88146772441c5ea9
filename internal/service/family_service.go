package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"paperpile/internal/invite"
	"paperpile/internal/models"
	"paperpile/internal/store"
)

var (
	ErrCodeGenerationExhausted = errors.New("could not generate a unique invite code")
	ErrInvalidInviteCode       = errors.New("invalid invite code")
	ErrFamilyNotFound          = errors.New("family not found")
	ErrNotAMember              = errors.New("user is not a member of this family")
	ErrMemberNotFound          = errors.New("member not found in this family")
	ErrAlreadyMember           = errors.New("user is already a member of this family")
	ErrSoleAdminCannotLeave    = errors.New("the only admin cannot leave the family")
	ErrNotAuthorized           = errors.New("user is not an admin of this family")
	ErrCannotRemoveSelf        = errors.New("use leave instead of removing yourself")
)

// codeGenerationAttempts caps how many candidate invite codes
// CreateFamily tries before giving up.
const codeGenerationAttempts = 10

// FamilyService owns the family lifecycle and the membership relation
// between users and families. Every mutating operation writes the
// family record before the affected user profiles; there is no
// cross-record transaction, so a failure between the two writes leaves
// the family side applied and the profile side pending.
type FamilyService struct {
	store store.Store
}

// NewFamilyService creates a new family service
func NewFamilyService(st store.Store) *FamilyService {
	return &FamilyService{store: st}
}

// InviteValidation is the result of checking a user-entered code.
type InviteValidation struct {
	Valid  bool           `json:"valid"`
	Family *models.Family `json:"family,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

// CreateFamily creates a new family with the caller as its sole admin
// and points the caller's profile at it. The returned family is the
// assembled record, not a re-read.
func (s *FamilyService) CreateFamily(ctx context.Context, name, userID, userName, userEmail string) (*models.Family, error) {
	if name == "" {
		return nil, errors.New("family name is required")
	}

	code, err := s.generateUniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	family := &models.Family{
		ID:         uuid.New().String(),
		Name:       name,
		CreatedBy:  userID,
		InviteCode: code,
		Members: map[string]models.Member{
			userID: {
				UserID:   userID,
				Name:     userName,
				Email:    userEmail,
				Role:     models.RoleAdmin,
				JoinedAt: now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Set(ctx, store.Families, family.ID, family); err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}

	role := models.RoleAdmin
	if err := s.updateUserFamily(ctx, userID, &family.ID, &role); err != nil {
		return nil, err
	}

	return family, nil
}

// JoinFamily adds the caller to the family behind an invite code and
// returns a fresh read of the family so the caller sees the true
// post-write member list.
func (s *FamilyService) JoinFamily(ctx context.Context, inviteCode, userID, userName, userEmail string) (*models.Family, error) {
	family, err := s.GetFamilyByInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrInvalidInviteCode
	}
	if family.HasMember(userID) {
		return nil, ErrAlreadyMember
	}

	now := time.Now().UTC()
	member := models.Member{
		UserID:   userID,
		Name:     userName,
		Email:    userEmail,
		Role:     models.RoleMember,
		JoinedAt: now,
	}

	err = s.store.Update(ctx, store.Families, family.ID, map[string]interface{}{
		"members":   map[string]interface{}{userID: member},
		"updatedAt": now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join family: %w", err)
	}

	role := models.RoleMember
	if err := s.updateUserFamily(ctx, userID, &family.ID, &role); err != nil {
		return nil, err
	}

	var fresh models.Family
	err = s.store.Get(ctx, store.Families, family.ID, &fresh)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrFamilyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reload family: %w", err)
	}
	return &fresh, nil
}

// LeaveFamily removes the caller from a family and clears their
// profile. The last remaining admin cannot leave; the family has to be
// deleted (or another member promoted, which this system does not do).
func (s *FamilyService) LeaveFamily(ctx context.Context, userID, familyID string) error {
	family, err := s.loadFamily(ctx, familyID)
	if err != nil {
		return err
	}

	member, ok := family.Member(userID)
	if !ok {
		return ErrNotAMember
	}
	if member.Role == models.RoleAdmin && family.AdminCount() == 1 {
		return ErrSoleAdminCannotLeave
	}

	if err := s.removeMemberEntry(ctx, familyID, userID); err != nil {
		return err
	}
	return s.updateUserFamily(ctx, userID, nil, nil)
}

// RemoveMember lets an admin remove another member from the family and
// clears the removed member's profile.
func (s *FamilyService) RemoveMember(ctx context.Context, adminUserID, familyID, memberUserID string) error {
	family, err := s.loadFamily(ctx, familyID)
	if err != nil {
		return err
	}

	if !family.IsAdmin(adminUserID) {
		return ErrNotAuthorized
	}
	if !family.HasMember(memberUserID) {
		return ErrMemberNotFound
	}
	if memberUserID == adminUserID {
		return ErrCannotRemoveSelf
	}

	if err := s.removeMemberEntry(ctx, familyID, memberUserID); err != nil {
		return err
	}
	return s.updateUserFamily(ctx, memberUserID, nil, nil)
}

// DeleteFamily clears every member's profile and then deletes the
// family record. The record goes last so an interrupted delete can be
// re-run: the symptom is profiles already cleared with the family
// still present, never a dangling profile reference.
func (s *FamilyService) DeleteFamily(ctx context.Context, userID, familyID string) error {
	family, err := s.loadFamily(ctx, familyID)
	if err != nil {
		return err
	}

	if !family.IsAdmin(userID) {
		return ErrNotAuthorized
	}

	for _, member := range family.MemberList() {
		if err := s.updateUserFamily(ctx, member.UserID, nil, nil); err != nil {
			return err
		}
	}

	if err := s.store.Delete(ctx, store.Families, familyID); err != nil {
		return fmt.Errorf("failed to delete family: %w", err)
	}
	return nil
}

// GetFamily retrieves a family by ID. Not-found is nil, not an error.
func (s *FamilyService) GetFamily(ctx context.Context, familyID string) (*models.Family, error) {
	var family models.Family
	err := s.store.Get(ctx, store.Families, familyID, &family)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return &family, nil
}

// GetFamilyByInviteCode looks a family up by a user-entered code.
// Not-found is nil, not an error.
func (s *FamilyService) GetFamilyByInviteCode(ctx context.Context, code string) (*models.Family, error) {
	cleaned := invite.NormalizeCode(code)
	if cleaned == "" {
		return nil, nil
	}

	var families []models.Family
	if err := s.store.Query(ctx, store.Families, "inviteCode", cleaned, &families); err != nil {
		return nil, fmt.Errorf("failed to find family by invite code: %w", err)
	}
	if len(families) == 0 {
		return nil, nil
	}
	return &families[0], nil
}

// ValidateInviteCode checks a code without joining. An unknown code is
// an invalid result, not an error.
func (s *FamilyService) ValidateInviteCode(ctx context.Context, code string) (*InviteValidation, error) {
	cleaned := invite.NormalizeCode(code)
	if cleaned == "" {
		return &InviteValidation{Valid: false, Reason: "invite code is required"}, nil
	}
	if len(cleaned) != invite.CodeLength {
		return &InviteValidation{Valid: false, Reason: fmt.Sprintf("invite code must be %d characters", invite.CodeLength)}, nil
	}

	family, err := s.GetFamilyByInviteCode(ctx, cleaned)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return &InviteValidation{Valid: false, Reason: "invite code does not match any family"}, nil
	}
	return &InviteValidation{Valid: true, Family: family}, nil
}

// GetUserFamily retrieves the family a user currently belongs to.
// Returns nil when the user has no profile or no family.
func (s *FamilyService) GetUserFamily(ctx context.Context, userID string) (*models.Family, error) {
	var profile models.UserProfile
	err := s.store.Get(ctx, store.Users, userID, &profile)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	if !profile.InFamily() {
		return nil, nil
	}
	return s.GetFamily(ctx, *profile.FamilyID)
}

// loadFamily loads a family as a precondition for a mutating
// operation; absence is an error here, unlike the read helpers.
func (s *FamilyService) loadFamily(ctx context.Context, familyID string) (*models.Family, error) {
	var family models.Family
	err := s.store.Get(ctx, store.Families, familyID, &family)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrFamilyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return &family, nil
}

// removeMemberEntry deletes one member key from the family record.
func (s *FamilyService) removeMemberEntry(ctx context.Context, familyID, userID string) error {
	err := s.store.Update(ctx, store.Families, familyID, map[string]interface{}{
		"members":   map[string]interface{}{userID: store.DeleteField},
		"updatedAt": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// generateUniqueCode produces an invite code no existing family uses.
// Uniqueness is only checked here, at creation time; codes are
// permanent once assigned.
func (s *FamilyService) generateUniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < codeGenerationAttempts; i++ {
		code, err := invite.GenerateCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}

		var existing []models.Family
		if err := s.store.Query(ctx, store.Families, "inviteCode", code, &existing); err != nil {
			return "", fmt.Errorf("failed to check invite code uniqueness: %w", err)
		}
		if len(existing) == 0 {
			return code, nil
		}
	}
	return "", ErrCodeGenerationExhausted
}

// updateUserFamily points a user profile at a family (or clears it
// when familyID is nil). A profile that was never initialized gets
// created with just the membership fields.
func (s *FamilyService) updateUserFamily(ctx context.Context, userID string, familyID, familyRole *string) error {
	now := time.Now().UTC()
	err := s.store.Update(ctx, store.Users, userID, map[string]interface{}{
		"familyId":   familyID,
		"familyRole": familyRole,
		"updatedAt":  now,
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to update user profile: %w", err)
	}

	profile := &models.UserProfile{
		ID:         userID,
		FamilyID:   familyID,
		FamilyRole: familyRole,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Set(ctx, store.Users, userID, profile); err != nil {
		return fmt.Errorf("failed to create user profile: %w", err)
	}
	return nil
}
