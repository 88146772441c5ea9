package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"paperpile/internal/service"
	"paperpile/internal/validation"
)

// FamilyHandler handles family and membership HTTP requests
type FamilyHandler struct {
	familyService *service.FamilyService
	emailService  *service.EmailService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *service.FamilyService, emailService *service.EmailService) *FamilyHandler {
	return &FamilyHandler{
		familyService: familyService,
		emailService:  emailService,
	}
}

type createFamilyRequest struct {
	Name string `json:"name"`
}

// Create creates a new family with the caller as admin
func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req createFamilyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	family, err := h.familyService.CreateFamily(r.Context(), req.Name, user.ID, user.Name, user.Email)
	if err != nil {
		h.respondServiceError(w, err, "Error creating family")
		return
	}

	respondWithJSON(w, http.StatusCreated, newFamilyView(family))
}

// Get returns a family the caller belongs to
func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	familyID := mux.Vars(r)["id"]

	family, err := h.familyService.GetFamily(r.Context(), familyID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get family", "Error getting family", err)
		return
	}
	if family == nil {
		respondWithError(w, http.StatusNotFound, "Family not found", "", nil)
		return
	}
	if !family.HasMember(user.ID) {
		respondWithError(w, http.StatusForbidden, "Not a member of this family", "", nil)
		return
	}

	respondWithJSON(w, http.StatusOK, newFamilyView(family))
}

// MyFamily returns the caller's current family
func (h *FamilyHandler) MyFamily(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	family, err := h.familyService.GetUserFamily(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get family", "Error getting user family", err)
		return
	}
	if family == nil {
		respondWithError(w, http.StatusNotFound, "You are not in a family", "", nil)
		return
	}

	respondWithJSON(w, http.StatusOK, newFamilyView(family))
}

type joinFamilyRequest struct {
	InviteCode string `json:"inviteCode"`
}

// Join adds the caller to the family behind an invite code
func (h *FamilyHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req joinFamilyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	family, err := h.familyService.JoinFamily(r.Context(), req.InviteCode, user.ID, user.Name, user.Email)
	if err != nil {
		h.respondServiceError(w, err, "Error joining family")
		return
	}

	respondWithJSON(w, http.StatusOK, newFamilyView(family))
}

// Leave removes the caller from a family
func (h *FamilyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	familyID := mux.Vars(r)["id"]

	if err := h.familyService.LeaveFamily(r.Context(), user.ID, familyID); err != nil {
		h.respondServiceError(w, err, "Error leaving family")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// RemoveMember lets an admin remove another member
func (h *FamilyHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	vars := mux.Vars(r)

	err := h.familyService.RemoveMember(r.Context(), user.ID, vars["id"], vars["userID"])
	if err != nil {
		h.respondServiceError(w, err, "Error removing member")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// Delete deletes a family and clears every member's profile
func (h *FamilyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	familyID := mux.Vars(r)["id"]

	if err := h.familyService.DeleteFamily(r.Context(), user.ID, familyID); err != nil {
		h.respondServiceError(w, err, "Error deleting family")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type validateInviteRequest struct {
	InviteCode string `json:"inviteCode"`
}

// ValidateInvite checks an invite code without joining
func (h *FamilyHandler) ValidateInvite(w http.ResponseWriter, r *http.Request) {
	var req validateInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	result, err := h.familyService.ValidateInviteCode(r.Context(), req.InviteCode)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to validate invite code", "Error validating invite code", err)
		return
	}

	view := InviteValidationView{Valid: result.Valid, Reason: result.Reason}
	if result.Family != nil {
		view.FamilyName = result.Family.Name
		view.MemberCount = len(result.Family.Members)
	}
	respondWithJSON(w, http.StatusOK, view)
}

type sendInviteRequest struct {
	Email string `json:"email"`
}

// SendInvite emails the family's invite code to someone
func (h *FamilyHandler) SendInvite(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	familyID := mux.Vars(r)["id"]

	var req sendInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	family, err := h.familyService.GetFamily(r.Context(), familyID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get family", "Error getting family", err)
		return
	}
	if family == nil {
		respondWithError(w, http.StatusNotFound, "Family not found", "", nil)
		return
	}
	if !family.HasMember(user.ID) {
		respondWithError(w, http.StatusForbidden, "Not a member of this family", "", nil)
		return
	}

	err = h.emailService.SendFamilyInviteEmail(r.Context(), req.Email, user.Name, family.Name, family.InviteCode)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to send invite", "Error sending invite email", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (h *FamilyHandler) respondServiceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrFamilyNotFound):
		respondWithError(w, http.StatusNotFound, "Family not found", "", nil)
	case errors.Is(err, service.ErrInvalidInviteCode):
		respondWithError(w, http.StatusBadRequest, "Invalid invite code", "", nil)
	case errors.Is(err, service.ErrAlreadyMember):
		respondWithError(w, http.StatusConflict, "Already a member of this family", "", nil)
	case errors.Is(err, service.ErrNotAMember):
		respondWithError(w, http.StatusBadRequest, "Not a member of this family", "", nil)
	case errors.Is(err, service.ErrMemberNotFound):
		respondWithError(w, http.StatusNotFound, "Member not found", "", nil)
	case errors.Is(err, service.ErrSoleAdminCannotLeave):
		respondWithError(w, http.StatusConflict, "The only admin cannot leave; delete the family instead", "", nil)
	case errors.Is(err, service.ErrNotAuthorized):
		respondWithError(w, http.StatusForbidden, "Admin access required", "", nil)
	case errors.Is(err, service.ErrCannotRemoveSelf):
		respondWithError(w, http.StatusBadRequest, "Use leave instead of removing yourself", "", nil)
	case errors.Is(err, service.ErrCodeGenerationExhausted):
		respondWithError(w, http.StatusServiceUnavailable, "Could not allocate an invite code, please retry", logMsg, err)
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error", logMsg, err)
	}
}
