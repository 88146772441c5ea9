package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"paperpile/internal/service"
	"paperpile/internal/validation"
)

// DocumentHandler handles document metadata HTTP requests
type DocumentHandler struct {
	documentService *service.DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

type createDocumentRequest struct {
	Title        string     `json:"title"`
	Category     string     `json:"category"`
	Tags         []string   `json:"tags"`
	FileKey      string     `json:"fileKey"`
	DocumentDate *time.Time `json:"documentDate"`
}

// Create stores a new document's metadata
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req createDocumentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	doc, err := h.documentService.CreateDocument(r.Context(), user.ID, req.Title, req.Category, req.Tags, req.FileKey, req.DocumentDate)
	if err != nil {
		h.respondServiceError(w, err, "Error creating document")
		return
	}

	respondWithJSON(w, http.StatusCreated, doc)
}

// Get returns one document the caller can see
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	documentID := mux.Vars(r)["id"]

	doc, err := h.documentService.GetDocument(r.Context(), user.ID, documentID)
	if err != nil {
		h.respondServiceError(w, err, "Error getting document")
		return
	}

	respondWithJSON(w, http.StatusOK, doc)
}

// List returns the caller's documents, optionally filtered by the
// category and tag query parameters.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	category := r.URL.Query().Get("category")
	tag := r.URL.Query().Get("tag")

	docs, err := h.documentService.ListUserDocuments(r.Context(), user.ID, category, tag)
	if err != nil {
		h.respondServiceError(w, err, "Error listing documents")
		return
	}

	respondWithJSON(w, http.StatusOK, docs)
}

// ListFamily returns the documents shared with the caller's family
func (h *DocumentHandler) ListFamily(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	docs, err := h.documentService.ListFamilyDocuments(r.Context(), user.ID)
	if err != nil {
		h.respondServiceError(w, err, "Error listing family documents")
		return
	}

	respondWithJSON(w, http.StatusOK, docs)
}

// Update applies a metadata patch to the caller's document
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	documentID := mux.Vars(r)["id"]

	var update service.DocumentUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	doc, err := h.documentService.UpdateDocument(r.Context(), user.ID, documentID, update)
	if err != nil {
		h.respondServiceError(w, err, "Error updating document")
		return
	}

	respondWithJSON(w, http.StatusOK, doc)
}

// Delete removes the caller's document
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	documentID := mux.Vars(r)["id"]

	if err := h.documentService.DeleteDocument(r.Context(), user.ID, documentID); err != nil {
		h.respondServiceError(w, err, "Error deleting document")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Share makes the caller's document visible to their family
func (h *DocumentHandler) Share(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	documentID := mux.Vars(r)["id"]

	doc, err := h.documentService.ShareWithFamily(r.Context(), user.ID, documentID)
	if err != nil {
		h.respondServiceError(w, err, "Error sharing document")
		return
	}

	respondWithJSON(w, http.StatusOK, doc)
}

// Unshare withdraws the caller's document from family visibility
func (h *DocumentHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	documentID := mux.Vars(r)["id"]

	doc, err := h.documentService.Unshare(r.Context(), user.ID, documentID)
	if err != nil {
		h.respondServiceError(w, err, "Error unsharing document")
		return
	}

	respondWithJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) respondServiceError(w http.ResponseWriter, err error, logMsg string) {
	var validationErr validation.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondWithError(w, http.StatusBadRequest, validationErr.Error(), "", nil)
	case errors.Is(err, service.ErrDocumentNotFound):
		respondWithError(w, http.StatusNotFound, "Document not found", "", nil)
	case errors.Is(err, service.ErrDocumentAccessDenied):
		respondWithError(w, http.StatusForbidden, "No access to this document", "", nil)
	case errors.Is(err, service.ErrNoFamily):
		respondWithError(w, http.StatusBadRequest, "You are not in a family", "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error", logMsg, err)
	}
}
