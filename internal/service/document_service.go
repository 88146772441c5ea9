package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"paperpile/internal/models"
	"paperpile/internal/store"
	"paperpile/internal/validation"
)

var (
	ErrDocumentNotFound     = errors.New("document not found")
	ErrDocumentAccessDenied = errors.New("user does not have access to this document")
	ErrNoFamily             = errors.New("user does not belong to a family")
)

// DocumentService handles the paper documents themselves: metadata
// CRUD, listing, and sharing inside the owner's family. The file
// bytes live in blob storage and are referenced by FileKey only.
type DocumentService struct {
	store store.Store
}

// NewDocumentService creates a new document service
func NewDocumentService(st store.Store) *DocumentService {
	return &DocumentService{store: st}
}

// DocumentUpdate carries the metadata fields a PATCH may change.
// Nil fields are left untouched.
type DocumentUpdate struct {
	Title         *string    `json:"title"`
	Category      *string    `json:"category"`
	Tags          *[]string  `json:"tags"`
	DocumentDate  *time.Time `json:"documentDate"`
	ExtractedText *string    `json:"extractedText"`
}

// CreateDocument stores a new document's metadata for its owner
func (s *DocumentService) CreateDocument(ctx context.Context, ownerID, title, category string, tags []string, fileKey string, documentDate *time.Time) (*models.Document, error) {
	if err := validation.ValidateTitle(title); err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Title:        title,
		Category:     category,
		Tags:         tags,
		FileKey:      fileKey,
		DocumentDate: documentDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Set(ctx, store.Documents, doc.ID, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return doc, nil
}

// GetDocument retrieves a document the user can see: their own, or
// one shared with their family.
func (s *DocumentService) GetDocument(ctx context.Context, userID, documentID string) (*models.Document, error) {
	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.checkReadAccess(ctx, userID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDocument applies a metadata update. Only the owner may edit.
func (s *DocumentService) UpdateDocument(ctx context.Context, userID, documentID string, update DocumentUpdate) (*models.Document, error) {
	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != userID {
		return nil, ErrDocumentAccessDenied
	}

	fields := map[string]interface{}{"updatedAt": time.Now().UTC()}
	if update.Title != nil {
		if err := validation.ValidateTitle(*update.Title); err != nil {
			return nil, err
		}
		fields["title"] = *update.Title
	}
	if update.Category != nil {
		fields["category"] = *update.Category
	}
	if update.Tags != nil {
		fields["tags"] = *update.Tags
	}
	if update.DocumentDate != nil {
		fields["documentDate"] = *update.DocumentDate
	}
	if update.ExtractedText != nil {
		fields["extractedText"] = *update.ExtractedText
	}

	if err := s.store.Update(ctx, store.Documents, documentID, fields); err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	return s.loadDocument(ctx, documentID)
}

// DeleteDocument removes a document. Only the owner may delete.
func (s *DocumentService) DeleteDocument(ctx context.Context, userID, documentID string) error {
	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.OwnerID != userID {
		return ErrDocumentAccessDenied
	}
	if err := s.store.Delete(ctx, store.Documents, documentID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// ListUserDocuments returns the user's own documents, optionally
// narrowed by category and/or tag.
func (s *DocumentService) ListUserDocuments(ctx context.Context, ownerID, category, tag string) ([]models.Document, error) {
	var docs []models.Document
	if err := s.store.Query(ctx, store.Documents, "ownerId", ownerID, &docs); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return filterDocuments(docs, category, tag), nil
}

// ListFamilyDocuments returns every document shared with the user's
// family, including their own shared ones.
func (s *DocumentService) ListFamilyDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	familyID, err := s.userFamilyID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if familyID == "" {
		return nil, ErrNoFamily
	}

	var docs []models.Document
	if err := s.store.Query(ctx, store.Documents, "familyId", familyID, &docs); err != nil {
		return nil, fmt.Errorf("failed to list family documents: %w", err)
	}
	return docs, nil
}

// ShareWithFamily makes the owner's document visible to their family
func (s *DocumentService) ShareWithFamily(ctx context.Context, userID, documentID string) (*models.Document, error) {
	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != userID {
		return nil, ErrDocumentAccessDenied
	}

	familyID, err := s.userFamilyID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if familyID == "" {
		return nil, ErrNoFamily
	}

	err = s.store.Update(ctx, store.Documents, documentID, map[string]interface{}{
		"familyId":  familyID,
		"updatedAt": time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to share document: %w", err)
	}
	return s.loadDocument(ctx, documentID)
}

// Unshare withdraws a document from family visibility
func (s *DocumentService) Unshare(ctx context.Context, userID, documentID string) (*models.Document, error) {
	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != userID {
		return nil, ErrDocumentAccessDenied
	}

	err = s.store.Update(ctx, store.Documents, documentID, map[string]interface{}{
		"familyId":  nil,
		"updatedAt": time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unshare document: %w", err)
	}
	return s.loadDocument(ctx, documentID)
}

func (s *DocumentService) loadDocument(ctx context.Context, documentID string) (*models.Document, error) {
	var doc models.Document
	err := s.store.Get(ctx, store.Documents, documentID, &doc)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

func (s *DocumentService) checkReadAccess(ctx context.Context, userID string, doc *models.Document) error {
	if doc.OwnerID == userID {
		return nil
	}
	if doc.FamilyID == nil {
		return ErrDocumentAccessDenied
	}
	familyID, err := s.userFamilyID(ctx, userID)
	if err != nil {
		return err
	}
	if familyID != *doc.FamilyID {
		return ErrDocumentAccessDenied
	}
	return nil
}

// userFamilyID returns the user's current family id, or "" when the
// user has no profile or no family.
func (s *DocumentService) userFamilyID(ctx context.Context, userID string) (string, error) {
	var profile models.UserProfile
	err := s.store.Get(ctx, store.Users, userID, &profile)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user profile: %w", err)
	}
	if profile.FamilyID == nil {
		return "", nil
	}
	return *profile.FamilyID, nil
}

func filterDocuments(docs []models.Document, category, tag string) []models.Document {
	if category == "" && tag == "" {
		return docs
	}
	filtered := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if category != "" && doc.Category != category {
			continue
		}
		if tag != "" && !doc.HasTag(tag) {
			continue
		}
		filtered = append(filtered, doc)
	}
	return filtered
}
