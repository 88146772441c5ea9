package models

import "time"

// Document represents a stored paper's metadata. The file itself lives
// in blob storage and is referenced by FileKey; extraction output from
// the processing service lands in ExtractedText.
type Document struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"ownerId"`
	FamilyID      *string    `json:"familyId"`
	Title         string     `json:"title"`
	Category      string     `json:"category"`
	Tags          []string   `json:"tags"`
	FileKey       string     `json:"fileKey"`
	ExtractedText string     `json:"extractedText,omitempty"`
	DocumentDate  *time.Time `json:"documentDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// HasTag checks if the document carries a tag
func (d *Document) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SharedWithFamily checks if the document is visible to a family
func (d *Document) SharedWithFamily() bool {
	return d.FamilyID != nil
}
