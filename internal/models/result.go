package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentType identifies what kind of user content was screened.
type ContentType string

// Content types.
const (
	ContentTypeResource ContentType = "resource"
	ContentTypeMessage  ContentType = "message"
	ContentTypeProfile  ContentType = "profile"
	ContentTypeComment  ContentType = "comment"
)

// ModerationStatus is the verdict for a screened content item.
type ModerationStatus string

// Moderation statuses.
const (
	StatusApproved      ModerationStatus = "approved"
	StatusFlagged       ModerationStatus = "flagged"
	StatusRejected      ModerationStatus = "rejected"
	StatusPendingReview ModerationStatus = "pending_review"
)

// ContentModerationResult is the verdict for one screened content item.
// Results are never mutated after creation; a manual review supersedes an
// automated verdict by creating a new result with confidence 1.0.
type ContentModerationResult struct {
	ID          string           `gorm:"primaryKey;size:36" json:"id"`
	ContentID   string           `gorm:"not null;index:idx_results_content" json:"content_id"`
	ContentType ContentType      `gorm:"not null;index:idx_results_content" json:"content_type"`
	Status      ModerationStatus `gorm:"not null;index" json:"status"`
	Confidence  float64          `gorm:"not null" json:"confidence"`
	Flags       []ModerationFlag `gorm:"serializer:json" json:"flags"`
	ReviewedBy  *string          `gorm:"size:36" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time       `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns a UUID primary key when none was provided.
func (r *ContentModerationResult) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
