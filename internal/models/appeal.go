package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppealType identifies what kind of decision is being contested.
type AppealType string

// Appeal types.
const (
	AppealContentRemoval    AppealType = "content_removal"
	AppealUserBan           AppealType = "user_ban"
	AppealAccountSuspension AppealType = "account_suspension"
)

// AppealStatus tracks an appeal's lifecycle. under_review is reserved for a
// future multi-step flow; review currently moves pending straight to
// approved or rejected.
type AppealStatus string

// Appeal statuses.
const (
	AppealPending     AppealStatus = "pending"
	AppealUnderReview AppealStatus = "under_review"
	AppealApproved    AppealStatus = "approved"
	AppealRejected    AppealStatus = "rejected"
)

// Appeal is a user's request to overturn a moderation decision. Any user
// may file one; approval reverses the referenced decision (bans are
// deactivated directly, content restoration is emitted as an event for the
// host system to act on).
type Appeal struct {
	ID                 string       `gorm:"primaryKey;size:36" json:"id"`
	UserID             string       `gorm:"not null;index" json:"user_id"`
	Type               AppealType   `gorm:"not null" json:"type"`
	OriginalDecisionID string       `gorm:"not null;size:36;index" json:"original_decision_id"`
	Reason             string       `gorm:"type:text" json:"reason"`
	Status             AppealStatus `gorm:"not null;default:pending;index" json:"status"`
	ReviewedBy         *string      `gorm:"size:36" json:"reviewed_by,omitempty"`
	Resolution         *string      `gorm:"type:text" json:"resolution,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key when none was provided.
func (a *Appeal) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
