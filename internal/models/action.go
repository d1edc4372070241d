package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActionType classifies a moderator decision.
type ActionType string

// Action types.
const (
	ActionApprove       ActionType = "approve"
	ActionReject        ActionType = "reject"
	ActionBanUser       ActionType = "ban_user"
	ActionDeleteContent ActionType = "delete_content"
	ActionWarnUser      ActionType = "warn_user"
)

// ModerationAction is one immutable audit record of a moderator decision.
// The log is append-only; nothing updates or deletes these rows, and the
// dashboard statistics read from them.
type ModerationAction struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	ModeratorID string     `gorm:"not null;size:36;index" json:"moderator_id"`
	ActionType  ActionType `gorm:"not null" json:"action_type"`
	TargetType  string     `gorm:"not null" json:"target_type"`
	TargetID    string     `gorm:"not null;index" json:"target_id"`
	Reason      string     `gorm:"type:text" json:"reason"`
	Severity    Severity   `gorm:"not null" json:"severity"`
	CommunityID *string    `gorm:"index" json:"community_id,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns a UUID primary key when none was provided.
func (a *ModerationAction) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
