package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BanType distinguishes expiring from permanent bans.
type BanType string

// Ban types.
const (
	BanTemporary BanType = "temporary"
	BanPermanent BanType = "permanent"
)

// UserBan blocks a user from a community, or everywhere when CommunityID is
// nil (a global ban applies regardless of the community being checked).
// Temporary bans carry ExpiresAt and are swept by ExpireTemporaryBans.
type UserBan struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"not null;index:idx_bans_user" json:"user_id"`
	CommunityID *string    `gorm:"index" json:"community_id,omitempty"`
	BanType     BanType    `gorm:"not null" json:"ban_type"`
	Reason      string     `gorm:"type:text" json:"reason"`
	BannedBy    string     `gorm:"not null;size:36" json:"banned_by"`
	ExpiresAt   *time.Time `gorm:"index" json:"expires_at,omitempty"`
	IsActive    bool       `gorm:"not null;default:true;index:idx_bans_user" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key when none was provided.
func (b *UserBan) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the ban has an expiry in the past.
func (b *UserBan) Expired(now time.Time) bool {
	return b.ExpiresAt != nil && b.ExpiresAt.Before(now)
}

// AppliesTo reports whether an active ban blocks the user in the given
// community. Global bans (nil CommunityID) block everywhere.
func (b *UserBan) AppliesTo(communityID string) bool {
	if b.CommunityID == nil {
		return true
	}
	return *b.CommunityID == communityID
}
