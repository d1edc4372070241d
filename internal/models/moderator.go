package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ModeratorRole is informational only: authority comes from the explicit
// permission grants, never from the role string.
type ModeratorRole string

// Moderator roles.
const (
	RoleModerator  ModeratorRole = "moderator"
	RoleAdmin      ModeratorRole = "admin"
	RoleSuperAdmin ModeratorRole = "super_admin"
)

// PermissionScope bounds where a granted action applies.
type PermissionScope string

// Permission scopes.
const (
	ScopeCommunity PermissionScope = "community"
	ScopeGlobal    PermissionScope = "global"
)

// Moderation permission actions.
const (
	PermBanUsers      = "ban_users"
	PermHandleAppeals = "handle_appeals"
	PermReviewContent = "review_content"
	PermManageRules   = "manage_rules"
	PermViewDashboard = "view_dashboard"
)

// Permission is one (action, scope) grant held by a moderator.
type Permission struct {
	Action string          `json:"action"`
	Scope  PermissionScope `json:"scope"`
}

// CommunityModerator grants moderation authority to a user within a
// community (or globally). Removal is a soft delete via IsActive so the
// appointment history stays auditable.
type CommunityModerator struct {
	ID          string        `gorm:"primaryKey;size:36" json:"id"`
	UserID      string        `gorm:"not null;index:idx_moderators_user" json:"user_id"`
	CommunityID string        `gorm:"not null;index" json:"community_id"`
	Role        ModeratorRole `gorm:"not null" json:"role"`
	Permissions []Permission  `gorm:"serializer:json" json:"permissions"`
	IsActive    bool          `gorm:"not null;default:true;index:idx_moderators_user" json:"is_active"`
	AppointedBy string        `gorm:"not null;size:36" json:"appointed_by"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key when none was provided.
func (m *CommunityModerator) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// HasGlobalScope reports whether any grant is global.
func (m *CommunityModerator) HasGlobalScope() bool {
	for _, p := range m.Permissions {
		if p.Scope == ScopeGlobal {
			return true
		}
	}
	return false
}

// Allows reports whether this moderator record authorizes the action for
// the given community. An empty communityID means no community restriction
// was requested, so any grant for the action suffices.
func (m *CommunityModerator) Allows(action, communityID string) bool {
	for _, p := range m.Permissions {
		if p.Action != action {
			continue
		}
		if p.Scope == ScopeGlobal {
			return true
		}
		if communityID == "" || m.CommunityID == communityID {
			return true
		}
	}
	return false
}
