package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RuleType selects the evaluation strategy for a moderation rule.
type RuleType string

// Rule types.
const (
	RuleTypeKeyword RuleType = "keyword"
	RuleTypePattern RuleType = "pattern"
	RuleTypeMLModel RuleType = "ml_model"
	RuleTypeCustom  RuleType = "custom"
)

// RuleAction is what a triggered rule asks the pipeline to do.
type RuleAction string

// Rule actions.
const (
	RuleActionFlag          RuleAction = "flag"
	RuleActionAutoReject    RuleAction = "auto_reject"
	RuleActionRequireReview RuleAction = "require_review"
)

// ModerationRule is one admin-configured detector. Rules are mutable state;
// the screening service keeps a copy-on-write snapshot of the active set.
type ModerationRule struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	Type      RuleType   `gorm:"not null;index" json:"type"`
	Category  FlagType   `gorm:"not null" json:"category"`
	Severity  Severity   `gorm:"not null" json:"severity"`
	Pattern   string     `json:"pattern,omitempty"`
	Keywords  []string   `gorm:"serializer:json" json:"keywords,omitempty"`
	Threshold float64    `gorm:"not null" json:"threshold"`
	Action    RuleAction `gorm:"not null" json:"action"`
	IsActive  bool       `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key when none was provided.
func (r *ModerationRule) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// RuleUpdate carries a partial rule edit. Nil fields are left unchanged.
type RuleUpdate struct {
	Name      *string     `json:"name,omitempty"`
	Type      *RuleType   `json:"type,omitempty"`
	Category  *FlagType   `json:"category,omitempty"`
	Severity  *Severity   `json:"severity,omitempty"`
	Pattern   *string     `json:"pattern,omitempty"`
	Keywords  *[]string   `json:"keywords,omitempty"`
	Threshold *float64    `json:"threshold,omitempty"`
	Action    *RuleAction `json:"action,omitempty"`
	IsActive  *bool       `json:"is_active,omitempty"`
}

// Apply merges the update into the rule, preserving unset fields and the
// original CreatedAt.
func (u RuleUpdate) Apply(r *ModerationRule) {
	if u.Name != nil {
		r.Name = *u.Name
	}
	if u.Type != nil {
		r.Type = *u.Type
	}
	if u.Category != nil {
		r.Category = *u.Category
	}
	if u.Severity != nil {
		r.Severity = *u.Severity
	}
	if u.Pattern != nil {
		r.Pattern = *u.Pattern
	}
	if u.Keywords != nil {
		r.Keywords = *u.Keywords
	}
	if u.Threshold != nil {
		r.Threshold = *u.Threshold
	}
	if u.Action != nil {
		r.Action = *u.Action
	}
	if u.IsActive != nil {
		r.IsActive = *u.IsActive
	}
}
