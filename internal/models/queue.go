package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QueuePriority orders items in the review queue.
type QueuePriority string

// Queue priorities, lowest to highest.
const (
	PriorityLow    QueuePriority = "low"
	PriorityMedium QueuePriority = "medium"
	PriorityHigh   QueuePriority = "high"
	PriorityUrgent QueuePriority = "urgent"
)

// PriorityRank returns the sort rank for a priority (higher first).
func PriorityRank(p QueuePriority) int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// QueueStatus tracks an item through its one-way lifecycle:
// pending -> in_review -> completed. Completed items are never reopened.
type QueueStatus string

// Queue statuses.
const (
	QueuePending   QueueStatus = "pending"
	QueueInReview  QueueStatus = "in_review"
	QueueCompleted QueueStatus = "completed"
)

// QueueItem is one piece of content awaiting human attention. User reports
// for the same content merge into the same open item; three or more reports
// escalate priority to high (urgent is never reached by escalation, and
// never downgraded).
type QueueItem struct {
	ID          string           `gorm:"primaryKey;size:36" json:"id"`
	ContentID   string           `gorm:"not null;index:idx_queue_content" json:"content_id"`
	ContentType ContentType      `gorm:"not null;index:idx_queue_content" json:"content_type"`
	Priority    QueuePriority    `gorm:"not null" json:"priority"`
	Status      QueueStatus      `gorm:"not null;index:idx_queue_content;index" json:"status"`
	AssignedTo  *string          `gorm:"size:36;index" json:"assigned_to,omitempty"`
	Flags       []ModerationFlag `gorm:"serializer:json" json:"flags"`
	Reports     []UserReport     `gorm:"foreignKey:QueueItemID" json:"reports,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `gorm:"index" json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key when none was provided.
func (q *QueueItem) BeforeCreate(_ *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// ReportReason is the complaint category a reporter picked.
type ReportReason string

// Report reasons.
const (
	ReasonInappropriate ReportReason = "inappropriate"
	ReasonSpam          ReportReason = "spam"
	ReasonHarassment    ReportReason = "harassment"
	ReasonCopyright     ReportReason = "copyright"
	ReasonOther         ReportReason = "other"
)

// ReportStatus tracks a user report's lifecycle.
type ReportStatus string

// Report statuses.
const (
	ReportPending   ReportStatus = "pending"
	ReportReviewed  ReportStatus = "reviewed"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

// UserReport is one user's complaint about a piece of content. Multiple
// reports for the same content attach to the same open queue item but stay
// distinct records.
type UserReport struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	ReporterID  string       `gorm:"not null;index" json:"reporter_id"`
	ContentID   string       `gorm:"not null;index" json:"content_id"`
	ContentType ContentType  `gorm:"not null" json:"content_type"`
	Reason      ReportReason `gorm:"not null" json:"reason"`
	Description string       `gorm:"type:text" json:"description"`
	Status      ReportStatus `gorm:"not null;default:pending;index" json:"status"`
	QueueItemID *string      `gorm:"size:36;index" json:"queue_item_id,omitempty"`
	ReviewedBy  *string      `gorm:"size:36" json:"reviewed_by,omitempty"`
	Resolution  *string      `gorm:"type:text" json:"resolution,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `gorm:"index" json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key when none was provided.
func (r *UserReport) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ReportPriority maps a report reason to the initial priority of a queue
// item created for it.
func ReportPriority(reason ReportReason) QueuePriority {
	switch reason {
	case ReasonHarassment:
		return PriorityHigh
	case ReasonInappropriate, ReasonCopyright:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// ReportFlagType maps a report reason to the flag type seeded on a queue
// item created for it.
func ReportFlagType(reason ReportReason) FlagType {
	switch reason {
	case ReasonInappropriate:
		return FlagInappropriateLanguage
	case ReasonSpam:
		return FlagSpam
	case ReasonHarassment:
		return FlagHarassment
	case ReasonCopyright:
		return FlagCopyright
	default:
		return FlagMisinformation
	}
}
