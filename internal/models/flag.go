// Package models contains data structures for the moderation domain.
package models

import "time"

// FlagType identifies the policy category a flag was raised under.
type FlagType string

// Flag types.
const (
	FlagInappropriateLanguage FlagType = "inappropriate_language"
	FlagSpam                  FlagType = "spam"
	FlagHarassment            FlagType = "harassment"
	FlagCopyright             FlagType = "copyright"
	FlagMisinformation        FlagType = "misinformation"
	FlagAdultContent          FlagType = "adult_content"
	FlagViolence              FlagType = "violence"
	FlagHateSpeech            FlagType = "hate_speech"
)

// Severity grades how serious a detected issue is.
type Severity string

// Severities, lowest to highest.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityWeight returns the aggregation weight for a severity.
// Unknown severities weigh the same as low.
func SeverityWeight(s Severity) float64 {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// DetectionSource identifies what raised a flag.
type DetectionSource string

// Detection sources.
const (
	DetectedByAutomated  DetectionSource = "automated"
	DetectedByUserReport DetectionSource = "user_report"
	DetectedByModerator  DetectionSource = "moderator"
)

// ModerationFlag is one detected issue on a piece of content. Flags are
// value records: produced fresh by screening or report intake and never
// mutated afterwards. They are stored serialized on their owning record.
type ModerationFlag struct {
	Type        FlagType        `json:"type"`
	Severity    Severity        `json:"severity"`
	Confidence  float64         `json:"confidence"`
	Description string          `json:"description"`
	DetectedBy  DetectionSource `json:"detected_by"`
	CreatedAt   time.Time       `json:"created_at"`
}
