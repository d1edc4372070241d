// Package validation contains input validation helpers.
package validation

import (
	"errors"
	"fmt"
	"regexp"

	"gatekeeper/internal/models"
)

// ValidateRule checks that a moderation rule is well formed before it is
// persisted and added to the live rule set.
func ValidateRule(rule *models.ModerationRule) error {
	if rule == nil {
		return errors.New("rule is required")
	}
	if rule.Name == "" {
		return errors.New("rule name is required")
	}
	if rule.Threshold < 0 || rule.Threshold > 1 {
		return fmt.Errorf("rule threshold must be in [0,1], got %v", rule.Threshold)
	}
	switch rule.Type {
	case models.RuleTypeKeyword:
		if len(rule.Keywords) == 0 {
			return errors.New("keyword rules require at least one keyword")
		}
	case models.RuleTypePattern:
		if rule.Pattern == "" {
			return errors.New("pattern rules require a pattern")
		}
		if _, err := regexp.Compile("(?i)" + rule.Pattern); err != nil {
			return fmt.Errorf("pattern does not compile: %w", err)
		}
	case models.RuleTypeMLModel, models.RuleTypeCustom:
		// No extra structural requirements.
	default:
		return fmt.Errorf("unknown rule type %q", rule.Type)
	}
	switch rule.Action {
	case models.RuleActionFlag, models.RuleActionAutoReject, models.RuleActionRequireReview:
	default:
		return fmt.Errorf("unknown rule action %q", rule.Action)
	}
	switch rule.Severity {
	case models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical:
	default:
		return fmt.Errorf("unknown severity %q", rule.Severity)
	}
	return nil
}

// ValidateReportReason checks a user report reason.
func ValidateReportReason(reason models.ReportReason) error {
	switch reason {
	case models.ReasonInappropriate, models.ReasonSpam, models.ReasonHarassment,
		models.ReasonCopyright, models.ReasonOther:
		return nil
	default:
		return fmt.Errorf("unknown report reason %q", reason)
	}
}
