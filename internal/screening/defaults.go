package screening

import "gatekeeper/internal/models"

// DefaultRules is the starter rule set installed when the rule store is
// empty. Admins are expected to tune thresholds and keyword lists over
// time; these are deliberately conservative defaults.
func DefaultRules() []*models.ModerationRule {
	return []*models.ModerationRule{
		{
			Name:     "Inappropriate language filter",
			Type:     models.RuleTypeKeyword,
			Category: models.FlagInappropriateLanguage,
			Severity: models.SeverityMedium,
			Keywords: []string{
				"stupid", "idiot", "moron", "trash", "garbage",
				"worthless", "loser", "scum", "disgusting",
			},
			Threshold: 0.3,
			Action:    models.RuleActionFlag,
			IsActive:  true,
		},
		{
			Name:     "Hate speech filter",
			Type:     models.RuleTypeKeyword,
			Category: models.FlagHateSpeech,
			Severity: models.SeverityCritical,
			Keywords: []string{
				"hate", "kill", "die", "exterminate", "vermin", "subhuman",
			},
			Threshold: 0.3,
			Action:    models.RuleActionAutoReject,
			IsActive:  true,
		},
		{
			Name:      "Adult content detector",
			Type:      models.RuleTypeMLModel,
			Category:  models.FlagAdultContent,
			Severity:  models.SeverityHigh,
			Threshold: 0.7,
			Action:    models.RuleActionRequireReview,
			IsActive:  true,
		},
		{
			Name:      "Spam pattern detector",
			Type:      models.RuleTypePattern,
			Category:  models.FlagSpam,
			Severity:  models.SeverityMedium,
			Pattern:   `(https?://\S+)|((buy|cheap|free|click|winner)\s+(now|here|fast))`,
			Threshold: 0.5,
			Action:    models.RuleActionFlag,
			IsActive:  true,
		},
		{
			Name:      "Violence detector",
			Type:      models.RuleTypeMLModel,
			Category:  models.FlagViolence,
			Severity:  models.SeverityHigh,
			Threshold: 0.6,
			Action:    models.RuleActionRequireReview,
			IsActive:  true,
		},
	}
}
