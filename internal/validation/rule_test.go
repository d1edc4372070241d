package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/models"
)

func validRule() *models.ModerationRule {
	return &models.ModerationRule{
		Name:      "profanity-filter",
		Type:      models.RuleTypeKeyword,
		Category:  models.FlagInappropriateLanguage,
		Keywords:  []string{"badword"},
		Threshold: 0.5,
		Action:    models.RuleActionFlag,
		Severity:  models.SeverityMedium,
	}
}

func TestValidateRule(t *testing.T) {
	t.Run("valid rule passes", func(t *testing.T) {
		require.NoError(t, ValidateRule(validRule()))
	})

	cases := []struct {
		name    string
		mutate  func(*models.ModerationRule)
		wantErr string
	}{
		{
			name:    "missing name",
			mutate:  func(r *models.ModerationRule) { r.Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "threshold above one",
			mutate:  func(r *models.ModerationRule) { r.Threshold = 1.5 },
			wantErr: "threshold must be in [0,1]",
		},
		{
			name:    "threshold negative",
			mutate:  func(r *models.ModerationRule) { r.Threshold = -0.1 },
			wantErr: "threshold must be in [0,1]",
		},
		{
			name:    "keyword rule without keywords",
			mutate:  func(r *models.ModerationRule) { r.Keywords = nil },
			wantErr: "at least one keyword",
		},
		{
			name: "pattern rule without pattern",
			mutate: func(r *models.ModerationRule) {
				r.Type = models.RuleTypePattern
				r.Pattern = ""
			},
			wantErr: "require a pattern",
		},
		{
			name: "pattern rule with broken regex",
			mutate: func(r *models.ModerationRule) {
				r.Type = models.RuleTypePattern
				r.Pattern = "([unclosed"
			},
			wantErr: "does not compile",
		},
		{
			name:    "unknown type",
			mutate:  func(r *models.ModerationRule) { r.Type = "telepathy" },
			wantErr: "unknown rule type",
		},
		{
			name:    "unknown action",
			mutate:  func(r *models.ModerationRule) { r.Action = "explode" },
			wantErr: "unknown rule action",
		},
		{
			name:    "unknown severity",
			mutate:  func(r *models.ModerationRule) { r.Severity = "cosmic" },
			wantErr: "unknown severity",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := validRule()
			tc.mutate(rule)
			err := ValidateRule(rule)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	t.Run("nil rule", func(t *testing.T) {
		assert.Error(t, ValidateRule(nil))
	})

	t.Run("ml model rule needs no keywords or pattern", func(t *testing.T) {
		rule := validRule()
		rule.Type = models.RuleTypeMLModel
		rule.Keywords = nil
		assert.NoError(t, ValidateRule(rule))
	})
}

func TestValidateReportReason(t *testing.T) {
	for _, reason := range []models.ReportReason{
		models.ReasonInappropriate, models.ReasonSpam, models.ReasonHarassment,
		models.ReasonCopyright, models.ReasonOther,
	} {
		assert.NoError(t, ValidateReportReason(reason))
	}
	assert.Error(t, ValidateReportReason("nonsense"))
	assert.Error(t, ValidateReportReason(""))
}
