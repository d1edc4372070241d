package seed

import (
	"fmt"
	"os"

	"gatekeeper/internal/models"
	"gatekeeper/internal/screening"
	"gatekeeper/internal/validation"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// ruleFixture is the YAML shape of one rule in a fixture file.
type ruleFixture struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	Category  string   `yaml:"category"`
	Severity  string   `yaml:"severity"`
	Pattern   string   `yaml:"pattern"`
	Keywords  []string `yaml:"keywords"`
	Threshold float64  `yaml:"threshold"`
	Action    string   `yaml:"action"`
}

type ruleFixtureFile struct {
	Rules []ruleFixture `yaml:"rules"`
}

// Rules seeds the built-in screening rules. Existing rules with the same
// name are left untouched so operator edits survive reseeding.
func Rules(db *gorm.DB) error {
	for _, rule := range screening.DefaultRules() {
		if err := upsertRule(db, rule); err != nil {
			return fmt.Errorf("seed built-in rule %q: %w", rule.Name, err)
		}
	}
	return nil
}

// RulesFromFile seeds screening rules from a YAML fixture file. Each rule
// is validated before insertion; the first invalid rule aborts the load.
func RulesFromFile(db *gorm.DB, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rule fixture %s: %w", path, err)
	}

	var file ruleFixtureFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("parse rule fixture %s: %w", path, err)
	}

	loaded := 0
	for _, fx := range file.Rules {
		rule := &models.ModerationRule{
			Name:      fx.Name,
			Type:      models.RuleType(fx.Type),
			Category:  models.FlagType(fx.Category),
			Severity:  models.Severity(fx.Severity),
			Pattern:   fx.Pattern,
			Keywords:  fx.Keywords,
			Threshold: fx.Threshold,
			Action:    models.RuleAction(fx.Action),
			IsActive:  true,
		}
		if err := validation.ValidateRule(rule); err != nil {
			return loaded, fmt.Errorf("invalid fixture rule %q: %w", fx.Name, err)
		}
		if err := upsertRule(db, rule); err != nil {
			return loaded, fmt.Errorf("seed fixture rule %q: %w", fx.Name, err)
		}
		loaded++
	}
	return loaded, nil
}

func upsertRule(db *gorm.DB, rule *models.ModerationRule) error {
	var existing models.ModerationRule
	return db.Where(models.ModerationRule{Name: rule.Name}).
		Attrs(*rule).
		FirstOrCreate(&existing).Error
}
