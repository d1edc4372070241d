// Package repository provides data access layer implementations for the moderation core.
package repository

import (
	"context"

	"gatekeeper/internal/models"

	"gorm.io/gorm"
)

// RuleRepository defines interface for moderation rule operations
type RuleRepository interface {
	Create(ctx context.Context, rule *models.ModerationRule) error
	GetByID(ctx context.Context, id string) (*models.ModerationRule, error)
	List(ctx context.Context) ([]*models.ModerationRule, error)
	Update(ctx context.Context, rule *models.ModerationRule) error
	Delete(ctx context.Context, id string) (bool, error)
}

type ruleRepository struct {
	db *gorm.DB
}

// NewRuleRepository creates a new RuleRepository
func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) Create(ctx context.Context, rule *models.ModerationRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *ruleRepository) GetByID(ctx context.Context, id string) (*models.ModerationRule, error) {
	var rule models.ModerationRule
	if err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *ruleRepository) List(ctx context.Context) ([]*models.ModerationRule, error) {
	var rules []*models.ModerationRule
	err := r.db.WithContext(ctx).Order("created_at asc").Find(&rules).Error
	return rules, err
}

func (r *ruleRepository) Update(ctx context.Context, rule *models.ModerationRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *ruleRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.ModerationRule{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}
