package repository

import (
	"context"

	"clubdev.app/gamify/internal/model"
	"gorm.io/gorm"
)

type RuleRepository interface {
	GetActiveRules(ctx context.Context) ([]model.RewardRule, error)
	FindByVersion(ctx context.Context, ruleID string, version int) (*model.RewardRule, error)
	ListRules(ctx context.Context) ([]model.RewardRule, error)
	LatestVersion(ctx context.Context, ruleID string) (int, error)
	// ReplaceActive creates the rule and deactivates every older version of
	// the same rule_id in one transaction.
	ReplaceActive(ctx context.Context, rule *model.RewardRule) error
}

type ruleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &ruleRepository{db: db}
}

// GetActiveRules returns the active rule set in a stable order so that
// evaluation is deterministic across calls.
func (r *ruleRepository) GetActiveRules(ctx context.Context) ([]model.RewardRule, error) {
	var rules []model.RewardRule
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("rule_id ASC, version ASC").
		Find(&rules).Error
	return rules, err
}

func (r *ruleRepository) FindByVersion(ctx context.Context, ruleID string, version int) (*model.RewardRule, error) {
	var rule model.RewardRule
	err := r.db.WithContext(ctx).
		Where("rule_id = ? AND version = ?", ruleID, version).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *ruleRepository) ListRules(ctx context.Context) ([]model.RewardRule, error) {
	var rules []model.RewardRule
	err := r.db.WithContext(ctx).
		Order("rule_id ASC, version ASC").
		Find(&rules).Error
	return rules, err
}

// LatestVersion returns the highest version recorded for a rule, or zero
// when the rule does not exist yet.
func (r *ruleRepository) LatestVersion(ctx context.Context, ruleID string) (int, error) {
	var version int
	err := r.db.WithContext(ctx).Model(&model.RewardRule{}).
		Select("COALESCE(MAX(version), 0)").
		Where("rule_id = ?", ruleID).
		Scan(&version).Error
	return version, err
}

func (r *ruleRepository) ReplaceActive(ctx context.Context, rule *model.RewardRule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.RewardRule{}).
			Where("rule_id = ? AND version < ?", rule.RuleID, rule.Version).
			Update("active", false).Error; err != nil {
			return err
		}
		return tx.Create(rule).Error
	})
}
