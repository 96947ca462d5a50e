package rules

import (
	"context"
	"fmt"

	"clubdev.app/gamify/internal/model"
	rulesDto "clubdev.app/gamify/internal/modules/rules/dto"
	rulesRepo "clubdev.app/gamify/internal/modules/rules/repository"
	"clubdev.app/gamify/pkg/apperror"
	"gorm.io/gorm"
)

type RuleService interface {
	ActiveRules(ctx context.Context) ([]model.RewardRule, error)
	ListRules(ctx context.Context) ([]model.RewardRule, error)
	// RuleVersion resolves the exact rule version a grant was recorded
	// against. Inactive versions resolve fine; they are history, not errors.
	RuleVersion(ctx context.Context, ruleID string, version int) (*model.RewardRule, error)
	// CreateRule installs a new version and deactivates older ones. The new
	// version must be strictly greater than any recorded version.
	CreateRule(ctx context.Context, req rulesDto.CreateRuleRequest) (*model.RewardRule, error)
}

type ruleService struct {
	repo rulesRepo.RuleRepository
}

func NewRuleService(repo rulesRepo.RuleRepository) RuleService {
	return &ruleService{repo: repo}
}

func (s *ruleService) ActiveRules(ctx context.Context) ([]model.RewardRule, error) {
	rules, err := s.repo.GetActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading active rules: %v", apperror.ErrStorageUnavailable, err)
	}
	return rules, nil
}

func (s *ruleService) ListRules(ctx context.Context) ([]model.RewardRule, error) {
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing rules: %v", apperror.ErrStorageUnavailable, err)
	}
	return rules, nil
}

func (s *ruleService) RuleVersion(ctx context.Context, ruleID string, version int) (*model.RewardRule, error) {
	rule, err := s.repo.FindByVersion(ctx, ruleID, version)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.ErrNotFound
		}
		return nil, fmt.Errorf("%w: loading rule %s v%d: %v", apperror.ErrStorageUnavailable, ruleID, version, err)
	}
	return rule, nil
}

func (s *ruleService) CreateRule(ctx context.Context, req rulesDto.CreateRuleRequest) (*model.RewardRule, error) {
	if req.RuleID == model.CorrectionRuleID {
		return nil, fmt.Errorf("%w: rule id %q is reserved", apperror.ErrBadRequest, model.CorrectionRuleID)
	}
	if (req.PayloadField == "") != (req.Op == "") {
		return nil, fmt.Errorf("%w: payload_field and op must be set together", apperror.ErrBadRequest)
	}

	latest, err := s.repo.LatestVersion(ctx, req.RuleID)
	if err != nil {
		return nil, fmt.Errorf("%w: checking versions of rule %s: %v", apperror.ErrStorageUnavailable, req.RuleID, err)
	}
	if req.Version <= latest {
		return nil, fmt.Errorf("%w: rule %s is already at v%d", apperror.ErrStaleRuleVersion, req.RuleID, latest)
	}

	rule := &model.RewardRule{
		RuleID:       req.RuleID,
		Version:      req.Version,
		TriggerKind:  req.TriggerKind,
		PayloadField: req.PayloadField,
		Op:           req.Op,
		Threshold:    req.Threshold,
		XPDelta:      req.XPDelta,
		BadgeID:      req.BadgeID,
		Repeatable:   req.Repeatable,
		Active:       true,
	}
	if err := s.repo.ReplaceActive(ctx, rule); err != nil {
		return nil, fmt.Errorf("%w: installing rule %s v%d: %v", apperror.ErrStorageUnavailable, req.RuleID, req.Version, err)
	}
	return rule, nil
}
