package bootstrap

import (
	"log"

	"clubdev.app/gamify/internal/model"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.ActivityEvent{},
		&model.RewardRule{},
		&model.Grant{},
		&model.UserStats{},
		&model.StreakState{},
		&model.GitHubSnapshot{},
	)
}

func strPtr(s string) *string { return &s }

// SeedRules installs the default rule set. Each (rule_id, version) is only
// created once: rule versions are immutable once they may have produced
// grants, so changes ship as new versions.
func SeedRules(db *gorm.DB) error {
	defaultRules := []model.RewardRule{
		{RuleID: "code_upload_xp", Version: 1, TriggerKind: model.KindCodeUpload, XPDelta: 10, Repeatable: true, Active: true},
		{RuleID: "first_upload_badge", Version: 1, TriggerKind: model.KindCodeUpload, XPDelta: 25, BadgeID: strPtr("first_upload"), Active: true},
		{RuleID: "blog_publish_xp", Version: 1, TriggerKind: model.KindBlogPublish, XPDelta: 15, Repeatable: true, Active: true},
		{RuleID: "blog_writer_badge", Version: 1, TriggerKind: model.KindBlogPublish, XPDelta: 20, BadgeID: strPtr("blog_writer"), Active: true},
		{RuleID: "answer_accepted_xp", Version: 1, TriggerKind: model.KindAnswerAccepted, XPDelta: 20, Repeatable: true, Active: true},
		{RuleID: "helper_badge", Version: 1, TriggerKind: model.KindAnswerAccepted, XPDelta: 30, BadgeID: strPtr("helper"), Active: true},
		{RuleID: "challenge_solved_xp", Version: 1, TriggerKind: model.KindChallengeSolved, XPDelta: 25, Repeatable: true, Active: true},
		{RuleID: "like_received_xp", Version: 1, TriggerKind: model.KindLikeReceived, XPDelta: 10, Repeatable: true, Active: true},
		{RuleID: "comment_received_xp", Version: 1, TriggerKind: model.KindCommentReceived, XPDelta: 5, Repeatable: true, Active: true},
		{RuleID: "popular_creator_badge", Version: 1, TriggerKind: model.KindLikeReceived, PayloadField: "total_likes", Op: model.OpGTE, Threshold: 100, XPDelta: 50, BadgeID: strPtr("popular_creator"), Active: true},
		{RuleID: "github_star_milestone", Version: 1, TriggerKind: model.KindGitHubStatSync, PayloadField: "threshold", Op: model.OpGTE, Threshold: 10, XPDelta: 50, Repeatable: true, Active: true},

		// Reserved for reversals; its empty trigger kind never matches an
		// event, so it only appears on correction grants.
		{RuleID: model.CorrectionRuleID, Version: 1, TriggerKind: "", XPDelta: 0, Active: true},
	}

	for _, rule := range defaultRules {
		var count int64
		if err := db.Model(&model.RewardRule{}).
			Where("rule_id = ? AND version = ?", rule.RuleID, rule.Version).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&rule).Error; err != nil {
				return err
			}
			log.Printf("Seeded rule %s v%d", rule.RuleID, rule.Version)
		}
	}

	return nil
}
