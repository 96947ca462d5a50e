package dto

// CreateRuleRequest installs a new rule version. Versions are immutable:
// posting an existing or older version is rejected, and activating a new
// version deactivates prior ones.
type CreateRuleRequest struct {
	RuleID       string  `json:"rule_id" binding:"required,max=50"`
	Version      int     `json:"version" binding:"required,min=1"`
	TriggerKind  string  `json:"trigger_kind" binding:"required,oneof=code_upload blog_publish answer_accepted challenge_solved github_stat_sync comment_received like_received"`
	PayloadField string  `json:"payload_field" binding:"max=50"`
	Op           string  `json:"op" binding:"omitempty,oneof=gte gt eq lte"`
	Threshold    int64   `json:"threshold"`
	XPDelta      int     `json:"xp_delta" binding:"required"`
	BadgeID      *string `json:"badge_id,omitempty"`
	Repeatable   bool    `json:"repeatable"`
}
