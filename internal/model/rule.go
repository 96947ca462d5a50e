package model

import "time"

// Predicate operators for payload conditions.
const (
	OpGTE = "gte"
	OpGT  = "gt"
	OpEQ  = "eq"
	OpLTE = "lte"
)

// RuleID of the reserved correction rule used for reversal grants.
const CorrectionRuleID = "correction"

// RewardRule maps an event kind to an XP delta and optional badge.
// Rules are data: the predicate inspects a single payload field against a
// threshold. A (rule_id, version) pair is immutable once it has produced
// grants; rule changes are a new version plus deactivation of the old one.
type RewardRule struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RuleID       string    `gorm:"size:50;uniqueIndex:idx_rule_version,priority:1;not null" json:"rule_id"`
	Version      int       `gorm:"uniqueIndex:idx_rule_version,priority:2;default:1;not null" json:"version"`
	TriggerKind  string    `gorm:"size:50;index;not null" json:"trigger_kind"`
	PayloadField string    `gorm:"size:50" json:"payload_field"` // empty = always matches
	Op           string    `gorm:"size:10" json:"op"`
	Threshold    int64     `json:"threshold"`
	XPDelta      int       `gorm:"not null" json:"xp_delta"`
	BadgeID      *string   `gorm:"size:50" json:"badge_id,omitempty"`
	Repeatable   bool      `gorm:"default:false" json:"repeatable"`
	Active       bool      `gorm:"default:true;index" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}
