package model

import (
	"time"

	"github.com/google/uuid"
)

// Grant is an immutable ledger row recording that XP and/or a badge was
// awarded for a specific event under a specific rule version. The unique
// index on (source_event_id, rule_id) is what makes event replay a no-op.
// Corrections are new negative-delta grants, never edits.
type Grant struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	GrantID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"grant_id"`
	UserID        uuid.UUID `gorm:"type:uuid;index:idx_grant_user_date,priority:1;not null" json:"user_id"`
	SourceEventID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_event_rule,priority:1;not null" json:"source_event_id"`
	RuleID        string    `gorm:"size:50;uniqueIndex:idx_event_rule,priority:2;not null" json:"rule_id"`
	RuleVersion   int       `gorm:"not null" json:"rule_version"`
	Kind          string    `gorm:"size:50;index;not null" json:"kind"` // event kind, denormalized for category queries
	XPDelta       int       `gorm:"not null" json:"xp_delta"`
	BadgeID       *string   `gorm:"size:50" json:"badge_id,omitempty"`
	GrantedAt     time.Time `gorm:"index:idx_grant_user_date,priority:2;index:idx_granted_at;not null" json:"granted_at"`
}

// UserStats is the cached per-user score projection. It is rebuildable from
// the grant history and never the source of truth.
type UserStats struct {
	UserID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	TotalXP       int       `gorm:"default:0" json:"total_xp"`
	Level         int       `gorm:"default:1" json:"level"`
	BadgeCount    int       `gorm:"default:0" json:"badge_count"`
	LastUpdatedAt time.Time `gorm:"autoUpdateTime" json:"last_updated_at"`
}
