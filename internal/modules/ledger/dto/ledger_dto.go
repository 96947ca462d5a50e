package dto

import (
	"time"

	commonDto "clubdev.app/gamify/pkg/dto"
	"github.com/google/uuid"
)

// GrantResult summarizes one committed grant in API responses.
type GrantResult struct {
	GrantID     uuid.UUID `json:"grant_id"`
	RuleID      string    `json:"rule_id"`
	RuleVersion int       `json:"rule_version"`
	XPDelta     int       `json:"xp_delta"`
	BadgeID     *string   `json:"badge_id,omitempty"`
	GrantedAt   time.Time `json:"granted_at"`
}

// UserScoreResponse is the cached score view. Staleness is bounded by the
// stats upsert running inside the same request that committed the grants.
type UserScoreResponse struct {
	UserID        uuid.UUID             `json:"user_id"`
	TotalXP       int                   `json:"total_xp"`
	LevelStatus   commonDto.LevelStatus `json:"level_status"`
	Badges        []string              `json:"badges"`
	CurrentStreak int                   `json:"current_streak"`
	LongestStreak int                   `json:"longest_streak"`
}
