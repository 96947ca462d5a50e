package model

import (
	"time"

	"github.com/google/uuid"
)

// StreakState tracks daily-challenge continuity per user. Day boundaries
// are UTC calendar days; LastChallengeDate is stored truncated to midnight UTC.
type StreakState struct {
	UserID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	CurrentStreak     int        `gorm:"default:0" json:"current_streak"`
	LongestStreak     int        `gorm:"default:0" json:"longest_streak"`
	LastChallengeDate *time.Time `json:"last_challenge_date,omitempty"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
