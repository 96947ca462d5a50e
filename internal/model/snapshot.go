package model

import (
	"time"

	"github.com/google/uuid"
)

// GitHubSnapshot is the last recorded external stats snapshot per user.
// Milestone events are only synthesized when a new snapshot crosses a
// threshold relative to this row, so repeated polls re-grant nothing.
type GitHubSnapshot struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Stars      int64     `gorm:"default:0" json:"stars"`
	Forks      int64     `gorm:"default:0" json:"forks"`
	Commits    int64     `gorm:"default:0" json:"commits"`
	RecordedAt time.Time `gorm:"autoUpdateTime" json:"recorded_at"`
}
