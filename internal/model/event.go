package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Event kinds emitted by the platform subsystems.
const (
	KindCodeUpload      = "code_upload"
	KindBlogPublish     = "blog_publish"
	KindAnswerAccepted  = "answer_accepted"
	KindChallengeSolved = "challenge_solved"
	KindGitHubStatSync  = "github_stat_sync"
	KindCommentReceived = "comment_received"
	KindLikeReceived    = "like_received"
)

// ActivityEvent is the canonical record of a scorable user action.
// Rows are insert-only; EventID is the idempotency key for upstream retries.
type ActivityEvent struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	EventID    uuid.UUID         `gorm:"type:uuid;uniqueIndex;not null" json:"event_id"`
	UserID     uuid.UUID         `gorm:"type:uuid;index:idx_event_user;not null" json:"user_id"`
	Kind       string            `gorm:"size:50;index;not null" json:"kind"`
	OccurredAt time.Time         `gorm:"index;not null" json:"occurred_at"`
	Payload    datatypes.JSONMap `json:"payload"`
	CreatedAt  time.Time         `json:"created_at"`
}
