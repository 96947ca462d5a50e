package dto

import (
	"time"

	ledgerDto "clubdev.app/gamify/internal/modules/ledger/dto"
)

// SubmitEventRequest is the inbound shape for submitActivityEvent. Upstream
// subsystems deliver at-least-once; EventID is the idempotency key.
type SubmitEventRequest struct {
	EventID    string                 `json:"event_id" binding:"required,uuid"`
	UserID     string                 `json:"user_id" binding:"required,uuid"`
	Kind       string                 `json:"kind" binding:"required,oneof=code_upload blog_publish answer_accepted challenge_solved github_stat_sync comment_received like_received"`
	OccurredAt time.Time              `json:"occurred_at" binding:"required"`
	Payload    map[string]interface{} `json:"payload"`
}

// SubmitEventResponse reports what the submission committed. Replays come
// back with Duplicate=true and zero grants, which callers treat as success.
type SubmitEventResponse struct {
	EventID   string                  `json:"event_id"`
	Duplicate bool                    `json:"duplicate"`
	Grants    []ledgerDto.GrantResult `json:"grants"`
}
