package dto

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one ranked row. Rank is a derived projection recomputed on read,
// never stored as authoritative.
type Entry struct {
	UserID      uuid.UUID `json:"user_id"`
	Rank        int       `json:"rank"`
	Score       int       `json:"score"`
	Category    string    `json:"category"`
	Window      string    `json:"window"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// RankResponse is the answer to a single-user rank lookup.
type RankResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	Rank     int       `json:"rank"`
	Score    int       `json:"score"`
	Category string    `json:"category"`
	Window   string    `json:"window"`
}
