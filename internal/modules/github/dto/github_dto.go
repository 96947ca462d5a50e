package dto

import ledgerDto "clubdev.app/gamify/internal/modules/ledger/dto"

// SnapshotRequest is a point-in-time stats snapshot from the GitHub
// integration's sync cycle.
type SnapshotRequest struct {
	Stars   int64 `json:"stars" binding:"min=0"`
	Forks   int64 `json:"forks" binding:"min=0"`
	Commits int64 `json:"commits" binding:"min=0"`
}

// MilestoneEvent describes one synthesized milestone crossing.
type MilestoneEvent struct {
	EventID   string `json:"event_id"`
	Metric    string `json:"metric"`
	Threshold int64  `json:"threshold"`
	Value     int64  `json:"value"`
}

// IngestResponse lists what the snapshot produced. Re-ingesting the same
// snapshot synthesizes nothing and grants nothing.
type IngestResponse struct {
	Synthesized []MilestoneEvent        `json:"synthesized"`
	Grants      []ledgerDto.GrantResult `json:"grants"`
}
