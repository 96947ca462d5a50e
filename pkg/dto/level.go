package dto

import "math"

// LevelStatus represents a user's derived level progression.
// Level is a monotonic step function of total XP: it never decreases,
// because total XP only moves through ledger grants.
type LevelStatus struct {
	Level         int     `json:"level"`
	LevelName     string  `json:"level_name"`
	NextLevelName string  `json:"next_level_name"` // "Max Level" at the top tier
	TotalXP       int     `json:"total_xp"`
	TargetXP      int     `json:"target_xp"` // XP needed for the next level
	Progress      float64 `json:"progress"`  // 0-100 towards the next level
}

// Level thresholds (total XP)
const (
	XPLegend    = 20000 // 🏆 Legend
	XPArchitect = 8000  // 🎖️ Architect
	XPHacker    = 3000  // ⭐ Hacker
	XPBuilder   = 600   // 📣 Builder
	XPCoder     = 100   // 👤 Coder
	XPNewcomer  = 0     // 🆕 Newcomer
)

// ComputeLevelStatus maps total XP onto the level ladder.
func ComputeLevelStatus(totalXP int) LevelStatus {
	var status LevelStatus
	status.TotalXP = totalXP

	switch {
	case totalXP >= XPLegend:
		status.Level = 6
		status.LevelName = "Legend"
		status.NextLevelName = "Max Level"
		status.TargetXP = XPLegend
		status.Progress = 100

	case totalXP >= XPArchitect:
		status.Level = 5
		status.LevelName = "Architect"
		status.NextLevelName = "Legend"
		status.TargetXP = XPLegend
		status.Progress = (float64(totalXP) / float64(XPLegend)) * 100

	case totalXP >= XPHacker:
		status.Level = 4
		status.LevelName = "Hacker"
		status.NextLevelName = "Architect"
		status.TargetXP = XPArchitect
		status.Progress = (float64(totalXP) / float64(XPArchitect)) * 100

	case totalXP >= XPBuilder:
		status.Level = 3
		status.LevelName = "Builder"
		status.NextLevelName = "Hacker"
		status.TargetXP = XPHacker
		status.Progress = (float64(totalXP) / float64(XPHacker)) * 100

	case totalXP >= XPCoder:
		status.Level = 2
		status.LevelName = "Coder"
		status.NextLevelName = "Builder"
		status.TargetXP = XPBuilder
		status.Progress = (float64(totalXP) / float64(XPBuilder)) * 100

	default:
		status.Level = 1
		status.LevelName = "Newcomer"
		status.NextLevelName = "Coder"
		status.TargetXP = XPCoder
		if totalXP <= 0 {
			status.Progress = 0
		} else {
			status.Progress = (float64(totalXP) / float64(XPCoder)) * 100
		}
	}

	// Round progress to 2 decimal places
	status.Progress = math.Round(status.Progress*100) / 100

	return status
}
