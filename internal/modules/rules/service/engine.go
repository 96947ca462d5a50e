package rules

import (
	"encoding/json"

	"clubdev.app/gamify/internal/model"
)

// Snapshot is the view of a user's state that rule predicates may inspect.
// It is a value passed in by the caller; Evaluate never reaches out to
// storage or any live external source.
type Snapshot struct {
	TotalXP       int
	Badges        map[string]bool
	CurrentStreak int
}

// Match is one (rule, reward) pair produced by evaluation. BadgeID is nil
// when the rule carries no badge or the user already holds it.
type Match struct {
	Rule    model.RewardRule
	XPDelta int
	BadgeID *string
}

// Evaluate runs every rule in order against one event and returns all
// matches. It is pure: the same (event, rules, snapshot) always yields the
// same result, and nothing is mutated.
//
// Badge rules are idempotent at the badge level: a badge the user already
// holds is never matched again unless the rule is repeatable, in which case
// only the XP part is re-granted.
func Evaluate(event model.ActivityEvent, ruleSet []model.RewardRule, snap Snapshot) []Match {
	var matches []Match

	for _, rule := range ruleSet {
		if rule.TriggerKind != event.Kind {
			continue
		}

		if !predicateHolds(rule, event) {
			continue
		}

		badgeID := rule.BadgeID
		if badgeID != nil && snap.Badges[*badgeID] {
			if !rule.Repeatable {
				// Badge already held and the rule does not re-grant XP.
				continue
			}
			// Re-grant XP without re-granting the badge.
			badgeID = nil
		}

		matches = append(matches, Match{
			Rule:    rule,
			XPDelta: rule.XPDelta,
			BadgeID: badgeID,
		})
	}

	return matches
}

func predicateHolds(rule model.RewardRule, event model.ActivityEvent) bool {
	if rule.PayloadField == "" {
		return true
	}

	value, ok := payloadInt(event.Payload, rule.PayloadField)
	if !ok {
		return false
	}

	switch rule.Op {
	case model.OpGTE:
		return value >= rule.Threshold
	case model.OpGT:
		return value > rule.Threshold
	case model.OpEQ:
		return value == rule.Threshold
	case model.OpLTE:
		return value <= rule.Threshold
	default:
		return false
	}
}

// payloadInt reads a numeric payload attribute. JSON round-trips turn
// numbers into float64 or json.Number depending on the decoder.
func payloadInt(payload map[string]interface{}, field string) (int64, bool) {
	raw, ok := payload[field]
	if !ok {
		return 0, false
	}

	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
