package leaderboard

import (
	"fmt"
	"time"

	"clubdev.app/gamify/pkg/apperror"
)

// Window names accepted by the API.
const (
	WindowAllTime = "all_time"
	WindowWeekly  = "weekly"
	WindowMonthly = "monthly"
)

// Window is a fixed, non-overlapping time range. Weekly windows are ISO
// weeks and monthly windows calendar months, both on UTC day boundaries,
// so a grant lands in exactly one window per kind.
type Window struct {
	Name  string
	Key   string
	Start time.Time
	End   time.Time
}

// allTimeEnd is far enough out to act as an open upper bound.
var allTimeEnd = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

func AllTimeWindow() Window {
	return Window{
		Name:  WindowAllTime,
		Key:   "all",
		Start: time.Unix(0, 0).UTC(),
		End:   allTimeEnd,
	}
}

func WeekWindowAt(t time.Time) Window {
	t = t.UTC()
	year, week := t.ISOWeek()

	// Walk back to the Monday of the ISO week.
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	for day.Weekday() != time.Monday {
		day = day.AddDate(0, 0, -1)
	}

	return Window{
		Name:  WindowWeekly,
		Key:   fmt.Sprintf("%04d-W%02d", year, week),
		Start: day,
		End:   day.AddDate(0, 0, 7),
	}
}

func MonthWindowAt(t time.Time) Window {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Window{
		Name:  WindowMonthly,
		Key:   start.Format("2006-01"),
		Start: start,
		End:   start.AddDate(0, 1, 0),
	}
}

// WindowsAt returns every window a grant at time t falls into.
func WindowsAt(t time.Time) []Window {
	return []Window{AllTimeWindow(), WeekWindowAt(t), MonthWindowAt(t)}
}

// ResolveWindow maps an API window name to the current window of that kind.
func ResolveWindow(name string, now time.Time) (Window, error) {
	switch name {
	case "", WindowAllTime:
		return AllTimeWindow(), nil
	case WindowWeekly:
		return WeekWindowAt(now), nil
	case WindowMonthly:
		return MonthWindowAt(now), nil
	default:
		return Window{}, fmt.Errorf("%w: unknown window %q", apperror.ErrInvalidInput, name)
	}
}
