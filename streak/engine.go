package streak

import (
	"errors"
	"time"
)

// State is the cached continuity counter for one membership. LastDate is nil
// for memberships that never checked in.
type State struct {
	CurrentStreak int
	LastDate      *time.Time
}

// Result describes one advance of the streak machine.
type Result struct {
	Streak       int
	FreezeUsed   bool
	FreezeEarned int
}

// ErrNotAfterLast is returned when the advance date does not move forward.
// Same-day submissions are resolved idempotently before the engine runs, so
// hitting this means the caller skipped that step.
var ErrNotAfterLast = errors.New("check-in date not after last check-in")

// Advance applies one check-in to the streak state.
//
// A one-day step extends the streak. A longer gap is bridged by consuming
// exactly one freeze when the balance allows, regardless of how many days
// were missed; otherwise the streak resets to 1. Reaching a multiple of
// milestoneDays earns one freeze.
func Advance(st State, date time.Time, freezesAvailable, milestoneDays int) (Result, error) {
	date = Normalize(date)

	var streak int
	var freezeUsed bool
	switch {
	case st.LastDate == nil:
		streak = 1
	default:
		gap := DaysBetween(*st.LastDate, date)
		if gap <= 0 {
			return Result{}, ErrNotAfterLast
		}
		if gap == 1 {
			streak = st.CurrentStreak + 1
		} else if st.CurrentStreak > 0 && freezesAvailable > 0 {
			streak = st.CurrentStreak + 1
			freezeUsed = true
		} else {
			streak = 1
		}
	}

	res := Result{Streak: streak, FreezeUsed: freezeUsed}
	if milestoneDays > 0 && streak%milestoneDays == 0 {
		res.FreezeEarned = 1
	}
	return res, nil
}

// LogEntry is one committed check-in as read back from the log.
type LogEntry struct {
	Date       time.Time
	FreezeUsed bool
}

// RebuildResult is the streak state recomputed from the full check-in log.
type RebuildResult struct {
	CurrentStreak int
	BestStreak    int
	FreezesUsed   int
	LastDate      *time.Time
}

// Rebuild recomputes streak state from the check-in log, which is the source
// of truth for the cached membership columns. Entries must be sorted by date
// ascending; freeze consumptions recorded on the entries bridge their gaps.
func Rebuild(log []LogEntry) RebuildResult {
	var res RebuildResult
	var last time.Time
	for i, e := range log {
		d := Normalize(e.Date)
		switch {
		case i == 0:
			res.CurrentStreak = 1
		case DaysBetween(last, d) == 1:
			res.CurrentStreak++
		case e.FreezeUsed:
			res.CurrentStreak++
		default:
			res.CurrentStreak = 1
		}
		if e.FreezeUsed {
			res.FreezesUsed++
		}
		if res.CurrentStreak > res.BestStreak {
			res.BestStreak = res.CurrentStreak
		}
		last = d
	}
	if len(log) > 0 {
		res.LastDate = &last
	}
	return res
}
