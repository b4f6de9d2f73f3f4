package streak

import (
	"errors"
	"time"
)

// Dates are plain calendar days carried as midnight-UTC time.Time values.
// The client reports its own local date so users check in against their own
// day boundary; ValidateClientDate bounds that report against server time.

const dateLayout = "2006-01-02"

// ErrDateOutOfRange flags a client date implausibly far from the server's
// view of today, which guards against forged client clocks.
var ErrDateOutOfRange = errors.New("date out of tolerance window")

// ParseDate parses a YYYY-MM-DD string into a midnight-UTC date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// FormatDate renders a date back to YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

// Normalize truncates a timestamp to its calendar day in UTC.
func Normalize(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TodayIn resolves the current calendar date in the given IANA timezone,
// falling back to UTC when the name is empty or unknown.
func TodayIn(tzName string, now time.Time) time.Time {
	loc := time.UTC
	if tzName != "" {
		if l, err := time.LoadLocation(tzName); err == nil {
			loc = l
		}
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns b minus a in whole calendar days.
func DaysBetween(a, b time.Time) int {
	return int(Normalize(b).Sub(Normalize(a)).Hours() / 24)
}

// ValidateClientDate checks the client-reported date against the server's
// UTC date and rejects anything outside +/- toleranceDays.
func ValidateClientDate(client, serverNow time.Time, toleranceDays int) error {
	diff := DaysBetween(serverNow, client)
	if diff > toleranceDays || diff < -toleranceDays {
		return ErrDateOutOfRange
	}
	return nil
}
