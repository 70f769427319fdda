package utils

import (
	"fmt"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// FormatISO8601 renders t like `date --iso-8601=seconds`:
// 2006-01-02T15:04:05+07:00.
//
// The zone offset is split the way a timedelta is, into whole days (floored)
// and the seconds left within that day. A negative day count is rendered as
// "-" followed by the complement of the in-day seconds, which is only the
// true magnitude for offsets in (-24h, 0).
func FormatISO8601(t time.Time) string {
	_, offset := t.Zone()
	days, secs := splitOffset(offset)

	var suffix string
	if days < 0 {
		suffix = "-" + clockHHMM(secondsPerDay-secs)
	} else {
		suffix = "+" + clockHHMM(secs)
	}
	return t.Format("2006-01-02T15:04:05") + suffix
}

// splitOffset floors offset into days and returns the non-negative remainder.
func splitOffset(offset int) (days, secs int) {
	days = offset / secondsPerDay
	secs = offset % secondsPerDay
	if secs < 0 {
		days--
		secs += secondsPerDay
	}
	return days, secs
}

// clockHHMM formats secs as the hour and minute of a UTC wall clock, so 24h
// wraps to 00:00 and leftover seconds are dropped.
func clockHHMM(secs int) string {
	secs %= secondsPerDay
	return fmt.Sprintf("%02d:%02d", secs/3600, (secs%3600)/60)
}
