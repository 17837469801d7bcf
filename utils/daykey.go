package utils

import (
	"regexp"
	"time"
)

// DayLayout is the calendar-day key format used for every daily bucket.
const DayLayout = "2006-01-02"

// DayMillis is the length of one day key step in milliseconds.
const DayMillis int64 = 24 * 60 * 60 * 1000

// statsZone is the fixed reference offset (UTC-5) used to bucket events by the
// audience's local day regardless of server timezone. Deliberately not
// DST-aware: day boundaries must be stable across the whole history.
var statsZone = time.FixedZone("UTC-5", -5*60*60)

var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// TodayKey returns the calendar-day key for the given instant in the reference
// offset.
func TodayKey(now time.Time) string {
	return now.In(statsZone).Format(DayLayout)
}

// DayKeyOffset returns the day key for today shifted by offsetDays (negative
// for past days).
func DayKeyOffset(now time.Time, offsetDays int) string {
	return now.In(statsZone).AddDate(0, 0, offsetDays).Format(DayLayout)
}

// DayTimestamp maps a date key to the millisecond timestamp of its midnight in
// the reference offset. It is only used for ordering and cutoff comparisons.
// The second return is false for keys that do not parse to a real date.
func DayTimestamp(key string) (int64, bool) {
	if !dateKeyPattern.MatchString(key) {
		return 0, false
	}
	t, err := time.ParseInLocation(DayLayout, key, statsZone)
	if err != nil {
		return 0, false
	}
	return t.UnixMilli(), true
}

// IsValidDateKey reports whether key is a well-formed YYYY-MM-DD calendar day.
func IsValidDateKey(key string) bool {
	_, ok := DayTimestamp(key)
	return ok
}
