package stats

import (
	"time"

	"github.com/davidzamora9aSyC/contador/model"
	"github.com/davidzamora9aSyC/contador/utils"
)

// RetentionDays is how many calendar days of daily history are kept, counting
// today as day one.
const RetentionDays = 366

// Prune drops every daily bucket older than the retention window, plus any
// bucket whose date key no longer parses. The boundary day (exactly
// RetentionDays-1 days before today) is retained.
func Prune(stats *model.SiteStats, now time.Time) {
	todayTs, ok := utils.DayTimestamp(utils.TodayKey(now))
	if !ok {
		return
	}
	cutoff := todayTs - int64(RetentionDays-1)*utils.DayMillis

	pruneDayKeys(stats.Daily, cutoff)
	pruneDayKeys(stats.SessionDurations, cutoff)
	pruneDayKeys(stats.RouteDurations, cutoff)
}

func pruneDayKeys[V any](buckets map[string]V, cutoff int64) {
	for day := range buckets {
		ts, ok := utils.DayTimestamp(day)
		if !ok || ts < cutoff {
			delete(buckets, day)
		}
	}
}
