package stats

import "strings"

// Range presets for daily reports. Each preset covers the last N days ending
// today, inclusive.
const (
	RangeWeek  = "week"
	RangeMonth = "30d"
	RangeYear  = "year"
)

var rangeDays = map[string]int{
	RangeWeek:  7,
	RangeMonth: 30,
	RangeYear:  365,
}

// rangeAliases accepts the spellings historical front-ends have used,
// including the Spanish labels of the original widget.
var rangeAliases = map[string]string{
	"week":            RangeWeek,
	"7d":              RangeWeek,
	"semana":          RangeWeek,
	"ultimos-7-dias":  RangeWeek,
	"30d":             RangeMonth,
	"month":           RangeMonth,
	"mes":             RangeMonth,
	"ultimos-30-dias": RangeMonth,
	"year":            RangeYear,
	"365d":            RangeYear,
	"ano":             RangeYear,
	"año":             RangeYear,
	"ultimo-ano":      RangeYear,
}

// ResolveRange maps a raw range identifier to its canonical preset key and day
// count.
func ResolveRange(raw string) (string, int, bool) {
	key, ok := rangeAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", 0, false
	}
	return key, rangeDays[key], true
}

// AvailableRanges lists the canonical preset keys, shortest window first.
func AvailableRanges() []string {
	return []string{RangeWeek, RangeMonth, RangeYear}
}
