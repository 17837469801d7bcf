package model

// StateFileVersion is bumped whenever the persisted layout changes. The loader
// accepts any older shape and migrates it; the writer always emits the latest.
const StateFileVersion = 2

// DurationSummary aggregates duration samples (milliseconds) for one slot:
// either a whole day of sessions, or one route within a day.
type DurationSummary struct {
	Min           int64 `json:"min"`
	Max           int64 `json:"max"`
	Count         int64 `json:"count"`
	TotalDuration int64 `json:"totalDuration"`
}

// SummaryView is the external projection of a DurationSummary with the derived
// average (rounded to 2 decimals). The average is never stored.
type SummaryView struct {
	Min           int64   `json:"min"`
	Max           int64   `json:"max"`
	Count         int64   `json:"count"`
	TotalDuration int64   `json:"totalDuration"`
	Average       float64 `json:"average"`
}

// SiteStats is the full aggregate owned by one site.
type SiteStats struct {
	Total            int64                                  `json:"total"`
	Routes           map[string]int64                       `json:"routes"`
	Daily            map[string]map[string]int64            `json:"daily"`
	SessionDurations map[string]*DurationSummary            `json:"sessionDurations"`
	RouteDurations   map[string]map[string]*DurationSummary `json:"routeDurations"`
}

// NewSiteStats returns an empty aggregate with all maps allocated.
func NewSiteStats() *SiteStats {
	return &SiteStats{
		Routes:           make(map[string]int64),
		Daily:            make(map[string]map[string]int64),
		SessionDurations: make(map[string]*DurationSummary),
		RouteDurations:   make(map[string]map[string]*DurationSummary),
	}
}

// Clone returns a deep copy so callers can hand stats out without exposing the
// live maps to concurrent mutation.
func (s *SiteStats) Clone() *SiteStats {
	c := NewSiteStats()
	c.Total = s.Total
	for route, n := range s.Routes {
		c.Routes[route] = n
	}
	for day, routes := range s.Daily {
		dayCopy := make(map[string]int64, len(routes))
		for route, n := range routes {
			dayCopy[route] = n
		}
		c.Daily[day] = dayCopy
	}
	for day, sum := range s.SessionDurations {
		cp := *sum
		c.SessionDurations[day] = &cp
	}
	for day, routes := range s.RouteDurations {
		dayCopy := make(map[string]*DurationSummary, len(routes))
		for route, sum := range routes {
			cp := *sum
			dayCopy[route] = &cp
		}
		c.RouteDurations[day] = dayCopy
	}
	return c
}

// StateFile is the persisted multi-site representation.
type StateFile struct {
	Version int                   `json:"version"`
	Sites   map[string]*SiteStats `json:"sites"`
}

// DayVisits is one entry of a daily range report.
type DayVisits struct {
	Date   string           `json:"date"`
	Routes map[string]int64 `json:"routes"`
	Total  int64            `json:"total"`
}

// RangeReport answers a "last N days" query.
type RangeReport struct {
	Range           string      `json:"range"`
	Days            []DayVisits `json:"days"`
	AvailableRanges []string    `json:"availableRanges"`
}

// DurationRecord is returned after a duration sample is recorded.
type DurationRecord struct {
	Scope   string      `json:"scope"`
	Date    string      `json:"date"`
	Route   string      `json:"route,omitempty"`
	Summary SummaryView `json:"summary"`
}
