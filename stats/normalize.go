package stats

import (
	"math"

	"github.com/davidzamora9aSyC/contador/model"
	"github.com/davidzamora9aSyC/contador/utils"
)

// LegacyRouteKey names the synthetic route that absorbs the single visit
// counter of the earliest persisted schema, which tracked only the home page.
const LegacyRouteKey = "inicio"

// NormalizeState rebuilds the full multi-site state from whatever a previous
// version of the service persisted. It accepts the current wrapped shape, the
// pre-multi-site single-object shape, the original single-counter shape, and
// arbitrary garbage; it never fails, falling back to empty stats per site.
func NormalizeState(raw any) map[string]*model.SiteStats {
	sites := make(map[string]*model.SiteStats)

	obj, ok := raw.(map[string]any)
	if !ok {
		sites[DefaultSite] = model.NewSiteStats()
		return sites
	}

	if wrapped, ok := obj["sites"].(map[string]any); ok {
		for rawKey, rawStats := range wrapped {
			site, ok := ResolveSite(rawKey)
			if !ok {
				continue
			}
			normalized := NormalizeSite(rawStats)
			if existing, ok := sites[site]; ok {
				sites[site] = mergeSiteStats(existing, normalized)
			} else {
				sites[site] = normalized
			}
		}
		if len(sites) == 0 {
			sites[DefaultSite] = model.NewSiteStats()
		}
		return sites
	}

	// No wrapper: the blob is one default site's stats.
	sites[DefaultSite] = NormalizeSite(obj)
	return sites
}

// NormalizeSite rebuilds one site's stats from an untrusted persisted value.
// Route keys are re-sanitized and counts that collide after sanitization are
// summed; invalid date keys, non-positive counts and corrupted duration
// summaries are dropped. The stored total is clamped up to the sum of route
// counts but never down, so unattributed history from older schemas survives.
func NormalizeSite(raw any) *model.SiteStats {
	stats := model.NewSiteStats()

	obj, ok := raw.(map[string]any)
	if !ok {
		return stats
	}

	if routes, ok := obj["routes"].(map[string]any); ok {
		stats.Routes = normalizeRouteCounts(routes)
	}

	var totalFromRoutes int64
	for _, n := range stats.Routes {
		totalFromRoutes += n
	}

	stats.Total = totalFromRoutes
	if declared, ok := asNumber(obj["total"]); ok && !math.IsNaN(declared) && !math.IsInf(declared, 0) {
		if t := int64(math.Round(declared)); t > totalFromRoutes {
			stats.Total = t
		}
	}

	// Earliest schema: a bare positive "count" and no route detail at all.
	if len(stats.Routes) == 0 {
		if count, ok := asPositiveInt(obj["count"]); ok {
			stats.Routes[LegacyRouteKey] = count
			if count > stats.Total {
				stats.Total = count
			}
		}
	}

	if daily, ok := obj["daily"].(map[string]any); ok {
		for day, rawRoutes := range daily {
			if !utils.IsValidDateKey(day) {
				continue
			}
			routes, ok := rawRoutes.(map[string]any)
			if !ok {
				continue
			}
			normalized := normalizeRouteCounts(routes)
			if len(normalized) > 0 {
				stats.Daily[day] = normalized
			}
		}
	}

	if sessions, ok := obj["sessionDurations"].(map[string]any); ok {
		for day, rawSummary := range sessions {
			if !utils.IsValidDateKey(day) {
				continue
			}
			if summary := NormalizeSummary(rawSummary); summary != nil {
				stats.SessionDurations[day] = summary
			}
		}
	}

	if routeDurations, ok := obj["routeDurations"].(map[string]any); ok {
		for day, rawRoutes := range routeDurations {
			if !utils.IsValidDateKey(day) {
				continue
			}
			routes, ok := rawRoutes.(map[string]any)
			if !ok {
				continue
			}
			normalized := make(map[string]*model.DurationSummary)
			for rawRoute, rawSummary := range routes {
				route := utils.SanitizeRoute(rawRoute)
				if route == "" {
					continue
				}
				summary := NormalizeSummary(rawSummary)
				if summary == nil {
					continue
				}
				normalized[route] = MergeSummaries(normalized[route], summary)
			}
			if len(normalized) > 0 {
				stats.RouteDurations[day] = normalized
			}
		}
	}

	return stats
}

// normalizeRouteCounts sanitizes every route key and sums counts that collide
// after sanitization. Entries with non-positive counts are dropped.
func normalizeRouteCounts(raw map[string]any) map[string]int64 {
	counts := make(map[string]int64)
	for rawRoute, rawCount := range raw {
		route := utils.SanitizeRoute(rawRoute)
		if route == "" {
			continue
		}
		count, ok := asPositiveInt(rawCount)
		if !ok {
			continue
		}
		counts[route] += count
	}
	return counts
}

// mergeSiteStats combines two normalized stats objects whose raw site keys
// resolved to the same canonical site.
func mergeSiteStats(a, b *model.SiteStats) *model.SiteStats {
	a.Total += b.Total
	for route, n := range b.Routes {
		a.Routes[route] += n
	}
	for day, routes := range b.Daily {
		if _, ok := a.Daily[day]; !ok {
			a.Daily[day] = routes
			continue
		}
		for route, n := range routes {
			a.Daily[day][route] += n
		}
	}
	for day, summary := range b.SessionDurations {
		a.SessionDurations[day] = MergeSummaries(a.SessionDurations[day], summary)
	}
	for day, routes := range b.RouteDurations {
		if _, ok := a.RouteDurations[day]; !ok {
			a.RouteDurations[day] = routes
			continue
		}
		for route, summary := range routes {
			a.RouteDurations[day][route] = MergeSummaries(a.RouteDurations[day][route], summary)
		}
	}
	return a
}
