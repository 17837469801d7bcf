package stats

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/davidzamora9aSyC/contador/model"
	"github.com/davidzamora9aSyC/contador/storage"
	"github.com/davidzamora9aSyC/contador/utils"
)

// Duration scopes accepted by RecordDuration.
const (
	ScopeSession = "session"
	ScopeRoute   = "route"
)

const (
	persistAttempts = 3
	persistBackoff  = 50 * time.Millisecond
)

// Engine owns the in-memory multi-site state. Every mutation happens under one
// write lock together with its write-through persist, so concurrent requests
// cannot interleave read-modify-write on the counters. Reads take the read
// lock and return deep copies.
//
// Persist failures are logged and swallowed: the in-memory state stays
// authoritative and the next successful write persists it.
type Engine struct {
	mu    sync.RWMutex
	sites map[string]*model.SiteStats
	store storage.Store

	// now is swappable in tests.
	now func() time.Time
}

// NewEngine returns an engine with one empty default site, before any
// persisted state is loaded.
func NewEngine(store storage.Store) *Engine {
	return &Engine{
		sites: map[string]*model.SiteStats{DefaultSite: model.NewSiteStats()},
		store: store,
		now:   time.Now,
	}
}

// Load replaces the in-memory state with the normalized persisted document.
// A corrupt or missing document yields empty stats; Load only fails when the
// store itself cannot be read.
func (e *Engine) Load(ctx context.Context) error {
	data, err := e.store.Load(ctx)
	if err != nil {
		return err
	}

	var raw any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			log.Error().Err(err).Msg("Persisted state is not valid JSON, starting from empty stats")
			raw = nil
		}
	}

	sites := NormalizeState(raw)
	now := e.now()
	for _, stats := range sites {
		Prune(stats, now)
	}

	e.mu.Lock()
	e.sites = sites
	e.mu.Unlock()

	log.Info().Int("sites", len(sites)).Msg("Visit state loaded")
	return nil
}

// RecordVisit counts one visit for a route on the given canonical site and
// returns a snapshot of the updated stats.
func (e *Engine) RecordVisit(ctx context.Context, site, rawRoute string) (*model.SiteStats, error) {
	route := utils.SanitizeRoute(rawRoute)
	if route == "" {
		return nil, ErrInvalidRoute
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stats := e.getOrCreate(site)
	today := utils.TodayKey(e.now())

	stats.Routes[route]++
	stats.Total++
	if _, ok := stats.Daily[today]; !ok {
		stats.Daily[today] = make(map[string]int64)
	}
	stats.Daily[today][route]++

	Prune(stats, e.now())
	e.persist(ctx)

	return stats.Clone(), nil
}

// RecordDuration folds one duration sample into today's session or per-route
// summary for the given canonical site and returns the updated slot.
func (e *Engine) RecordDuration(ctx context.Context, site, scope string, rawDuration float64, rawRoute string) (model.DurationRecord, error) {
	if scope != ScopeSession && scope != ScopeRoute {
		return model.DurationRecord{}, ErrInvalidScope
	}
	duration, ok := utils.SanitizeDuration(rawDuration)
	if !ok {
		return model.DurationRecord{}, ErrInvalidDuration
	}
	route := ""
	if scope == ScopeRoute {
		route = utils.SanitizeRoute(rawRoute)
		if route == "" {
			return model.DurationRecord{}, ErrMissingRoute
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stats := e.getOrCreate(site)

	// Prune first so a day that just aged out cannot be resurrected.
	Prune(stats, e.now())
	today := utils.TodayKey(e.now())

	var summary *model.DurationSummary
	switch scope {
	case ScopeSession:
		if existing, ok := stats.SessionDurations[today]; ok {
			ObserveSummary(existing, duration)
			summary = existing
		} else {
			summary = NewSummary(duration)
			stats.SessionDurations[today] = summary
		}
	case ScopeRoute:
		if _, ok := stats.RouteDurations[today]; !ok {
			stats.RouteDurations[today] = make(map[string]*model.DurationSummary)
		}
		if existing, ok := stats.RouteDurations[today][route]; ok {
			ObserveSummary(existing, duration)
			summary = existing
		} else {
			summary = NewSummary(duration)
			stats.RouteDurations[today][route] = summary
		}
	}

	e.persist(ctx)

	return model.DurationRecord{
		Scope:   scope,
		Date:    today,
		Route:   route,
		Summary: RenderSummary(summary),
	}, nil
}

// QueryRange reports the daily visit buckets of the last N days for a range
// preset, oldest day first. Days without recorded activity are omitted, not
// zero-filled.
func (e *Engine) QueryRange(site, rawRange string) (*model.RangeReport, error) {
	rangeKey, days, ok := ResolveRange(rawRange)
	if !ok {
		return nil, ErrInvalidRange
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	report := &model.RangeReport{
		Range:           rangeKey,
		Days:            []model.DayVisits{},
		AvailableRanges: AvailableRanges(),
	}

	stats, ok := e.sites[site]
	if !ok {
		return report, nil
	}

	todayTs, ok := utils.DayTimestamp(utils.TodayKey(e.now()))
	if !ok {
		return report, nil
	}
	start := todayTs - int64(days-1)*utils.DayMillis

	type dayEntry struct {
		ts  int64
		day model.DayVisits
	}
	var entries []dayEntry
	for day, routes := range stats.Daily {
		ts, ok := utils.DayTimestamp(day)
		if !ok || ts < start || ts > todayTs {
			continue
		}
		visits := model.DayVisits{Date: day, Routes: make(map[string]int64, len(routes))}
		for route, n := range routes {
			visits.Routes[route] = n
			visits.Total += n
		}
		entries = append(entries, dayEntry{ts: ts, day: visits})
	}

	// Map iteration has no intrinsic order; reports are always oldest first.
	sort.Slice(entries, func(i, j int) bool { return entries[i].ts < entries[j].ts })
	for _, entry := range entries {
		report.Days = append(report.Days, entry.day)
	}
	return report, nil
}

// Snapshot returns a deep copy of one site's stats, or empty stats for a site
// that has not recorded anything yet.
func (e *Engine) Snapshot(site string) *model.SiteStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats, ok := e.sites[site]
	if !ok {
		return model.NewSiteStats()
	}
	return stats.Clone()
}

// Flush persists the current state synchronously, returning the store error.
// Used at shutdown to capture increments whose write-through persist failed.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.RLock()
	state := e.stateFile()
	e.mu.RUnlock()
	return e.store.Save(ctx, state)
}

// getOrCreate lazily initializes a site's stats. Callers hold the write lock.
func (e *Engine) getOrCreate(site string) *model.SiteStats {
	stats, ok := e.sites[site]
	if !ok {
		stats = model.NewSiteStats()
		e.sites[site] = stats
	}
	return stats
}

// persist writes the whole state through to the store with a bounded retry.
// Callers hold the write lock. Failures are logged and swallowed; the
// in-memory state is not rolled back.
func (e *Engine) persist(ctx context.Context) {
	state := e.stateFile()

	var err error
	for attempt := 1; attempt <= persistAttempts; attempt++ {
		if err = e.store.Save(ctx, state); err == nil {
			return
		}
		if attempt < persistAttempts {
			time.Sleep(persistBackoff)
		}
	}
	log.Error().Err(err).Int("attempts", persistAttempts).Msg("Failed to persist visit state")
}

// stateFile snapshots the current state into its persisted representation.
// Callers hold at least the read lock.
func (e *Engine) stateFile() *model.StateFile {
	sites := make(map[string]*model.SiteStats, len(e.sites))
	for site, stats := range e.sites {
		sites[site] = stats.Clone()
	}
	return &model.StateFile{Version: model.StateFileVersion, Sites: sites}
}
