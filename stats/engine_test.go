package stats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/davidzamora9aSyC/contador/model"
	"github.com/davidzamora9aSyC/contador/utils"
)

// memStore is an in-memory storage.Store for engine tests.
type memStore struct {
	data     json.RawMessage
	saves    int
	failSave bool
}

func (s *memStore) Load(context.Context) (json.RawMessage, error) {
	return s.data, nil
}

func (s *memStore) Save(_ context.Context, state *model.StateFile) error {
	s.saves++
	if s.failSave {
		return errors.New("store unavailable")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.data = data
	return nil
}

func (s *memStore) Ping(context.Context) error { return nil }

func newTestEngine(t *testing.T, store *memStore) *Engine {
	t.Helper()
	e := NewEngine(store)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return e
}

func TestRecordVisitCanonicalizesRoutes(t *testing.T) {
	store := &memStore{}
	e := newTestEngine(t, store)

	if _, err := e.RecordVisit(context.Background(), DefaultSite, "/Home/"); err != nil {
		t.Fatalf("RecordVisit() error = %v", err)
	}
	stats, err := e.RecordVisit(context.Background(), DefaultSite, "home")
	if err != nil {
		t.Fatalf("RecordVisit() error = %v", err)
	}

	if stats.Routes["home"] != 2 {
		t.Errorf("Routes[home] = %d, want 2", stats.Routes["home"])
	}
	if stats.Total != 2 {
		t.Errorf("Total = %d, want 2", stats.Total)
	}

	today := utils.TodayKey(time.Now())
	if stats.Daily[today]["home"] != 2 {
		t.Errorf("Daily[%s][home] = %d, want 2", today, stats.Daily[today]["home"])
	}
}

func TestRecordVisitInvalidRoute(t *testing.T) {
	e := newTestEngine(t, &memStore{})

	for _, route := range []string{"", "   ", "///", "?q=1"} {
		if _, err := e.RecordVisit(context.Background(), DefaultSite, route); !errors.Is(err, ErrInvalidRoute) {
			t.Errorf("RecordVisit(%q) error = %v, want ErrInvalidRoute", route, err)
		}
	}
}

func TestRecordVisitPersistsWriteThrough(t *testing.T) {
	store := &memStore{}
	e := newTestEngine(t, store)

	if _, err := e.RecordVisit(context.Background(), DefaultSite, "home"); err != nil {
		t.Fatal(err)
	}
	if store.saves == 0 {
		t.Fatal("expected state to be persisted after mutation")
	}

	var persisted model.StateFile
	if err := json.Unmarshal(store.data, &persisted); err != nil {
		t.Fatalf("persisted state unreadable: %v", err)
	}
	if persisted.Version != model.StateFileVersion {
		t.Errorf("persisted version = %d, want %d", persisted.Version, model.StateFileVersion)
	}
	if persisted.Sites[DefaultSite].Routes["home"] != 1 {
		t.Errorf("persisted routes = %v", persisted.Sites[DefaultSite].Routes)
	}
}

func TestRecordVisitSurvivesPersistFailure(t *testing.T) {
	store := &memStore{failSave: true}
	e := newTestEngine(t, store)

	stats, err := e.RecordVisit(context.Background(), DefaultSite, "home")
	if err != nil {
		t.Fatalf("persist failure must not fail the mutation: %v", err)
	}
	if stats.Total != 1 {
		t.Errorf("Total = %d, want 1", stats.Total)
	}
	if store.saves != persistAttempts {
		t.Errorf("save attempts = %d, want %d (bounded retry)", store.saves, persistAttempts)
	}
}

func TestRecordDurationSession(t *testing.T) {
	e := newTestEngine(t, &memStore{})

	if _, err := e.RecordDuration(context.Background(), DefaultSite, ScopeSession, 90000, ""); err != nil {
		t.Fatal(err)
	}
	record, err := e.RecordDuration(context.Background(), DefaultSite, ScopeSession, 30000, "")
	if err != nil {
		t.Fatal(err)
	}

	want := model.SummaryView{Min: 30000, Max: 90000, Count: 2, TotalDuration: 120000, Average: 60000}
	if record.Summary != want {
		t.Errorf("Summary = %+v, want %+v", record.Summary, want)
	}
	if record.Date != utils.TodayKey(time.Now()) {
		t.Errorf("Date = %q, want today", record.Date)
	}
	if record.Route != "" {
		t.Errorf("session record carries route %q", record.Route)
	}
}

func TestRecordDurationRoute(t *testing.T) {
	e := newTestEngine(t, &memStore{})

	record, err := e.RecordDuration(context.Background(), DefaultSite, ScopeRoute, 5000, "/Projects/")
	if err != nil {
		t.Fatal(err)
	}
	if record.Route != "projects" {
		t.Errorf("Route = %q, want projects", record.Route)
	}

	snapshot := e.Snapshot(DefaultSite)
	today := utils.TodayKey(time.Now())
	if _, ok := snapshot.RouteDurations[today]["projects"]; !ok {
		t.Errorf("RouteDurations missing projects: %v", snapshot.RouteDurations)
	}
}

func TestRecordDurationValidation(t *testing.T) {
	e := newTestEngine(t, &memStore{})

	tests := []struct {
		name     string
		scope    string
		duration float64
		route    string
		wantErr  error
	}{
		{"Unknown scope", "page", 1000, "", ErrInvalidScope},
		{"Zero duration", ScopeSession, 0, "", ErrInvalidDuration},
		{"Negative duration", ScopeSession, -5, "", ErrInvalidDuration},
		{"Route scope without route", ScopeRoute, 1000, "", ErrMissingRoute},
		{"Route scope with unusable route", ScopeRoute, 1000, "///", ErrMissingRoute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.RecordDuration(context.Background(), DefaultSite, tt.scope, tt.duration, tt.route)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecordDurationClampsLongSessions(t *testing.T) {
	e := newTestEngine(t, &memStore{})

	record, err := e.RecordDuration(context.Background(), DefaultSite, ScopeSession, 1e12, "")
	if err != nil {
		t.Fatal(err)
	}
	if record.Summary.Max != utils.MaxTrackableDurationMs {
		t.Errorf("Max = %d, want clamp at %d", record.Summary.Max, utils.MaxTrackableDurationMs)
	}
}

func TestQueryRangeFiltersAndSorts(t *testing.T) {
	e := newTestEngine(t, &memStore{})
	now := time.Now()

	inRange1 := utils.DayKeyOffset(now, -2)
	inRange2 := utils.DayKeyOffset(now, -6)
	outOfRange := utils.DayKeyOffset(now, -7)

	e.mu.Lock()
	stats := e.getOrCreate(DefaultSite)
	stats.Daily[inRange1] = map[string]int64{"home": 2, "blog": 1}
	stats.Daily[inRange2] = map[string]int64{"home": 1}
	stats.Daily[outOfRange] = map[string]int64{"home": 9}
	stats.Daily["broken"] = map[string]int64{"home": 9}
	e.mu.Unlock()

	report, err := e.QueryRange(DefaultSite, RangeWeek)
	if err != nil {
		t.Fatal(err)
	}

	if report.Range != RangeWeek {
		t.Errorf("Range = %q, want %q", report.Range, RangeWeek)
	}
	if len(report.Days) != 2 {
		t.Fatalf("Days = %v, want 2 entries", report.Days)
	}
	// Oldest first.
	if report.Days[0].Date != inRange2 || report.Days[1].Date != inRange1 {
		t.Errorf("order = [%s, %s], want [%s, %s]", report.Days[0].Date, report.Days[1].Date, inRange2, inRange1)
	}
	if report.Days[1].Total != 3 {
		t.Errorf("Total for %s = %d, want 3", inRange1, report.Days[1].Total)
	}
}

func TestQueryRangeAliases(t *testing.T) {
	e := newTestEngine(t, &memStore{})

	canonical, err := e.QueryRange(DefaultSite, "week")
	if err != nil {
		t.Fatal(err)
	}

	for _, alias := range []string{"semana", "ultimos-7-dias", "7d", "WEEK"} {
		report, err := e.QueryRange(DefaultSite, alias)
		if err != nil {
			t.Fatalf("QueryRange(%q) error = %v", alias, err)
		}
		if report.Range != canonical.Range {
			t.Errorf("QueryRange(%q).Range = %q, want %q", alias, report.Range, canonical.Range)
		}
	}

	if _, err := e.QueryRange(DefaultSite, "decade"); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("QueryRange(decade) error = %v, want ErrInvalidRange", err)
	}
}

func TestQueryRangeUnknownSiteEmptyReport(t *testing.T) {
	e := newTestEngine(t, &memStore{})

	report, err := e.QueryRange("blog", RangeWeek)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Days) != 0 {
		t.Errorf("Days = %v, want empty", report.Days)
	}
	if len(report.AvailableRanges) != 3 {
		t.Errorf("AvailableRanges = %v", report.AvailableRanges)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	e := newTestEngine(t, &memStore{})

	if _, err := e.RecordVisit(context.Background(), DefaultSite, "home"); err != nil {
		t.Fatal(err)
	}

	snapshot := e.Snapshot(DefaultSite)
	snapshot.Routes["home"] = 999
	snapshot.Total = 999

	fresh := e.Snapshot(DefaultSite)
	if fresh.Routes["home"] != 1 || fresh.Total != 1 {
		t.Errorf("mutating a snapshot leaked into engine state: %+v", fresh)
	}
}

func TestLoadMigratesPersistedState(t *testing.T) {
	store := &memStore{data: json.RawMessage(`{"count": 5}`)}
	e := newTestEngine(t, store)

	snapshot := e.Snapshot(DefaultSite)
	if snapshot.Routes[LegacyRouteKey] != 5 || snapshot.Total != 5 {
		t.Errorf("legacy state not migrated: %+v", snapshot)
	}
}

func TestLoadCorruptStateStartsEmpty(t *testing.T) {
	store := &memStore{data: json.RawMessage(`{"total": `)}
	e := newTestEngine(t, store)

	snapshot := e.Snapshot(DefaultSite)
	if snapshot.Total != 0 || len(snapshot.Routes) != 0 {
		t.Errorf("corrupt state must yield empty stats: %+v", snapshot)
	}
}

func TestTotalNeverBelowRouteSum(t *testing.T) {
	e := newTestEngine(t, &memStore{})

	routes := []string{"home", "blog", "home", "projects", "blog", "home"}
	for _, route := range routes {
		if _, err := e.RecordVisit(context.Background(), DefaultSite, route); err != nil {
			t.Fatal(err)
		}
	}

	snapshot := e.Snapshot(DefaultSite)
	var sum int64
	for _, n := range snapshot.Routes {
		sum += n
	}
	if snapshot.Total < sum {
		t.Errorf("Total %d < route sum %d", snapshot.Total, sum)
	}
}
