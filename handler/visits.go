package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/davidzamora9aSyC/contador/cache"
	"github.com/davidzamora9aSyC/contador/model"
	"github.com/davidzamora9aSyC/contador/stats"
)

var errInvalidJSON = errors.New("request body is not valid JSON")

// VisitRequest is the body of POST /api/visits.
type VisitRequest struct {
	Site  string `json:"site,omitempty"`
	Route string `json:"route"`
}

// DurationRequest is the body of POST /api/visits/durations.
type DurationRequest struct {
	Site       string  `json:"site,omitempty"`
	Scope      string  `json:"scope"`
	DurationMs float64 `json:"durationMs"`
	Route      string  `json:"route,omitempty"`
}

// GetVisits handles GET /api/visits
// @Summary Get site stats
// @Description Returns the full aggregate stats for one site
// @Tags Visits
// @Produce json
// @Param site query string false "Site identifier (defaults to the main site)"
// @Success 200 {object} model.SiteStats "Site stats"
// @Failure 400 {object} ErrorResponse "Unknown site"
// @Router /api/visits [get]
func (h *VisitsHandler) GetVisits(w http.ResponseWriter, r *http.Request) {
	site, ok := h.resolveSite(w, r.URL.Query().Get("site"))
	if !ok {
		return
	}
	SendJSONSuccess(w, http.StatusOK, h.engine.Snapshot(site))
}

// GetDailyVisits handles GET /api/visits/daily
// @Summary Get daily visit report
// @Description Returns per-day visit buckets for a preset range, oldest first
// @Tags Visits
// @Produce json
// @Param site query string false "Site identifier (defaults to the main site)"
// @Param range query string true "Range preset or alias (week, 30d, year, semana, ...)"
// @Success 200 {object} model.RangeReport "Daily report"
// @Failure 400 {object} ErrorResponse "Unknown site or range"
// @Router /api/visits/daily [get]
func (h *VisitsHandler) GetDailyVisits(w http.ResponseWriter, r *http.Request) {
	site, ok := h.resolveSite(w, r.URL.Query().Get("site"))
	if !ok {
		return
	}

	rawRange := r.URL.Query().Get("range")
	rangeKey, _, ok := stats.ResolveRange(rawRange)
	if !ok {
		SendJSONError(w, http.StatusBadRequest, stats.ErrInvalidRange, "Use week, 30d or year")
		return
	}

	cacheKey := cache.RangeReportKey(site, rangeKey)
	if cached, found := h.cache.Get(cacheKey); found {
		if report, ok := cached.(*model.RangeReport); ok {
			SendJSONSuccess(w, http.StatusOK, report)
			return
		}
	}

	report, err := h.engine.QueryRange(site, rangeKey)
	if err != nil {
		sendEngineError(w, err)
		return
	}

	h.cache.Set(cacheKey, report, 1)
	SendJSONSuccess(w, http.StatusOK, report)
}

// RecordVisit handles POST /api/visits
// @Summary Record a visit
// @Description Increments the visit counters for a route and returns the updated stats
// @Tags Visits
// @Accept json
// @Produce json
// @Param request body VisitRequest true "Visit event"
// @Success 200 {object} model.SiteStats "Updated site stats"
// @Failure 400 {object} ErrorResponse "Invalid route or site"
// @Router /api/visits [post]
func (h *VisitsHandler) RecordVisit(w http.ResponseWriter, r *http.Request) {
	var req VisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, errInvalidJSON, "")
		return
	}

	site, ok := h.resolveSite(w, req.Site)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	updated, err := h.engine.RecordVisit(ctx, site, req.Route)
	if err != nil {
		sendEngineError(w, err)
		return
	}

	h.cache.InvalidateSite(site, stats.AvailableRanges())
	SendJSONSuccess(w, http.StatusOK, updated)
}

// RecordDuration handles POST /api/visits/durations
// @Summary Record a duration sample
// @Description Folds a session or per-route duration sample into today's summary
// @Tags Visits
// @Accept json
// @Produce json
// @Param request body DurationRequest true "Duration sample"
// @Success 200 {object} model.DurationRecord "Updated summary"
// @Failure 400 {object} ErrorResponse "Invalid scope, duration, route or site"
// @Router /api/visits/durations [post]
func (h *VisitsHandler) RecordDuration(w http.ResponseWriter, r *http.Request) {
	var req DurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, errInvalidJSON, "")
		return
	}

	site, ok := h.resolveSite(w, req.Site)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	record, err := h.engine.RecordDuration(ctx, site, req.Scope, req.DurationMs, req.Route)
	if err != nil {
		sendEngineError(w, err)
		return
	}

	h.cache.InvalidateSite(site, stats.AvailableRanges())
	SendJSONSuccess(w, http.StatusOK, record)
}
