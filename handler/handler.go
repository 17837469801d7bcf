package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/davidzamora9aSyC/contador/cache"
	"github.com/davidzamora9aSyC/contador/config"
	"github.com/davidzamora9aSyC/contador/stats"
	"github.com/davidzamora9aSyC/contador/storage"
)

var errInternal = errors.New("internal server error")

// VisitsHandler exposes the aggregation engine over HTTP.
type VisitsHandler struct {
	engine *stats.Engine
	cache  *cache.Cache
	store  storage.Store
	config config.Config
}

// NewVisitsHandler creates a new visits handler with its dependencies injected.
func NewVisitsHandler(engine *stats.Engine, cacheClient *cache.Cache, store storage.Store, cfg config.Config) *VisitsHandler {
	return &VisitsHandler{
		engine: engine,
		cache:  cacheClient,
		store:  store,
		config: cfg,
	}
}

// requestContext bounds a request's storage work by the configured operation
// timeout.
func (h *VisitsHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := time.Duration(h.config.Redis.OperationTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(r.Context(), timeout)
}

// resolveSite maps the raw site parameter onto its canonical key, writing the
// 400 response itself when the site is unknown.
func (h *VisitsHandler) resolveSite(w http.ResponseWriter, raw string) (string, bool) {
	site, ok := stats.ResolveSite(raw)
	if !ok {
		SendJSONError(w, http.StatusBadRequest, stats.ErrUnknownSite, "Use one of the registered site identifiers")
		return "", false
	}
	return site, true
}

// sendEngineError maps engine errors onto HTTP statuses: validation errors are
// client-correctable 400s, anything else is a generic 500 with no detail.
func sendEngineError(w http.ResponseWriter, err error) {
	for _, validation := range []error{
		stats.ErrInvalidRoute,
		stats.ErrInvalidDuration,
		stats.ErrInvalidScope,
		stats.ErrMissingRoute,
		stats.ErrInvalidRange,
		stats.ErrUnknownSite,
	} {
		if errors.Is(err, validation) {
			SendJSONError(w, http.StatusBadRequest, err, "")
			return
		}
	}
	SendJSONError(w, http.StatusInternalServerError, errInternal, "")
}

// HealthCheck handles GET /health
// @Summary Health check
// @Description Reports service and storage health
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string "Service is healthy"
// @Router /health [get]
func (h *VisitsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	status := map[string]string{"status": "ok", "storage": "ok"}
	code := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		status["status"] = "degraded"
		status["storage"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	SendJSONSuccess(w, code, status)
}

// CacheMetrics handles GET /cache/metrics
// @Summary Cache metrics
// @Description Returns report-cache performance counters
// @Tags System
// @Produce json
// @Success 200 {object} cache.MetricsSnapshot "Cache metrics"
// @Router /cache/metrics [get]
func (h *VisitsHandler) CacheMetrics(w http.ResponseWriter, _ *http.Request) {
	SendJSONSuccess(w, http.StatusOK, h.cache.GetMetricsSnapshot())
}
