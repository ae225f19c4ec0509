package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crpstore/internal/platform/metrics"
	"crpstore/internal/platform/middleware"
	"crpstore/pkg/platform/httputil"
)

// Routes is implemented by feature handlers that mount their own endpoints.
type Routes interface {
	Register(r chi.Router)
}

// RouterConfig carries the transport-level settings for NewRouter.
type RouterConfig struct {
	RequestTimeout time.Duration
	Gatherer       prometheus.Gatherer
	HTTPMetrics    *metrics.HTTP
}

// NewRouter wires the middleware stack, the metrics endpoint and every
// registered feature handler.
func NewRouter(cfg RouterConfig, logger *slog.Logger, routes ...Routes) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(cfg.HTTPMetrics))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.BodyLimit(httputil.MaxBodyBytes))
	r.Use(middleware.ContentTypeJSON)

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	for _, h := range routes {
		h.Register(r)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "not_found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{Error: "method_not_allowed"})
	})
	return r
}
