package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"complianceanalyzer/internal/api/v1/handler"
	"complianceanalyzer/internal/api/v1/middleware"
	"complianceanalyzer/pkg/response"
)

// Options configures the public router.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

// New returns the public API router.
func New(h *handler.Handler, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RecoverPanic,
		middleware.Logging,
		middleware.Metrics,
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "Not found", "The requested resource does not exist", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "Only GET is supported", "")
	})

	r.Get("/health", h.HealthCheck)

	r.Group(func(r chi.Router) {
		if opts.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))
		}
		r.Get("/webpage/*", h.AnalyzeWebpage)
	})

	return r
}

// NewMetricsRouter serves the prometheus registry on /metrics.
func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	return r
}
