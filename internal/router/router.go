// Package router wires the search service routes and applies the middleware
// chain (RequestID → CORS → Metrics → Timeout).
package router

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/handler"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/middleware"
)

// Config holds what the routes and middleware need besides the handlers.
type Config struct {
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
	AllowOrigins   []string
}

// New builds the HTTP handler of the search service.
//
// Route table:
//
//	GET /api/v1/search  → fuzzy, prefix or term search
//	GET /health/live    → liveness
//	GET /health/ready   → readiness (segments loaded)
//	GET /metrics        → Prometheus scrape
func New(h *handler.Handler, checker *health.Checker, cfg Config) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(cfg.Gatherer))
	}

	var chain http.Handler = mux
	if cfg.RequestTimeout > 0 {
		chain = middleware.Timeout(cfg.RequestTimeout)(chain)
	}
	if cfg.Metrics != nil {
		chain = middleware.Metrics(cfg.Metrics)(chain)
	}
	chain = middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowOrigins...))(chain)
	chain = middleware.RequestID(chain)
	return chain
}
