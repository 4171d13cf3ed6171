package httpapi

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nexusgw/gateway/internal/addressing"
	"github.com/nexusgw/gateway/internal/config"
	"github.com/nexusgw/gateway/internal/iso20022"
	"github.com/nexusgw/gateway/internal/quote"
	"github.com/nexusgw/gateway/internal/ratelimit"
	"github.com/nexusgw/gateway/internal/registry"
	"github.com/nexusgw/gateway/internal/store"
)

// RouterConfig holds everything the router needs to mount the gateway's
// HTTP surface, mirroring the teacher's RouterConfig (cfg + wired
// components, not raw env vars).
type RouterConfig struct {
	Config      *config.Config
	Pipeline    *iso20022.Pipeline
	Quotes      *quote.Engine
	Registry    *registry.Registry
	Correlator  *addressing.Correlator
	Store       store.Store
	RateLimiter *ratelimit.Limiter
	Logger      *zap.Logger
}

// NewRouter assembles the chi.Mux: base middleware stack, then the
// per-resource route groups under /v1 (spec §6).
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(ingressGuard(cfg.RateLimiter, cfg.Config.RateLimit.Burst))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.CallbackTimeout))
	r.Use(chimiddleware.Heartbeat("/health"))

	r.Handle("/metrics", promhttp.Handler())

	iso := &isoHandler{pipeline: cfg.Pipeline}
	quotes := &quotesHandler{quotes: cfg.Quotes, registry: cfg.Registry}
	actors := &actorsHandler{registry: cfg.Registry}
	payments := &paymentsHandler{store: cfg.Store, correlator: cfg.Correlator}

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(maxBody(maxISOBodyBytes))
			r.Mount("/iso20022", iso.routes())
		})
		r.Mount("/quotes", quotes.routes())
		r.Get("/pre-transaction-disclosure", quotes.disclose)
		r.Group(func(r chi.Router) {
			r.Use(adminAuth(cfg.Config.Admin.JWTSecret, cfg.Config.Admin.RequireAuth))
			r.Mount("/actors", actors.routes())
		})
		r.Mount("/payments", payments.routes())
	})

	return r
}
