// Package app wires the gateway's boot sequence: logger, config,
// schema validator, store, quote engine, callback dispatcher,
// participant registry, addressing correlator, ingress guard, and
// finally the HTTP server — each step logged, matching the teacher's
// internal/app.New()/Run() split (cmd/<bin>/main.go stays a thin
// caller).
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nexusgw/gateway/internal/addressing"
	"github.com/nexusgw/gateway/internal/callback"
	"github.com/nexusgw/gateway/internal/config"
	"github.com/nexusgw/gateway/internal/httpapi"
	"github.com/nexusgw/gateway/internal/iso20022"
	"github.com/nexusgw/gateway/internal/log"
	"github.com/nexusgw/gateway/internal/quote"
	"github.com/nexusgw/gateway/internal/ratelimit"
	"github.com/nexusgw/gateway/internal/registry"
	"github.com/nexusgw/gateway/internal/schema"
	"github.com/nexusgw/gateway/internal/shutdown"
	"github.com/nexusgw/gateway/internal/store"
	"github.com/nexusgw/gateway/internal/store/analytics"
	"github.com/nexusgw/gateway/internal/store/hybrid"
	"github.com/nexusgw/gateway/internal/store/memory"
	"github.com/nexusgw/gateway/internal/store/mongo"
	"github.com/nexusgw/gateway/internal/store/postgres"
)

// App owns every long-lived component and the HTTP server built from them.
type App struct {
	logger     *zap.Logger
	cfg        *config.Config
	store      store.Store
	dispatcher *callback.Dispatcher
	srv        *http.Server
	closers    []func() error
	natsConn   *nats.Conn
}

// New runs the full boot sequence and returns a ready-to-serve App.
func New() (*App, error) {
	a := &App{}

	logger, err := log.New(os.Getenv("NEXUS_APP_MODE"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.SetDefault(logger)
	a.logger = logger

	cfg, err := config.Load()
	if err != nil {
		a.logger.Error("failed to load configuration", zap.Error(err))
		return nil, err
	}
	a.cfg = cfg
	a.logger.Info("configuration loaded", zap.String("mode", cfg.App.Mode))

	fallbackSecret, isDefaultSecret := cfg.EffectiveCallbackSecret()
	if isDefaultSecret {
		a.logger.Warn("using default development callback secret; set NEXUS_CALLBACK_SECRET in production")
	}

	schemaValidator := schema.New(a.logger)
	if err := schemaValidator.Load(cfg.Schema.Dir); err != nil {
		a.logger.Error("failed to load XSD schemas", zap.Error(err))
		return nil, err
	}
	a.logger.Info("schema validator loaded", zap.String("dir", cfg.Schema.Dir))

	eventStore, err := a.buildStore(cfg)
	if err != nil {
		a.logger.Error("failed to initialize store", zap.Error(err))
		return nil, err
	}
	a.store = eventStore
	a.logger.Info("store initialized")

	natsConn := a.connectNATS(cfg)
	dispatcher := callback.New(natsConn, 8, 256, eventStore, a.logger)
	go dispatcher.Run(context.Background())
	a.dispatcher = dispatcher
	a.logger.Info("callback dispatcher started")

	registryStore := registry.NewMemoryStore()
	callbackTester := registry.NewHTTPCallbackTester(config.CallbackTimeout)
	reg := registry.New(registryStore, callbackTester, cfg.App.Mode == "prod")
	a.logger.Info("participant registry initialized")

	quoteStore := quote.NewMemoryStore()
	routing := defaultRoutingPolicy()
	improve := quote.StaticImprovementPolicy{Tier: decimal.Zero, PSP: decimal.Zero}
	quoteEngine := quote.New(quoteStore, routing, improve, a.logger)
	a.logger.Info("quote engine initialized")

	correlator := addressing.New(eventStore)

	// actorSecret resolves a destination actor's registered callback
	// secret, falling back to the process-wide default when the actor
	// isn't registered (e.g. sandbox counterparties that never called
	// POST /actors) — the dispatcher always signs with something.
	actorSecret := func(ctx context.Context, bic string) string {
		if s := reg.SecretFor(ctx, bic); s != "" {
			return s
		}
		return fallbackSecret
	}

	pipeline := &iso20022.Pipeline{
		Schema:             schemaValidator,
		Quotes:             quoteEngine,
		Store:              eventStore,
		Dispatcher:         dispatcher,
		Logger:             a.logger,
		ActorSecret:        actorSecret,
		TrackCorrelation:   correlator.TrackRequest,
		ResolveCorrelation: correlator.ResolveResponse,
	}

	var rdb *redis.Client
	if cfg.RateLimit.Enabled && cfg.RateLimit.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
		a.closers = append(a.closers, func() error { return rdb.Close() })
	}
	limiter := ratelimit.New(rdb)
	a.logger.Info("ingress guard initialized", zap.Bool("redis_backed", rdb != nil))

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Config:      cfg,
		Pipeline:    pipeline,
		Quotes:      quoteEngine,
		Registry:    reg,
		Correlator:  correlator,
		Store:       eventStore,
		RateLimiter: limiter,
		Logger:      a.logger,
	})

	a.srv = &http.Server{
		Addr:         cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	a.logger.Info("http server initialized", zap.String("port", cfg.App.Port))

	return a, nil
}

// buildStore picks the hybrid Postgres+Mongo store when DSNs are
// configured, falling back to the in-memory store (spec §4.3 names
// this "default/sandbox" configuration) for local development and tests.
func (a *App) buildStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store.PostgresDSN == "" || cfg.Store.MongoURI == "" {
		return memory.New(), nil
	}

	ctx := context.Background()
	payments, err := postgres.New(ctx, cfg.Store.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.closers = append(a.closers, func() error { payments.Close(); return nil })

	events, err := mongo.New(ctx, cfg.Store.MongoURI, "nexus")
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	var mirror *analytics.Mirror
	if cfg.Store.ClickHouseDSN != "" {
		m, err := analytics.New(cfg.Store.ClickHouseDSN)
		if err != nil {
			a.logger.Warn("analytics mirror unavailable, continuing without it", zap.Error(err))
		} else {
			mirror = m
			a.closers = append(a.closers, mirror.Close)
		}
	}

	return hybrid.New(payments, events, mirror, a.logger), nil
}

// connectNATS dials the callback broker; a failed or unconfigured
// connection leaves the Dispatcher on its in-process fallback channel
// rather than aborting startup (spec §9's "no broker configured" case).
func (a *App) connectNATS(cfg *config.Config) *nats.Conn {
	if cfg.Store.NATSURL == "" {
		return nil
	}
	nc, err := nats.Connect(cfg.Store.NATSURL)
	if err != nil {
		a.logger.Warn("NATS unavailable, callback dispatcher running in-process only", zap.Error(err))
		return nil
	}
	a.natsConn = nc
	a.closers = append(a.closers, func() error { nc.Close(); return nil })
	return nc
}

// defaultRoutingPolicy seeds a handful of demo corridors so the gateway
// can issue quotes out of the box in sandbox mode; a production
// deployment replaces this with a RoutingPolicy backed by a real
// liquidity/rate service (spec §4.4 scopes that selection out).
func defaultRoutingPolicy() quote.RoutingPolicy {
	return quote.StaticRoutingPolicy{}.
		WithOffer("USD", "SGD", quote.FXPOffer{FxpID: "fxp-demo-1", BaseRate: decimal.RequireFromString("1.34"), BaseSpreadBps: decimal.RequireFromString("25")}).
		WithOffer("SGD", "USD", quote.FXPOffer{FxpID: "fxp-demo-1", BaseRate: decimal.RequireFromString("0.746"), BaseSpreadBps: decimal.RequireFromString("25")}).
		WithOffer("EUR", "INR", quote.FXPOffer{FxpID: "fxp-demo-2", BaseRate: decimal.RequireFromString("90.5"), BaseSpreadBps: decimal.RequireFromString("30")})
}

// Run starts serving and blocks until an interrupt signal triggers a
// phased graceful shutdown (internal/shutdown).
func (a *App) Run() error {
	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("http server error", zap.Error(err))
		}
	}()
	a.logger.Info("application started", zap.String("port", a.cfg.App.Port))

	quitCh := make(chan os.Signal, 1)
	signal.Notify(quitCh, os.Interrupt, syscall.SIGTERM)
	sig := <-quitCh
	a.logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	mgr := shutdown.NewManager(a.logger)
	mgr.RegisterDefaultHooks(a.srv, a.closers...)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return mgr.Shutdown(ctx)
}
