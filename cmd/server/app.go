package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	jwttoken "credo/internal/jwt_token"
	"credo/internal/platform/config"
	"credo/internal/platform/kafka"
	platformmetrics "credo/internal/platform/metrics"
	"credo/internal/platform/postgres"
	platformredis "credo/internal/platform/redis"
	"credo/internal/ratelimit/limiter"
	ratelimitmetrics "credo/internal/ratelimit/metrics"
	ratelimitmw "credo/internal/ratelimit/middleware"
	"credo/internal/registry/handler"
	registrymetrics "credo/internal/registry/metrics"
	"credo/internal/registry/service"
	registrymemory "credo/internal/registry/store/memory"
	registrypostgres "credo/internal/registry/store/postgres"
	registryredis "credo/internal/registry/store/redis"
	"credo/pkg/domain"
	"credo/pkg/platform/audit"
	"credo/pkg/platform/audit/publisher"
	auditmemory "credo/pkg/platform/audit/store/memory"
	auditpostgres "credo/pkg/platform/audit/store/postgres"
	"credo/pkg/platform/httputil"
	"credo/pkg/platform/middleware/metadata"
	request "credo/pkg/platform/middleware/request"
	"credo/pkg/platform/middleware/requesttime"
)

// healthCheck reports whether a backing dependency is reachable.
type healthCheck func(ctx context.Context) error

type app struct {
	cfg       config.Config
	log       *slog.Logger
	registry  *service.Service
	publisher *publisher.Publisher
	owner     domain.Address

	promRegistry *prometheus.Registry
	httpMetrics  *platformmetrics.Metrics
	rateMetrics  *ratelimitmetrics.Metrics
	validator    *jwttoken.CallerValidator
	checks       map[string]healthCheck
	closers      []func()
}

func buildApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{
		cfg:          cfg,
		log:          log,
		promRegistry: prometheus.NewRegistry(),
		checks:       map[string]healthCheck{},
	}
	a.promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.httpMetrics = platformmetrics.New(a.promRegistry)
	a.rateMetrics = ratelimitmetrics.New(a.promRegistry)

	store, eventStore, err := a.buildStores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := kafka.NewSink(cfg.Kafka, kafka.WithLogger(log))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, sink.Close)
		if err := sink.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			a.Close()
			return nil, err
		}
		a.checks["kafka"] = sink.Ping
		eventStore = audit.Tee(eventStore, sink)
	}

	a.publisher = publisher.NewPublisher(eventStore,
		publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
		publisher.WithLogger(log),
	)
	// Closers run in reverse, so buffered events drain before the sink and
	// stores they are written to are closed.
	a.closers = append(a.closers, a.publisher.Close)
	a.registry = service.New(store,
		service.WithLogger(log),
		service.WithAuditPublisher(a.publisher),
		service.WithMetrics(registrymetrics.New(a.promRegistry)),
	)

	a.owner, err = a.initialize(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	a.validator = jwttoken.NewCallerValidator(jwtService)
	return a, nil
}

// buildStores returns the registry store for the configured backend and the
// queryable event store that backs GET /registry/events.
func (a *app) buildStores(ctx context.Context) (service.Store, audit.Store, error) {
	switch a.cfg.Store {
	case config.StorePostgres:
		db, err := postgres.Open(ctx, a.cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		a.checks["postgres"] = pinger(db)

		store := registrypostgres.New(db)
		if err := store.Migrate(ctx); err != nil {
			return nil, nil, err
		}
		events := auditpostgres.New(db)
		if err := events.Migrate(ctx); err != nil {
			return nil, nil, err
		}
		return store, events, nil

	case config.StoreRedis:
		client, err := platformredis.New(ctx, a.cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.checks["redis"] = client.Health
		return registryredis.NewRedis(client.Client), auditmemory.NewInMemoryStore(), nil

	default:
		return registrymemory.New(), auditmemory.NewInMemoryStore(), nil
	}
}

// initialize makes sure the registry has had an owner. The configured owner is
// only used the first time; afterwards the stored owner wins.
func (a *app) initialize(ctx context.Context) (domain.Address, error) {
	var deployer domain.Address
	if a.cfg.InitialOwner != "" {
		var err error
		deployer, err = domain.ParseAddress(a.cfg.InitialOwner)
		if err != nil {
			return domain.ZeroAddress, fmt.Errorf("initial owner: %w", err)
		}
	}
	owner, err := a.registry.Initialize(ctx, deployer)
	if err != nil {
		return domain.ZeroAddress, fmt.Errorf("initialize registry (set CREDO_INITIAL_OWNER on first start): %w", err)
	}
	return owner, nil
}

// Router assembles the full HTTP surface.
func (a *app) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Recovery(a.log))
	r.Use(request.Logger(a.log))
	r.Use(requesttime.Middleware)
	r.Use(platformmetrics.LatencyMiddleware(a.httpMetrics))

	r.Get("/health", a.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(a.promRegistry, promhttp.HandlerOpts{}))

	rl := ratelimitmw.New(
		limiter.New(a.cfg.RateLimit.RPS, a.cfg.RateLimit.Burst, 10*time.Minute),
		a.log,
		ratelimitmw.WithMetrics(a.rateMetrics),
	)
	handler.New(a.registry, a.validator, a.log,
		handler.WithEventReader(a.publisher),
		handler.WithMutationMiddleware(rl.RateLimitCaller),
		handler.WithTimeout(a.cfg.Server.RequestTimeout),
	).Register(r)

	return otelhttp.NewHandler(r, "credo-registry")
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var (
		mu   sync.Mutex
		resp = healthResponse{Status: "ok", Checks: map[string]string{}}
	)
	g, gctx := errgroup.WithContext(ctx)
	for name, check := range a.checks {
		g.Go(func() error {
			result := "ok"
			if err := check(gctx); err != nil {
				a.log.WarnContext(ctx, "health check failed", "check", name, "error", err)
				result = "unavailable"
			}
			mu.Lock()
			defer mu.Unlock()
			resp.Checks[name] = result
			if result != "ok" {
				resp.Status = "degraded"
			}
			return nil
		})
	}
	_ = g.Wait()

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}

// Close releases backing connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func pinger(db *sql.DB) healthCheck {
	return db.PingContext
}
