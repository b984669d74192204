package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rocketshoes/cartstore/internal/catalog"
	catalogclient "github.com/rocketshoes/cartstore/internal/catalog/http"
	catalogmem "github.com/rocketshoes/cartstore/internal/catalog/memory"
	"github.com/rocketshoes/cartstore/internal/config"
	"github.com/rocketshoes/cartstore/internal/event"
	handler "github.com/rocketshoes/cartstore/internal/handler/http"
	"github.com/rocketshoes/cartstore/internal/notify"
	"github.com/rocketshoes/cartstore/internal/session"
	"github.com/rocketshoes/cartstore/internal/storage"
	storagemem "github.com/rocketshoes/cartstore/internal/storage/memory"
	pgstore "github.com/rocketshoes/cartstore/internal/storage/postgres"
	redisstore "github.com/rocketshoes/cartstore/internal/storage/redis"
	"github.com/rocketshoes/cartstore/pkg/database"
	"github.com/rocketshoes/cartstore/pkg/health"
	"github.com/rocketshoes/cartstore/pkg/httpclient"
	pkgkafka "github.com/rocketshoes/cartstore/pkg/kafka"
	"github.com/rocketshoes/cartstore/pkg/middleware"
	"github.com/rocketshoes/cartstore/pkg/tracing"
)

// closer releases one resource on shutdown.
type closer struct {
	name  string
	close func() error
}

// App wires together all dependencies and runs the cartstore service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	sessions   *session.Registry
	dispatcher *event.Dispatcher
	limiter    *middleware.RateLimiter
	httpServer *http.Server

	closers        []closer
	shutdownTracer func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// Resources opened before a failure are released.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.closeAll()
		}
	}()

	// Tracing.
	tcfg := tracing.DefaultConfig(cfg.ServiceName)
	tcfg.Environment = cfg.Environment
	tcfg.Enabled = cfg.OTELEnabled
	tcfg.OTLPEndpoint = cfg.OTELEndpoint
	tcfg.SampleRate = cfg.OTELSampleRate
	a.shutdownTracer, err = tracing.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	database.SetSlowQueryLogging(cfg.SlowQueryThresh, logger)

	healthHandler := health.NewHandler()

	st, err := a.openStorage(ctx, healthHandler)
	if err != nil {
		return nil, err
	}

	cat, err := a.openCatalog(healthHandler)
	if err != nil {
		return nil, err
	}

	pub := a.openPublisher(healthHandler)

	// Build the dependency graph.
	a.sessions = session.NewRegistry(cfg.CartKeyPrefix, cat, st, logger)
	a.dispatcher = event.NewDispatcher(pub, cfg.EventTimeout, logger)
	a.sessions.OnChange(a.dispatcher.CartChanged)
	a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSOrigins

	router := handler.NewRouter(a.sessions, notify.NewLogNotifier(logger), healthHandler, logger, handler.RouterConfig{
		ServiceName: cfg.ServiceName,
		CORS:        cors,
		PprofCIDRs:  cfg.PprofCIDRs,
		RateLimiter: a.limiter,
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// openStorage connects the configured cart storage and registers its
// readiness check.
func (a *App) openStorage(ctx context.Context, h *health.Handler) (storage.Store, error) {
	cfg := a.cfg

	switch cfg.StorageDriver {
	case config.StorageRedis:
		rcfg := database.DefaultRedisConfig()
		rcfg.Host = cfg.RedisHost
		rcfg.Port = cfg.RedisPort
		rcfg.Password = cfg.RedisPassword
		rcfg.DB = cfg.RedisDB

		rdb, err := database.NewRedisClient(ctx, rcfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, closer{"redis", rdb.Close})
		a.logger.Info("connected to Redis",
			slog.String("addr", rcfg.Addr()),
			slog.Int("db", cfg.RedisDB),
		)

		st := redisstore.NewStore(rdb, cfg.CartTTL)
		h.Register("redis", st.Ping)
		return st, nil

	case config.StoragePostgres:
		pgCfg := database.DefaultPostgresConfig()
		pgCfg.Host = cfg.PostgresHost
		pgCfg.Port = cfg.PostgresPort
		pgCfg.User = cfg.PostgresUser
		pgCfg.Password = cfg.PostgresPassword
		pgCfg.DBName = cfg.PostgresDB
		pgCfg.SSLMode = cfg.PostgresSSLMode
		pgCfg.MaxConns = cfg.PostgresMaxConns

		pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, closer{"postgres", func() error { pool.Close(); return nil }})
		a.logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)

		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, cfg.ServiceName); err != nil {
			a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}

		st := pgstore.NewStore(pool)
		if err := st.Migrate(ctx, a.logger); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		h.Register("postgres", st.Ping)
		return st, nil

	case config.StorageMemory:
		a.logger.Warn("using in-memory cart storage; carts are lost on restart")
		st := storagemem.NewStore()
		h.Register("memory", st.Ping)
		return st, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// openCatalog builds the configured catalog client.
func (a *App) openCatalog(h *health.Handler) (catalog.Service, error) {
	cfg := a.cfg

	switch cfg.CatalogDriver {
	case config.CatalogHTTP:
		hcfg := httpclient.DefaultConfig()
		hcfg.Timeout = cfg.CatalogTimeout
		hcfg.MaxRetries = cfg.CatalogRetries
		hcfg.UserAgent = cfg.ServiceName

		cb := httpclient.NewCircuitBreakerClient(httpclient.New(hcfg), httpclient.CircuitBreakerConfig{
			Name:         "catalog",
			MaxRequests:  cfg.CBMaxRequests,
			Interval:     cfg.CBInterval,
			Timeout:      cfg.CBTimeout,
			FailureRatio: cfg.CBFailureRatio,
			MinRequests:  cfg.CBMinRequests,
		}, a.logger)

		client, err := catalogclient.NewClient(cb, cfg.CatalogURL)
		if err != nil {
			return nil, fmt.Errorf("create catalog client: %w", err)
		}
		h.Register("catalog", cb.Ready)
		a.logger.Info("catalog client initialized", slog.String("url", cfg.CatalogURL))
		return client, nil

	case config.CatalogMemory:
		a.logger.Warn("using seeded in-memory catalog")
		return catalogmem.Seed(), nil

	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.CatalogDriver)
	}
}

// openPublisher returns the cart event publisher. Events are dropped when
// Kafka is disabled.
func (a *App) openPublisher(h *health.Handler) event.Publisher {
	if !a.cfg.KafkaEnabled {
		return event.NoopPublisher{}
	}

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(a.cfg.KafkaBrokers), a.logger)
	a.closers = append(a.closers, closer{"kafka producer", producer.Close})
	h.Register("kafka", producer.Ping)
	a.logger.Info("kafka producer initialized", slog.Any("brokers", a.cfg.KafkaBrokers))

	return event.NewProducer(producer, a.logger)
}

// Handler returns the HTTP handler serving the API.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	evictCtx, stopEvict := context.WithCancel(ctx)
	defer stopEvict()
	go a.evictLoop(evictCtx)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		stopEvict()
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// evictLoop closes sessions idle for longer than SessionIdleTTL.
func (a *App) evictLoop(ctx context.Context) {
	idle := a.cfg.SessionIdleTTL
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.sessions.EvictIdle(ctx, idle); n > 0 {
				a.logger.Debug("evicted idle sessions", slog.Int("count", n))
			}
		}
	}
}

// Shutdown gracefully stops all components. Open carts are persisted before
// storage connections are closed.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.sessions.Flush(shutdownCtx); err != nil {
		a.logger.Error("cart flush error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.dispatcher.Wait(shutdownCtx); err != nil {
		a.logger.Error("pending cart events not delivered", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.limiter.Close()
	a.closeAll()

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeAll releases opened resources in reverse order.
func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Error(c.name+" close error", slog.String("error", err.Error()))
		}
	}
	a.closers = nil
}
