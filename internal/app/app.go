package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/snapreviews/snapreviews/internal/config"
	"github.com/snapreviews/snapreviews/internal/event"
	handler "github.com/snapreviews/snapreviews/internal/handler/http"
	"github.com/snapreviews/snapreviews/internal/repository"
	"github.com/snapreviews/snapreviews/internal/repository/memory"
	"github.com/snapreviews/snapreviews/internal/repository/postgres"
	redisrepo "github.com/snapreviews/snapreviews/internal/repository/redis"
	"github.com/snapreviews/snapreviews/internal/seed"
	"github.com/snapreviews/snapreviews/internal/service"
	"github.com/snapreviews/snapreviews/internal/view"
	"github.com/snapreviews/snapreviews/migrations"
	"github.com/snapreviews/snapreviews/pkg/database"
	"github.com/snapreviews/snapreviews/pkg/health"
	pkgkafka "github.com/snapreviews/snapreviews/pkg/kafka"
	"github.com/snapreviews/snapreviews/pkg/middleware"
	"github.com/snapreviews/snapreviews/pkg/tracing"
)

// ServiceName labels logs, metrics and traces.
const ServiceName = "snapreviews"

// App wires together all dependencies and runs SnapReviews.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	rateLimiter    *middleware.RateLimiter
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.closeResources()
		}
	}()

	// Tracing is a no-op unless OTEL_ENABLED is set.
	shutdown, err := tracing.InitTracer(ctx, cfg.Tracing(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.tracerShutdown = shutdown

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)

	sessions, redisClient, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.redis = redisClient

	a.producer = newKafkaProducer(cfg, logger)
	eventProducer := newEventProducer(a.producer, logger)

	// Build the dependency graph.
	businesses := postgres.NewBusinessRepository(pool)
	reviews := postgres.NewReviewRepository(pool)
	businessService := service.NewBusinessService(businesses, reviews, eventProducer, logger)
	reviewService := service.NewReviewService(businesses, reviews, eventProducer, logger)

	if cfg.SeedOnStartup {
		// A failed seed leaves an empty catalog, which the app can still serve.
		if _, err := seed.Run(ctx, businesses, logger); err != nil {
			logger.Error("seeding failed", slog.String("error", err.Error()))
		}
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	healthHandler := newHealthHandler(pool, sessions, a.producer)

	a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	// HTTP router.
	router := handler.NewRouter(handler.RouterDeps{
		Businesses: businessService,
		Reviews:    reviewService,
		Renderer:   renderer,
		Roles: handler.NewRoleResolver(sessions, handler.SessionConfig{
			CookieName: cfg.SessionCookieName,
			TTL:        cfg.SessionTTL(),
			Secure:     cfg.Environment == "production",
		}, logger),
		RateLimiter:    a.rateLimiter,
		Health:         healthHandler,
		CORS:           corsCfg,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		RequestTimeout: cfg.RequestTimeout(),
		Logger:         logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout() + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ok = true
	return a, nil
}

// newSessionStore builds the configured session store. The redis client is
// returned so it can be closed on shutdown; it is nil for the memory store.
func newSessionStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.SessionStore, *goredis.Client, error) {
	if cfg.SessionStore == config.SessionStoreMemory {
		logger.Info("using in-memory session store")
		return memory.NewSessionStore(cfg.SessionTTL()), nil, nil
	}

	client, err := database.NewRedisClient(ctx, cfg.Redis(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))
	return redisrepo.NewSessionStore(client, cfg.SessionTTL()), client, nil
}

// newKafkaProducer returns nil when event publishing is switched off.
func newKafkaProducer(cfg *config.Config, logger *slog.Logger) *pkgkafka.Producer {
	if !cfg.KafkaEnabled {
		logger.Info("kafka disabled, domain events will not be published")
		return nil
	}
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	return producer
}

func newEventProducer(producer *pkgkafka.Producer, logger *slog.Logger) *event.Producer {
	if producer == nil {
		return event.NewNoopProducer(logger)
	}
	return event.NewProducer(producer, logger)
}

// newHealthHandler registers the readiness checks. Kafka is optional: when it
// is down the app still serves pages, it just stops emitting events.
func newHealthHandler(pool *pgxpool.Pool, sessions repository.SessionStore, producer *pkgkafka.Producer) *health.Handler {
	h := health.NewHandler()
	if pool != nil {
		h.RegisterCritical("postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
	}
	h.RegisterCritical("sessions", sessions.Ping)
	if producer != nil {
		h.RegisterNonCritical("kafka", producer.Ping)
	}
	return h
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

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeResources()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.closeResources()

	a.logger.Info("application shutdown complete")
	return nil
}

// closeResources releases everything NewApp opened, in reverse order. It
// tolerates components that were never created.
func (a *App) closeResources() {
	if a.rateLimiter != nil {
		a.rateLimiter.Close()
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}

	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
