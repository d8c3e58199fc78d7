package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/openmerce/storefront/internal/config"
	"github.com/openmerce/storefront/internal/event"
	handler "github.com/openmerce/storefront/internal/handler/http"
	"github.com/openmerce/storefront/internal/migrations"
	pgrepo "github.com/openmerce/storefront/internal/repository/postgres"
	redisrepo "github.com/openmerce/storefront/internal/repository/redis"
	"github.com/openmerce/storefront/internal/service"
	"github.com/openmerce/storefront/pkg/database"
	"github.com/openmerce/storefront/pkg/health"
	pkgkafka "github.com/openmerce/storefront/pkg/kafka"
	"github.com/openmerce/storefront/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	pool            *pgxpool.Pool
	redisClient     *redis.Client
	producer        *pkgkafka.Producer
	httpServer      *http.Server
	tracingShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Tracing.
	traceCfg := tracing.DefaultConfig("storefront")
	traceCfg.Environment = cfg.Environment
	traceCfg.OTLPEndpoint = cfg.TracingEndpoint
	traceCfg.Enabled = cfg.TracingEnabled

	tracingShutdown, err := tracing.InitTracer(ctx, traceCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.Files, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	prometheus.MustRegister(database.NewPoolStatsCollector(pool, "storefront"))

	// Initialize Redis client for cart storage.
	redisCfg := database.RedisConfig{
		Host:        cfg.RedisHost,
		Port:        cfg.RedisPort,
		Password:    cfg.RedisPass,
		DB:          cfg.RedisDB,
		PoolSize:    20,
		DialTimeout: 5 * time.Second,
	}

	redisClient, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", redisCfg.Addr()),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	productRepo := pgrepo.NewProductRepository(pool)
	cartRepo := redisrepo.NewCartRepository(redisClient, time.Duration(cfg.CartTTL)*time.Hour)

	eventProducer := event.NewProducer(producer, logger)

	productValidator := service.NewUniqueNameValidator(productRepo)
	cartValidator := service.NewStockCartValidator(productRepo)

	productService := service.NewProductService(productRepo, productValidator, eventProducer, logger)
	cartService := service.NewCartService(cartRepo, cartValidator, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	// HTTP router.
	router := handler.NewRouter(productService, cartService, healthHandler, handler.RouterConfig{
		Environment:    cfg.Environment,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		pool:            pool,
		redisClient:     redisClient,
		producer:        producer,
		httpServer:      httpServer,
		tracingShutdown: tracingShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("http server shutdown", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close", slog.String("error", err.Error()))
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis client close", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if a.tracingShutdown != nil {
		if err := a.tracingShutdown(ctx); err != nil {
			a.logger.Error("tracing shutdown", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
