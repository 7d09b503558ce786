package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/cardledger/internal/adapter/http"
	"github.com/iho/cardledger/internal/adapter/http/handler"
	"github.com/iho/cardledger/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/cardledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/cardledger/internal/adapter/repository/redis"
	"github.com/iho/cardledger/internal/adapter/statementparser"
	"github.com/iho/cardledger/internal/infrastructure/amqp"
	"github.com/iho/cardledger/internal/infrastructure/auth"
	"github.com/iho/cardledger/internal/infrastructure/config"
	"github.com/iho/cardledger/internal/infrastructure/eventpublisher"
	"github.com/iho/cardledger/internal/infrastructure/logger"
	"github.com/iho/cardledger/internal/infrastructure/metrics"
	"github.com/iho/cardledger/internal/infrastructure/postgres"
	"github.com/iho/cardledger/internal/infrastructure/redis"
	"github.com/iho/cardledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logr := logger.Setup(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis (optional)
	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL,
			redis.WithConnectRetries(5, time.Second),
			redis.WithLogger(log.Logger),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")
	} else {
		log.Warn().Msg("redis disabled: no mutation locks or idempotency keys")
	}

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool, postgresRepo.WithIsolation(pgx.RepeatableRead))
	entryRepo := postgresRepo.NewEntryRepository(pool)
	cardRepo := postgresRepo.NewCardRepository(pool)
	outboxRepo := newOutboxRepository(cfg, pool)
	idGen := postgresRepo.NewULIDGenerator()
	groupIDGen := postgresRepo.NewUUIDGenerator()

	batchOpts := []usecase.BatchOption{
		usecase.WithRetrier(postgresRepo.NewRetrier().WithLogger(logr).WithMetrics(m)),
		usecase.WithMetrics(m),
		usecase.WithLogger(logr),
	}
	var idempotencyStore usecase.IdempotencyStore
	if redisClient != nil {
		batchOpts = append(batchOpts, usecase.WithLocker(redisRepo.NewLocker(redisClient), cfg.MutationLockTTL))
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}
	batch := usecase.NewBatchRunner(txManager, batchOpts...)

	var parser usecase.StatementParser
	if cfg.StatementParserURL != "" {
		parser = statementparser.NewClient(cfg.StatementParserURL, cfg.StatementParserTimeout, statementparser.WithLogger(logr))
	}

	// Initialize use cases
	cardUC := usecase.NewCardUseCase(cardRepo, entryRepo, idGen)
	entryUC := usecase.NewEntryUseCase(entryRepo, cardRepo, outboxRepo, batch, idGen, groupIDGen, m, logr)
	seriesUC := usecase.NewSeriesUseCase(entryRepo, outboxRepo, entryUC, batch, idGen, m, logr)
	invoiceUC := usecase.NewInvoiceUseCase(entryRepo, cardRepo, outboxRepo, parser, batch, idGen, m, logr)
	summaryUC := usecase.NewSummaryUseCase(entryRepo, cardRepo)

	authMW, err := authMiddleware(cfg, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure authentication")
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	go sweepRateLimiter(ctx, rateLimiter, time.Minute)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		CardHandler:      handler.NewCardHandler(cardUC),
		EntryHandler:     handler.NewEntryHandler(entryUC, seriesUC),
		InvoiceHandler:   handler.NewInvoiceHandler(invoiceUC),
		SummaryHandler:   handler.NewSummaryHandler(summaryUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		Auth:             authMW,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		Metrics:          m,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Logger:           &logr,
		CORSOrigins:      cfg.CORSOrigins,
	})

	// Outbox publisher
	if cfg.OutboxEnabled {
		publisher, closePublisher, err := newEventPublisher(cfg, logr)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to message broker")
		}
		defer closePublisher()

		worker := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  publisher,
			Metrics:    m,
			Logger:     &logr,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxPollInterval,
			Retention:  cfg.OutboxRetention,
		})
		go func() {
			if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}

	// Create server
	server := &http.Server{
		Addr:         serverAddr(cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Bool("auth", cfg.AuthEnabled).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

func serverAddr(port string) string {
	return fmt.Sprintf(":%s", port)
}

// authMiddleware returns JWT verification when auth is enabled and a fixed
// single user otherwise.
func authMiddleware(cfg *config.Config, m *metrics.Metrics) (func(http.Handler) http.Handler, error) {
	if !cfg.AuthEnabled {
		if cfg.DefaultUserID == "" {
			return nil, errors.New("DEFAULT_USER_ID is required when auth is disabled")
		}
		return middleware.StaticUser(cfg.DefaultUserID), nil
	}
	if cfg.JWTSecret == "" {
		return nil, config.ErrMissingJWTSecret
	}
	return middleware.AuthMiddleware(auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration), m), nil
}

func newOutboxRepository(cfg *config.Config, pool *pgxpool.Pool) usecase.OutboxRepository {
	if !cfg.OutboxEnabled {
		return postgresRepo.NewNullOutboxRepository()
	}
	return postgresRepo.NewOutboxRepository(pool)
}

// newEventPublisher connects to the broker when AMQP_URL is set and falls
// back to logging events.
func newEventPublisher(cfg *config.Config, logr zerolog.Logger) (eventpublisher.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		return eventpublisher.NewLogPublisher(logr), func() {}, nil
	}

	p, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("exchange", cfg.AMQPExchange).Msg("connected to message broker")

	return p, func() {
		if err := p.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close broker connection")
		}
	}, nil
}

func sweepRateLimiter(ctx context.Context, rl *middleware.RateLimiter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup(10 * every)
		}
	}
}
