package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/tanvo/fraudgate/internal/adapter/http"
	"github.com/tanvo/fraudgate/internal/adapter/http/handler"
	"github.com/tanvo/fraudgate/internal/adapter/http/middleware"
	rabbitAdapter "github.com/tanvo/fraudgate/internal/adapter/rabbitmq"
	postgresRepo "github.com/tanvo/fraudgate/internal/adapter/repository/postgres"
	redisRepo "github.com/tanvo/fraudgate/internal/adapter/repository/redis"
	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/infrastructure/config"
	"github.com/tanvo/fraudgate/internal/infrastructure/logger"
	"github.com/tanvo/fraudgate/internal/infrastructure/metrics"
	"github.com/tanvo/fraudgate/internal/infrastructure/outbox"
	"github.com/tanvo/fraudgate/internal/infrastructure/postgres"
	"github.com/tanvo/fraudgate/internal/infrastructure/rabbitmq"
	"github.com/tanvo/fraudgate/internal/infrastructure/reconciler"
	"github.com/tanvo/fraudgate/internal/infrastructure/redis"
	"github.com/tanvo/fraudgate/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "fraudgate",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	amqpConn, err := rabbitmq.Connect(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}
	defer amqpConn.Close()
	log.Info().Str("exchange", cfg.AMQPExchange).Msg("connected to rabbitmq")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(log)

	producer := rabbitAdapter.NewProducer(amqpConn, cfg.AMQPExchange, log)

	// Use cases
	intakeUC := usecase.NewIntakeUseCase(txManager, accountRepo, txnRepo, outboxRepo, idGen)
	decisionUC := usecase.NewDecisionUseCase(
		txManager, retrier, accountRepo, txnRepo, producer, idGen,
		cfg.AllowThreshold, cfg.BlockThreshold,
	)
	reviewUC := usecase.NewReviewUseCase(txManager, retrier, accountRepo, txnRepo, producer, idGen)
	timeoutUC := usecase.NewTimeoutUseCase(txnRepo, producer, idGen)
	accountUC := usecase.NewAccountUseCase(accountRepo, idGen)

	// Background workers
	publisher := outbox.NewPublisher(outbox.Config{
		OutboxRepo: outboxRepo,
		Producer:   producer,
		Metrics:    m,
		Logger:     log,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("outbox publisher stopped")
		}
	}()

	recon := reconciler.New(reconciler.Config{
		Timeouts: timeoutUC,
		Metrics:  m,
		Logger:   log,
		Age:      cfg.TimeoutAge,
		Interval: cfg.TimeoutInterval,
		Batch:    cfg.TimeoutBatch,
	})
	go func() {
		if err := recon.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("timeout reconciler stopped")
		}
	}()

	consumer := rabbitAdapter.NewConsumer(amqpConn, cfg.AMQPExchange, cfg.ConsumerQueue, m, log)
	consumer.Handle(domain.TopicScored, rabbitAdapter.NewScoredHandler(decisionUC, m, log))
	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("consumer stopped")
		}
	}()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rateLimiter.CleanupLimiters()
			}
		}
	}()

	// HTTP surface
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(intakeUC, reviewUC, m),
		AccountHandler:     handler.NewAccountHandler(accountUC, m),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		Idempotency:        middleware.NewIdempotencyMiddleware(idempotencyStore, cfg.IdempotencyTTL),
		RateLimiter:        rateLimiter,
		Metrics:            m,
		Logger:             log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server forced to shut down")
	}

	log.Info().Msg("stopped")
}
