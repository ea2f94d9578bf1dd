package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/api"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/auth"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/config"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/infrastructure/cache"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/infrastructure/db"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/infrastructure/memory"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/infrastructure/messaging"
	outboxinfra "github.com/RodolfoDevApp/eventshop-stockledger-go/internal/infrastructure/outbox"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting stockledger",
		zap.String("port", cfg.HttpPort),
		zap.String("storage", cfg.Storage),
		zap.String("eventSink", cfg.EventSink))

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close()

	productCache := newCache(ctx, cfg, logger)

	tokens := auth.NewTokenManager(cfg.JwtAccessSecret, cfg.JwtRefreshSecret, cfg.JwtAccessTTL, cfg.JwtRefreshTTL)
	if err := tokens.Validate(); err != nil {
		logger.Fatal("invalid jwt configuration", zap.Error(err))
	}

	var social application.SocialProvider
	if cfg.GoogleEnabled() {
		social = auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}

	// Application services
	ledger := application.NewStockLedger(store, productCache, logger)
	catalog := application.NewCatalogService(store, productCache, logger)
	reports := application.NewReportService(store)
	users := application.NewUserService(store, tokens, social, logger)

	// Outbox dispatcher + scheduler
	sink, closeSink := newSink(cfg, logger)
	defer closeSink()
	dispatcher := outboxinfra.NewDispatcher(store, sink, logger, cfg.OutboxMaxRetry, cfg.OutboxBatchSize)
	scheduler := outboxinfra.NewScheduler(dispatcher, cfg.OutboxIntervalSec, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return scheduler.Run(gctx) })

	if cfg.ConsumeOrders {
		bus := messaging.NewOrdersConsumerBus(cfg.RabbitUri, "stockledger.orders-events.v1")
		handler := application.NewOrderPlacedHandler(ledger, logger)
		if err := messaging.RegisterOrderSubscriptions(gctx, bus, handler, logger); err != nil {
			logger.Fatal("failed to start orders subscriptions", zap.Error(err))
		}
	}

	// HTTP API
	apiServer := api.NewServer(api.Deps{
		Ledger:  ledger,
		Catalog: catalog,
		Reports: reports,
		Users:   users,
		Tokens:  tokens,
		Logger:  logger,
	})
	httpSrv := &http.Server{
		Addr:              ":" + cfg.HttpPort,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down stockledger")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("stockledger stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("stockledger stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (domain.Store, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		return memory.NewStore(), nil
	}

	store, err := db.Open(ctx, cfg.PgDsn, time.Duration(cfg.PgLockMs)*time.Millisecond)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := db.RunMigrations(store.DB()); err != nil {
			store.Close()
			return nil, err
		}
		logger.Info("database migrations applied")
	}
	return store, nil
}

func newCache(ctx context.Context, cfg config.Config, logger *zap.Logger) domain.ProductCache {
	if cfg.RedisAddr == "" {
		return cache.Noop{}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		// reads fall back to the store on every miss, so an unreachable redis is not fatal
		logger.Warn("redis unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	return cache.NewRedisCache(client, cfg.CacheTTL)
}

func newSink(cfg config.Config, logger *zap.Logger) (outboxinfra.Sink, func()) {
	switch cfg.EventSink {
	case config.SinkRabbitMQ:
		bus := messaging.NewProducerBus(cfg.RabbitUri)
		return outboxinfra.NewBreakerSink("rabbitmq", outboxinfra.NewRabbitSink(bus), logger), func() {}
	case config.SinkKafka:
		ks := outboxinfra.NewKafkaSink(outboxinfra.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...))
		return outboxinfra.NewBreakerSink("kafka", ks, logger), func() {
			if err := ks.Close(); err != nil {
				logger.Warn("kafka writer close failed", zap.Error(err))
			}
		}
	case config.SinkNone, "":
		logger.Info("no event sink configured; outbox messages are marked processed without publishing")
		return outboxinfra.DiscardSink{}, func() {}
	}
	logger.Fatal("unknown EVENT_SINK", zap.String("value", cfg.EventSink))
	return nil, nil
}
