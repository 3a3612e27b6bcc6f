package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akashcruz/pos-system-lkvoice/internal/cart"
	"github.com/akashcruz/pos-system-lkvoice/internal/checkout"
	"github.com/akashcruz/pos-system-lkvoice/internal/config"
	"github.com/akashcruz/pos-system-lkvoice/internal/dashboard"
	"github.com/akashcruz/pos-system-lkvoice/internal/events"
	h "github.com/akashcruz/pos-system-lkvoice/internal/http"
	"github.com/akashcruz/pos-system-lkvoice/internal/lookup"
	"github.com/akashcruz/pos-system-lkvoice/internal/metrics"
	"github.com/akashcruz/pos-system-lkvoice/internal/store"
	"github.com/akashcruz/pos-system-lkvoice/internal/store/memory"
	"github.com/akashcruz/pos-system-lkvoice/internal/store/postgres"
	"github.com/akashcruz/pos-system-lkvoice/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// posStore is the combined storage surface the daemon wires up.
type posStore interface {
	store.Catalog
	store.CheckoutStore
	store.Ledger
}

func main() {
	cfg := config.Load()

	log := logger.New(logger.Config{
		Service:  "posd",
		Env:      cfg.Server.AppEnv,
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	defer log.Sync()

	// Storage: Postgres when configured, in-memory otherwise. The memory
	// store keeps single-terminal deployments and local development free of
	// infrastructure.
	var posDB posStore
	if cfg.Postgres.Host != "" {
		cred := &postgres.Credentials{
			Host:              cfg.Postgres.Host,
			Port:              cfg.Postgres.Port,
			User:              cfg.Postgres.User,
			Password:          cfg.Postgres.Password,
			DBName:            cfg.Postgres.DBName,
			MigrationsDirPath: cfg.Postgres.MigrationsPath,
		}
		pg, err := postgres.NewStore(cred)
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.RunMigrations(cred); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		log.Info("connected to postgres", zap.String("host", cfg.Postgres.Host))
		posDB = pg
	} else {
		log.Warn("no postgres configured, using in-memory store")
		posDB = memory.NewStore()
	}

	// Product cache is optional; without Redis every scan reads the catalog.
	var cache lookup.ProductCache
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("redis connection failed", zap.Error(err))
		}
		log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
		cache = lookup.NewRedisCache(redisClient)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(log, cfg.Kafka.Brokers...)
		defer kafkaPublisher.Close()
		log.Info("publishing sale events", zap.Strings("brokers", cfg.Kafka.Brokers))
		publisher = kafkaPublisher
	}

	loc := time.Local
	if cfg.Store.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Store.Timezone)
		if err != nil {
			log.Fatal("invalid store timezone", zap.String("timezone", cfg.Store.Timezone), zap.Error(err))
		}
	}

	sessions := cart.NewManager(cfg.Store.SessionTTL)
	defer sessions.Close()

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	lookupSvc := lookup.NewService(posDB, cache, log)
	engine := checkout.NewEngine(posDB, log, checkout.WithMetrics(checkoutMetrics))

	router := h.NewRouter(h.Handlers{
		Products:  h.NewProductHandler(posDB, lookupSvc),
		Carts:     h.NewCartHandler(sessions, lookupSvc),
		Checkout:  h.NewCheckoutHandler(sessions, engine, lookupSvc, publisher, log),
		Dashboard: h.NewDashboardHandler(dashboard.NewService(posDB, loc)),
		Metrics:   metrics.Handler(),
	}, requestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "posd"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("POS server starting", zap.String("port", cfg.Server.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
