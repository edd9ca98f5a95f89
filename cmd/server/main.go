package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/api"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/api/handlers"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/config"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/coupon"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/domain"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/lookup"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/media"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/order"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/product"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/queue"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/repository/postgres"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}
	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting simple API server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("platform", cfg.Platform.BaseURL),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	client := platform.NewClient(cfg.Platform, logger)

	// Lookup cache: redis when configured, in-process otherwise
	var cache lookup.Cache = lookup.NewMemoryCache()
	if cfg.Redis.URL != "" {
		redisCache, err := lookup.NewRedisCache(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn("Redis unavailable, using in-process lookup cache", zap.Error(err))
		} else {
			defer redisCache.Close()
			cache = redisCache
		}
	}
	resolver := lookup.NewResolver(client, cache, cfg.Redis.TTL, logger)

	// Broker: without NATS, payloads wait for the drain loop and media uploads run inline
	var payloadDispatcher queue.Dispatcher = queue.NoopDispatcher{}
	var mediaDispatcher media.Dispatcher
	var broker *queue.Broker
	if cfg.NATS.URL != "" {
		broker, err = queue.NewBroker(cfg.NATS.URL, "simple-api", logger)
		if err != nil {
			logger.Warn("NATS unavailable, falling back to the drain loop", zap.Error(err))
		} else {
			defer broker.Close()
			payloadDispatcher = broker
			mediaDispatcher = broker
		}
	}

	mediaSvc := media.NewService(client, client, mediaDispatcher, cfg.Catalog.MediaFolder, logger)
	products := product.NewService(client, resolver, mediaSvc, product.Options{
		DefaultLocale:  cfg.Catalog.DefaultLocale,
		CategoryRootID: cfg.Catalog.CategoryRootID,
	}, logger)
	payloads := queue.NewHandler(repos.Payload, products, payloadDispatcher, cfg.NATS.Subject, logger)

	if broker != nil {
		if err := broker.Subscribe(cfg.NATS.Subject, queue.JSONHandler[domain.PayloadMessage](payloads.HandleMessage)); err != nil {
			logger.Fatal("Failed to subscribe to payloads", zap.Error(err))
		}
		if err := broker.Subscribe(media.UploadSubject, queue.JSONHandler[media.UploadMessage](mediaSvc.HandleUpload)); err != nil {
			logger.Fatal("Failed to subscribe to media uploads", zap.Error(err))
		}
	}

	svc := &handlers.Services{
		Products: products,
		Payloads: payloads,
		Coupons:  coupon.NewService(client, resolver, cfg.Catalog.DefaultLocale, logger),
		Media:    mediaSvc,
		Orders:   order.NewService(client, logger),
	}

	// Initialize router
	router := api.NewRouter(cfg, svc, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Payload drain: run once on startup, then every interval
	go queue.RunDrainLoop(ctx, payloads, cfg.DrainInterval, logger)
	logger.Info("Payload drain started", zap.Duration("interval", cfg.DrainInterval))

	logger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
