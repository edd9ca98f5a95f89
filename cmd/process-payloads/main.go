package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/config"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/lookup"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/media"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/product"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/queue"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/repository/postgres"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	client := platform.NewClient(cfg.Platform, logger)
	resolver := lookup.NewResolver(client, lookup.NewMemoryCache(), cfg.Redis.TTL, logger)
	// uploads run inline, there is no consumer for deferred ones here
	mediaSvc := media.NewService(client, client, nil, cfg.Catalog.MediaFolder, logger)
	products := product.NewService(client, resolver, mediaSvc, product.Options{
		DefaultLocale:  cfg.Catalog.DefaultLocale,
		CategoryRootID: cfg.Catalog.CategoryRootID,
	}, logger)

	handler := queue.NewHandler(repos.Payload, products, nil, cfg.NATS.Subject, logger)

	stats, err := handler.ProcessNew(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Processing failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Processed %d payloads, %d failed\n", stats.Processed, stats.Failed)
	if stats.Failed > 0 {
		os.Exit(2)
	}
}
