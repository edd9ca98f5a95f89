package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/config"
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

	days := flag.Int("days", cfg.PayloadRetentionDays, "delete payloads created more than this many days ago")
	flag.Parse()

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	handler := queue.NewHandler(repos.Payload, nil, nil, cfg.NATS.Subject, logger)

	deleted, err := handler.Cleanup(context.Background(), *days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cleanup failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Deleted %d payloads older than %d days\n", deleted, *days)
}
