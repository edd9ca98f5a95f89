package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/config"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
)

// entities the product, coupon and order endpoints read or write
var checks = []string{
	"tax",
	"currency",
	"sales_channel",
	"product",
	"product_manufacturer",
	"category",
	"property_group",
	"media",
	"media_folder",
	"promotion",
	"order",
}

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

	client := platform.NewClient(cfg.Platform, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Printf("Checking Admin API access on %s...\n", cfg.Platform.BaseURL)

	failed := 0
	for i, entity := range checks {
		res, err := client.Search(ctx, entity, platform.NewCriteria().WithLimit(1, 1))
		if err != nil {
			failed++
			fmt.Printf("%2d. %-22s FAILED: %v\n", i+1, entity, err)
			continue
		}
		fmt.Printf("%2d. %-22s ok (%d rows)\n", i+1, entity, res.Total)
	}

	if failed > 0 {
		fmt.Printf("\n%d of %d checks failed; grant the integration read/write access to those entities\n", failed, len(checks))
		os.Exit(1)
	}
	fmt.Println("\nAll checks passed")
}
