package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/api/middleware"
)

func main() {
	apiKeyFlag := flag.String("api-key", "", "API key to hash; a random key is generated when empty")
	flag.Parse()

	// Trim so the stored hash matches what the server receives (AuthMiddleware trims the Bearer token)
	apiKey := strings.TrimSpace(*apiKeyFlag)
	generated := apiKey == ""
	if generated {
		apiKey = strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	hash, err := middleware.HashAPIKey(apiKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	if generated {
		fmt.Printf("API key (save it; it cannot be retrieved later): %s\n", apiKey)
	}
	fmt.Printf("API_KEY_HASH=%s\n", hash)
}
