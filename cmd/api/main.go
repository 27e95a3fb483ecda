package main

import (
	"flag"
	"log"

	"github.com/authhub-io/authhub/internal/api"
	"github.com/authhub-io/authhub/internal/config"
	"github.com/authhub-io/authhub/internal/database"
	"github.com/authhub-io/authhub/internal/frontend"
	"github.com/authhub-io/authhub/internal/logging"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional, environment takes precedence)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logging.Setup(cfg.Log.File)
	log.Printf("Starting authhub API v%s", version)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	store, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	defer store.Close()

	if cfg.Frontend.Enabled {
		if err := frontend.Start(cfg); err != nil {
			log.Fatalf("Frontend error: %v", err)
		}
	}

	srv, err := api.NewApi(cfg, store)
	if err != nil {
		log.Fatalf("API error: %v", err)
	}

	log.Fatal(srv.Serve())
}
