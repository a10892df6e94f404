package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"QuantPull/internal/di"
	"QuantPull/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s backends=%s symbols=%s",
		cfg.Environment,
		strings.Join(cfg.Storage.Backends, ","),
		strings.Join(cfg.Collection.Symbols, ","),
	)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run blocks until SIGINT/SIGTERM.
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
