// Package main is the entry point for the pitch2tab API server
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/james-see/pitch2tab/pkg/api"
	"github.com/james-see/pitch2tab/pkg/config"
	"github.com/james-see/pitch2tab/pkg/logger"
	"github.com/joho/godotenv"
)

const sentryFlushTimeout = 2 * time.Second

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	port := flag.String("port", cfg.Server.Port, "Server port")
	flag.Parse()
	cfg.Server.Port = *port

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	closer, err := logger.Setup(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	if cfg.Server.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Server.SentryDSN,
			Environment:      cfg.Server.Environment,
			Release:          "pitch2tab@" + version,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			Debug:            !cfg.IsProduction(),
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("Sentry not configured (SENTRY_DSN not set)")
	}

	fmt.Printf("Starting pitch2tab API server on port %s...\n", cfg.Server.Port)
	fmt.Printf("Swagger docs available at http://localhost:%s/swagger/index.html\n", cfg.Server.Port)

	if err := api.StartServer(cfg); err != nil {
		sentry.CaptureException(err)
		logger.Error("Server error", err, nil)
		os.Exit(1)
	}
}
