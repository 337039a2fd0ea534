package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"goclean/adapters/postgres"
	"goclean/api"
	"goclean/internal"
	"goclean/internal/config"
	"goclean/internal/session"
	"goclean/ports"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(cfg.Session.TTL)
	if cfg.Session.TTL > 0 {
		store.StartJanitor(ctx, cfg.Session.JanitorInterval)
		logger.Info("Session janitor running (ttl=%s, interval=%s)", cfg.Session.TTL, cfg.Session.JanitorInterval)
	}

	var audit ports.AuditSink = ports.NopAuditSink{}
	if cfg.Database.URL != "" {
		repo, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect audit database: %v", err)
		}
		defer repo.Close()
		audit = repo
		logger.Info("Operation audit trail enabled")
	} else {
		logger.Warn("DATABASE_URL not set, operation audit trail disabled")
	}

	server := api.NewServer(cfg, store, audit, logger)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
