package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"chatstats/internal/config"
	"chatstats/internal/database"
	"chatstats/internal/discord"
	"chatstats/internal/ingest"
	"chatstats/internal/tracker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Create repository and the ingestion pipeline
	repository := database.NewRepository(db)
	trk := tracker.New(repository)
	ingestor, err := ingest.New(repository, trk, cfg.LinkPattern)
	if err != nil {
		log.Fatalf("Failed to create ingestor: %v", err)
	}

	// Initialize Discord bot
	bot, err := discord.New(cfg.DiscordToken, repository, ingestor)
	if err != nil {
		log.Fatalf("Failed to create Discord bot: %v", err)
	}

	// Start bot
	if err := bot.Start(); err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}
	defer bot.Stop()

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	log.Println("Shutting down bot...")
}
