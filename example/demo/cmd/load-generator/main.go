package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfwise/circulation-go/circulation/postgresengine"
	"github.com/shelfwise/circulation-go/test/config"
)

const (
	defaultRate      = 30
	defaultCopies    = 5
	defaultBorrowers = 20
)

// Config holds the load generator settings parsed from flags.
type Config struct {
	Rate           int
	Copies         int
	Borrowers      int
	LoggingEnabled bool
}

func main() {
	cfg := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	pgxPool, err := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolTestConfig())
	if err != nil {
		log.Fatalf("Failed to create pgx pool: %v", err)
	}
	defer pgxPool.Close()

	if err := pgxPool.Ping(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var engineOptions []postgresengine.Option
	if cfg.LoggingEnabled {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
		engineOptions = append(engineOptions, postgresengine.WithContextualLogger(logger))
	}

	engine, err := postgresengine.NewEngineFromPGXPool(pgxPool, engineOptions...)
	if err != nil {
		log.Fatalf("Failed to create circulation engine: %v", err)
	}

	loadGen := NewLoadGenerator(engine, pgxPool, cfg)

	if err := loadGen.Seed(ctx); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}

	// Start load generation in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := loadGen.Start(ctx); err != nil {
			errChan <- fmt.Errorf("load generator failed: %w", err)
		}
	}()

	log.Printf("Circulation load generator started")
	log.Printf("Configuration: rate=%d req/s, copies=%d, borrowers=%d", cfg.Rate, cfg.Copies, cfg.Borrowers)
	log.Printf("Press Ctrl+C to stop...")

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	case err := <-errChan:
		log.Printf("Error occurred: %v", err)
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := loadGen.Stop(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Printf("Load generator stopped")
}

func parseFlags() Config {
	var (
		rate      = flag.Int("rate", defaultRate, "Requests per second")
		copies    = flag.Int("copies", defaultCopies, "Number of book copies to contend over")
		borrowers = flag.Int("borrowers", defaultBorrowers, "Number of borrowers issuing requests")
		logging   = flag.Bool("logging-enabled", false, "Enable engine logging to stderr")
	)

	flag.Parse()

	if *rate <= 0 || *copies <= 0 || *borrowers <= 0 {
		log.Fatalf("rate, copies, and borrowers must all be positive")
	}

	return Config{
		Rate:           *rate,
		Copies:         *copies,
		Borrowers:      *borrowers,
		LoggingEnabled: *logging,
	}
}
