package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"forecast-lab/internal/config"
	"forecast-lab/internal/domain"
	"forecast-lab/internal/ingestion"
	"forecast-lab/internal/observability"
	"forecast-lab/internal/storage"
	"forecast-lab/internal/storage/memory"
	pgstore "forecast-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (overrides config)")
	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	if *configPath == "" {
		logger.Fatal("--config is required")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Error loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}
	if len(cfg.Streams) == 0 {
		logger.Fatal("No streams configured. Add a streams section to the config file")
	}
	if *postgresDSN == "" {
		*postgresDSN = cfg.Postgres.DSN
	}
	if *metricsAddr == "" && cfg.Metrics.Enabled {
		*metricsAddr = cfg.Metrics.Addr
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Create event store
	var eventStore storage.ProbabilityEventStore
	if *useMemory {
		logger.Println("Using in-memory storage")
		eventStore = memory.NewProbabilityEventStore()
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("Error connecting to postgres: %v", err)
		}
		defer pool.Close()
		eventStore = pgstore.NewProbabilityEventStore(pool)
	}

	// One stream client and runner per configured platform feed
	var wg sync.WaitGroup
	for _, sc := range cfg.Streams {
		client, err := ingestion.NewStreamClient(ctx, sc.Endpoint, nil)
		if err != nil {
			logger.Fatalf("Error connecting to %s stream at %s: %v", sc.Platform, sc.Endpoint, err)
		}
		defer client.Close()

		runner := ingestion.NewRunner(ingestion.RunnerOptions{
			Source:        client,
			Store:         eventStore,
			Platform:      domain.Platform(sc.Platform),
			Markets:       sc.Markets,
			FlushInterval: sc.FlushInterval,
			Logger:        logger,
		})

		wg.Add(1)
		go func(platform string, r *ingestion.Runner) {
			defer wg.Done()
			if err := r.Run(ctx); err != nil && err != context.Canceled {
				logger.Printf("Runner for %s stopped: %v", platform, err)
			}
			stats := r.Stats()
			logger.Printf("Runner %s final stats: processed=%d stored=%d duplicates=%d",
				platform, stats.EventsProcessed, stats.EventsStored, stats.Duplicates)
		}(sc.Platform, runner)

		logger.Printf("Started %s ingestion from %s (%d markets)", sc.Platform, sc.Endpoint, len(sc.Markets))
	}

	wg.Wait()
	close(done)

	fmt.Println("Ingestion stopped")
}
