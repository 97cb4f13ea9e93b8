/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the green-points engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load configuration
  2. Initialize SQLite store and seed the badge catalog
  3. Wire the lifecycle engine and API handler
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file path (optional)
  -port    HTTP server port, overrides config
  -db      SQLite database path, overrides config
           Use ":memory:" for an in-memory database
  -seed    Load demo households and pickups, then keep serving

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/greenledger.db"

  # Run with demo data in memory
  ./server -db=":memory:" -seed

ENVIRONMENT:
  GREENLEDGER_* variables override the config file, e.g.
  GREENLEDGER_SERVER_PORT, GREENLEDGER_DATABASE_PATH, GREENLEDGER_LOG_LEVEL.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/wastechain/green-ledger/achievements"
	"github.com/wastechain/green-ledger/api"
	"github.com/wastechain/green-ledger/config"
	"github.com/wastechain/green-ledger/engine"
	"github.com/wastechain/green-ledger/logging"
	"github.com/wastechain/green-ledger/scoring"
	"github.com/wastechain/green-ledger/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	seed := flag.Bool("seed", false, "load demo data on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	// Seed the badge catalog. INSERT OR IGNORE keeps restarts idempotent.
	catalog := achievements.Catalog()
	for i := range catalog {
		catalog[i].ID = uuid.NewString()
	}
	if err := store.SeedBadges(ctx, catalog); err != nil {
		logger.Error("failed to seed badge catalog", "error", err)
		os.Exit(1)
	}

	// Wire the engine and handler
	eng := engine.New(store, scoring.NewRandomOracle(time.Now().UnixNano()), engine.WithLogger(logger))
	handler := api.NewHandler(eng, store, logger)

	if *seed {
		if err := handler.LoadDemo(ctx); err != nil {
			logger.Error("failed to load demo data", "error", err)
			os.Exit(1)
		}
		logger.Info("demo data loaded")
	}

	// Create router
	router := api.NewRouter(handler, cfg.Server.CORSOrigins)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "db", cfg.Database.Path)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
