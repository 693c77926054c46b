/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the farm planning API server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, then flags)
  2. Build the zap logger
  3. Initialize SQLite store
  4. Create API handler and authenticator
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (override the environment):
  -port    HTTP server port (PORT, default 8080)
  -db      SQLite database path (DB_PATH, default ./data/agro.db)
           Use ":memory:" for in-memory database
  -log     Logger mode, "dev" or "prod" (LOG_MODE)

ENVIRONMENT:
  JWT_SECRET     HS256 signing secret (a development default is used
                 when unset, with a warning)
  CORS_ORIGINS   Comma-separated allowed origins (default: the local
                 frontend origins; "*" turns credentials off)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server -db="./data/agro.db"
  ./server -db=":memory:" -port=3000

SEE ALSO:
  - config/config.go: Environment loading
  - api/server.go: Router configuration
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

	"github.com/warp/agro-engine/api"
	"github.com/warp/agro-engine/config"
	"github.com/warp/agro-engine/logger"
	"github.com/warp/agro-engine/store/sqlite"
)

func main() {
	cfg := config.Load()

	// Flags
	port := flag.String("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	logMode := flag.String("log", cfg.LogMode, "logger mode (dev|prod)")
	flag.Parse()

	log, err := logger.New(*logMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.EnvFileErr != nil {
		log.Debug("no .env file loaded", "error", cfg.EnvFileErr)
	}
	if cfg.JWTSecret == config.DevSecret {
		log.Warn("JWT_SECRET not set, using the development secret")
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal("failed to initialize database", "db", *dbPath, "error", err)
	}
	defer store.Close()

	handler := api.NewHandler(store, log)
	auth := api.NewAuthenticator(cfg.JWTSecret, 24*time.Hour)
	router := api.NewRouter(handler, auth, api.RouterOptions{CORSOrigins: cfg.CORSOrigins})

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server starting", "addr", server.Addr, "db", *dbPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return
	}

	log.Info("server stopped")
}
