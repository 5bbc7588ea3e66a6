/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leavedesk dispatch server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load .env
  2. Initialize SQLite store
  3. Wire query/booking services and the safety scanner
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: leavedesk.db)
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  SAFETY_SCAN_ENDPOINT, SAFETY_SCAN_TOKEN, SAFETY_PROMPT_PROFILE,
  SAFETY_RESPONSE_PROFILE configure the content-safety scanner; the
  scan_content operation is disabled when no token is set.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: Dispatch handler
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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/leavedesk/leavedesk/api"
	"github.com/leavedesk/leavedesk/ledger"
	"github.com/leavedesk/leavedesk/safety"
	"github.com/leavedesk/leavedesk/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "leavedesk.db", "SQLite database path")
	flag.Parse()

	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	// Wire services
	var scanner *safety.Scanner
	if cfg := safety.ConfigFromEnv(); cfg.Token != "" {
		scanner = safety.NewScanner(cfg)
	} else {
		logger.Warn("SAFETY_SCAN_TOKEN not set, scan_content disabled")
	}

	handler := api.NewHandler(
		ledger.NewQueryService(store),
		ledger.NewBookingService(store),
		scanner,
		logger,
	)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", zap.Int("port", *port), zap.String("db", *dbPath))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
