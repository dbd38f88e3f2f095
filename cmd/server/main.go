/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the savings association accounting server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Configure structured logging
  3. Initialize SQLite store (schema migrated on open)
  4. Resolve the cycle calendar (stored start date, flag override, or
     the first Saturday of the year)
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port         HTTP server port (default: 8080)
  -db           SQLite database path (default: equb.db)
                Use ":memory:" for an in-memory database
  -log-level    Log level: debug, info, warn, error (default: info)
  -cycle-start  Cycle start date YYYY-MM-DD; persisted as the calendar
                anchor. Must be a Saturday by convention.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/equb.db"

  # Start a new cycle
  ./server -cycle-start=2025-08-30

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

	"github.com/sirupsen/logrus"

	"github.com/hibret/equb-engine/api"
	"github.com/hibret/equb-engine/equb"
	"github.com/hibret/equb-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "equb.db", "SQLite database path")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	cycleStart := flag.String("cycle-start", "", "cycle start date (YYYY-MM-DD)")
	flag.Parse()

	// Logging
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level %q: %v", *logLevel, err)
	}
	log.SetLevel(level)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	// Persist the cycle start date when provided
	if *cycleStart != "" {
		start, err := time.Parse("2006-01-02", *cycleStart)
		if err != nil {
			log.Fatalf("Invalid cycle start date %q: %v", *cycleStart, err)
		}
		if err := store.SetCycleStartDate(ctx, start); err != nil {
			log.Fatalf("Failed to store cycle start date: %v", err)
		}
	}

	// Resolve the calendar: stored anchor, or the year's default
	calendar, err := equb.CalendarFor(ctx, store, time.Now().Year())
	if err != nil {
		log.Fatalf("Failed to resolve cycle calendar: %v", err)
	}
	log.WithField("anchor", calendar.Anchor().Format("2006-01-02")).
		Info("cycle calendar resolved")

	// Wire handler and router
	handler := api.NewHandler(store, calendar, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped")
}
