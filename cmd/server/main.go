package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/soliluna/soliluna/internal/server/handlers"
	"github.com/soliluna/soliluna/internal/server/hub"
	"github.com/soliluna/soliluna/internal/server/middleware"
	"github.com/soliluna/soliluna/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:8080", "address to listen on")
	dbPath := flag.String("db", "soliluna.db", "path to the SQLite database")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	rateLimit := flag.Int("rate-limit", 600, "allowed requests per client IP per minute")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		return nil
	}

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("opening database", "path", *dbPath)
	store, err := sqlite.New(ctx, *dbPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	eventsHub := hub.New(logger)

	wg := new(sync.WaitGroup)
	wg.Add(1)
	go func() {
		defer wg.Done()
		eventsHub.Run(ctx)
	}()

	router := mux.NewRouter()
	router.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingWithSkip(logger, []string{"/api/health"}),
		middleware.RateLimitMiddleware(*rateLimit, time.Minute, logger),
	)

	handlers.NewCatalogHandler(logger, store, eventsHub).RegisterRoutes(router)
	handlers.NewDataHandler(logger, store).RegisterRoutes(router)
	router.HandleFunc("/api/sync/changes",
		handlers.NewSyncHandler(logger, store).Changes).Methods(http.MethodGet)
	router.HandleFunc("/api/events",
		handlers.NewEventsHandler(logger, eventsHub).Subscribe).Methods(http.MethodGet)
	router.HandleFunc("/api/health",
		handlers.NewHealthHandler(logger, store, Version).Health).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("listening", "addr", *addr, "version", Version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen failed", "error", err)
			cancel()
		}
	}()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-exit:
		logger.Info("signal caught, shutting down", "sig", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		_ = httpServer.Close()
	}

	cancel()
	wg.Wait()

	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func printVersion() {
	fmt.Printf("Soliluna Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
