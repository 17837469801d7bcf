package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/davidzamora9aSyC/contador/cache"
	"github.com/davidzamora9aSyC/contador/config"
	"github.com/davidzamora9aSyC/contador/handler"
	appLogger "github.com/davidzamora9aSyC/contador/logger"
	"github.com/davidzamora9aSyC/contador/middleware"
	redisClient "github.com/davidzamora9aSyC/contador/redis"
	"github.com/davidzamora9aSyC/contador/stats"
	"github.com/davidzamora9aSyC/contador/storage"
)

func main() {
	// Initialize logger
	appLogger.Initialize()

	// Load configuration
	cfg := config.MustLoadConfig()
	log.Info().Msg("Configuration loaded successfully")

	// Select the state store backend
	var store storage.Store
	switch cfg.Storage.Backend {
	case "redis":
		rdb := redisClient.NewClient(cfg.Redis)
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close Redis connection")
			}
		}()
		store = storage.NewRedisStore(rdb, cfg.Storage.RedisKey)
	case "file":
		fileStore, err := storage.NewFileStore(cfg.Storage.FilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize file storage")
		}
		store = fileStore
	default:
		log.Fatal().Str("backend", cfg.Storage.Backend).Msg("Unknown storage backend")
	}

	// Initialize cache (if enabled)
	var cacheClient *cache.Cache
	if cfg.Cache.Enabled {
		var err error
		cacheClient, err = cache.New(cfg.Cache)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize cache")
		}
	} else {
		log.Info().Msg("Cache disabled in configuration")
	}

	// Load persisted visit state into the engine
	engine := stats.NewEngine(store)
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := engine.Load(loadCtx); err != nil {
		loadCancel()
		log.Fatal().Err(err).Msg("Failed to load persisted visit state")
	}
	loadCancel()

	// Create handler with dependency injection
	visitsHandler := handler.NewVisitsHandler(engine, cacheClient, store, cfg)

	// Set up router
	r := mux.NewRouter()

	// Apply global middleware
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.RequestLogger)
	r.Use(rateLimiter.Limit)

	// Register routes
	r.HandleFunc("/health", visitsHandler.HealthCheck).Methods("GET")
	r.HandleFunc("/cache/metrics", visitsHandler.CacheMetrics).Methods("GET")
	r.HandleFunc("/api/visits", visitsHandler.GetVisits).Methods("GET")
	r.HandleFunc("/api/visits", visitsHandler.RecordVisit).Methods("POST")
	r.HandleFunc("/api/visits/daily", visitsHandler.GetDailyVisits).Methods("GET")
	r.HandleFunc("/api/visits/durations", visitsHandler.RecordDuration).Methods("POST")

	// Configure HTTP server
	serverAddress := fmt.Sprintf("%s:%s", cfg.WebServer.IP, cfg.WebServer.Port)
	server := &http.Server{
		Addr:         serverAddress,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.WebServer.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WebServer.WriteTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("address", serverAddress).
			Str("storage", cfg.Storage.Backend).
			Msg("Starting server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.WebServer.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// One final flush so increments whose write-through persist failed are not
	// lost across the restart.
	if err := engine.Flush(ctx); err != nil {
		log.Error().Err(err).Msg("Final state flush failed")
	}

	// Close cache
	if cacheClient != nil {
		cacheClient.Close()
	}

	log.Info().Msg("Server stopped gracefully")
}
