package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/unveiledecho/formrelay/internal/config"
	"github.com/unveiledecho/formrelay/internal/database"
	"github.com/unveiledecho/formrelay/internal/delivery"
	"github.com/unveiledecho/formrelay/internal/email"
	"github.com/unveiledecho/formrelay/internal/handler"
	"github.com/unveiledecho/formrelay/internal/logger"
	"github.com/unveiledecho/formrelay/internal/middleware"
	"github.com/unveiledecho/formrelay/internal/repository"
	"github.com/unveiledecho/formrelay/internal/router"
	"github.com/unveiledecho/formrelay/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("starting formrelay server")

	// Connect to PostgreSQL (delivery log)
	var db *database.Postgres
	if cfg.Database.Enabled {
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		log.Info().Msg("connected to PostgreSQL")

		if cfg.Database.AutoMigrate {
			if err := database.MigrateUp(context.Background(), db); err != nil {
				log.Fatal().Err(err).Msg("failed to apply migrations")
			}
			log.Info().Msg("delivery log schema is up to date")
		}
	}

	// Connect to Redis (rate limiting)
	var rdb *database.Redis
	if cfg.Redis.Enabled {
		rdb, err = database.NewRedis(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("connected to Redis")
	}
	if cfg.RateLimit.Enabled && rdb == nil {
		log.Warn().Msg("rate limiting is enabled but Redis is not; requests will not be limited")
	}

	// Build the delivery channel; incomplete settings fail per request
	channels := service.NewChannels(context.Background(), cfg.Delivery, log)
	renderer := email.NewRenderer(cfg.Clinic.Name, cfg.Clinic.Timezone)

	// Initialize services
	intakeSvc := service.NewIntakeService(channels, renderer, cfg.Delivery, log)
	if db != nil {
		intakeSvc.WithRecorder(repository.NewDeliveryLogRepository(db))
	}

	// Initialize handlers
	h := handler.New(db, rdb, log, cfg, intakeSvc)

	// Initialize middleware
	mw := middleware.New(rdb, log, cfg)

	// Set up router
	r := router.New(h, mw, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: delivery.AttemptTimeout + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	active := channels.Active()
	log.Info().
		Int("port", cfg.Server.Port).
		Str("frontend", strings.Join(cfg.Server.AllowedOrigins, ", ")).
		Str("channel", active.Name()).
		Bool("configured", active.Configured()).
		Str("from", cfg.Delivery.Sender()).
		Str("owner", cfg.Delivery.Owner()).
		Msg("backend server ready")

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
