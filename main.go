package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rationbridge/rationbridge-be/internal/api"
	"github.com/rationbridge/rationbridge-be/internal/auth"
	"github.com/rationbridge/rationbridge-be/internal/config"
	"github.com/rationbridge/rationbridge-be/internal/database"
	"github.com/rationbridge/rationbridge-be/internal/identity"
	"github.com/rationbridge/rationbridge-be/internal/logger"
	"github.com/rationbridge/rationbridge-be/internal/monitoring"
	"github.com/rationbridge/rationbridge-be/internal/services"
	"github.com/rationbridge/rationbridge-be/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up the local fallback store
	db, err := database.New(cfg.LocalStorePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize local store")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply local store migrations")
	}
	if err := database.Seed(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed local store")
	}

	// Resolve the identity provider strategy once at startup
	provider, data := identity.FromConfig(cfg)
	resolver := auth.NewResolver(provider)

	// Set up the activity feed hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	credentialService := services.NewCredentialService(db)
	eventService := services.NewEventService(db, hub)
	foodService := services.NewFoodService(db, data)
	userService := services.NewUserService(db, credentialService, data)
	authenticator := identity.NewAuthenticator(provider, credentialService)

	// Set up and run the background expiry sweeper
	sweeper := monitoring.NewSweeper(foodService, eventService, cfg.SweepSchedule)
	if err := sweeper.Run(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start expiry sweeper")
	}

	// Set up router
	router := api.NewRouter(hub, resolver, authenticator, foodService, userService, eventService, cfg.AllowedOrigins)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
