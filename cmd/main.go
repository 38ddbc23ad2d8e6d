package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/lisan/internal/api"
	"github.com/satriahrh/lisan/internal/auth"
	"github.com/satriahrh/lisan/internal/config"
	"github.com/satriahrh/lisan/internal/providers"
	"github.com/satriahrh/lisan/internal/websocket"
)

func main() {
	// A missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Development() {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize adapters
	set, err := providers.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize providers", zap.Error(err))
	}
	defer set.Close()

	issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("Failed to initialize token issuer", zap.Error(err))
	}
	gate := auth.NewDemoGate(cfg.Auth.Username, cfg.Auth.Password, cfg.Auth.LoginDelay, issuer, logger)

	// Initialize WebSocket hub
	hub := websocket.NewHub(websocket.HubConfig{
		Catalog:         cfg.Languages.Catalog,
		DefaultPair:     cfg.Languages.DefaultPair,
		NotificationTTL: cfg.Notification.TTL,
		Translator:      set.Translator,
		Synthesizer:     set.Synthesizer,
		Capability:      set.Capability,
		HostClipboard:   set.HostClipboard,
	}, logger)
	go hub.Run(ctx)

	cleanup := websocket.NewSessionCleanupService(hub, cfg.Server.SessionIdleTimeout, time.Minute, logger)
	cleanup.Start()
	defer cleanup.Stop()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, api.Dependencies{
		Hub:            hub,
		Gate:           gate,
		TokenTTL:       cfg.Auth.TokenTTL,
		Catalog:        cfg.Languages.Catalog,
		DefaultPair:    cfg.Languages.DefaultPair,
		Voices:         set.Voices,
		AllowAnonymous: cfg.Auth.AllowNoToken,
	}, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Server.Port),
		zap.String("environment", cfg.Server.Environment))

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
