package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/domain/repositories"
	"github.com/satriahrh/lisan/internal/auth"
	"github.com/satriahrh/lisan/internal/websocket"
)

// Dependencies are the collaborators of the HTTP routes
type Dependencies struct {
	Hub         *websocket.Hub
	Gate        *auth.DemoGate
	TokenTTL    time.Duration
	Catalog     *entities.Catalog
	DefaultPair entities.LanguagePair
	// Voices is nil when the synthesis backend cannot list voices
	Voices repositories.VoiceLister
	// AllowAnonymous lets websocket clients connect without a token
	AllowAnonymous bool
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Dependencies, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "lisan-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/auth/login", func(c echo.Context) error {
		return login(c, deps, logger)
	})
	v1.GET("/languages", func(c echo.Context) error {
		return c.JSON(http.StatusOK, LanguagesResponse{
			Languages:   deps.Catalog.Languages(),
			DefaultPair: deps.DefaultPair,
		})
	})
	v1.GET("/voices", func(c echo.Context) error {
		return voices(c, deps.Voices, logger)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(c, deps, logger)
	})
}

func login(c echo.Context, deps Dependencies, logger *zap.Logger) error {
	var req LoginRequest

	// Bind and validate request
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	token, err := deps.Gate.Login(c.Request().Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrAuthenticationFailed):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Authentication Failed. Please use the demo credentials below.",
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Info("Login abandoned by client", zap.Error(err))
		return c.NoContent(http.StatusRequestTimeout)
	case err != nil:
		logger.Error("Failed to generate user token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(deps.TokenTTL),
		UserID:    req.Username,
	})
}

func voices(c echo.Context, lister repositories.VoiceLister, logger *zap.Logger) error {
	if lister == nil {
		return c.JSON(http.StatusNotImplemented, ErrorResponse{
			Error:   "not_supported",
			Message: "The synthesis backend cannot list voices",
		})
	}

	list, err := lister.Voices(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list voices", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "upstream_error",
			Message: "Could not retrieve voices",
		})
	}
	return c.JSON(http.StatusOK, VoicesResponse{Voices: list})
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func websocketWithAuth(c echo.Context, deps Dependencies, logger *zap.Logger) error {
	// Browsers cannot set headers on websocket requests, so the query wins
	token := c.QueryParam("token")
	if token == "" {
		authHeader := c.Request().Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if token == "" {
		if deps.AllowAnonymous {
			return deps.Hub.HandleWebSocket(c, "anonymous")
		}
		logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required",
		})
	}

	// Validate JWT token
	claims, err := deps.Gate.Validate(token)
	if err != nil {
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	if claims.Role != "user" {
		logger.Warn("WebSocket connection rejected: invalid role",
			zap.String("role", claims.Role))
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "invalid_role",
			Message: "Only user tokens are allowed for WebSocket connections",
		})
	}

	logger.Info("WebSocket connection authenticated",
		zap.String("user_id", claims.UserID))

	return deps.Hub.HandleWebSocket(c, claims.UserID)
}
