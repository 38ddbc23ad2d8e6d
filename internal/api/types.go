package api

import (
	"time"

	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/domain/repositories"
)

// LoginRequest represents the request payload for the demo login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the response payload for the demo login
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
}

// LanguagesResponse lists the catalog and the default pair
type LanguagesResponse struct {
	Languages   []entities.Language   `json:"languages"`
	DefaultPair entities.LanguagePair `json:"default_pair"`
}

// VoicesResponse lists the synthesis voices
type VoicesResponse struct {
	Voices []repositories.Voice `json:"voices"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
