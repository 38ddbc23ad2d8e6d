package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/satriahrh/lisan/domain/entities"
)

const (
	TranslationMyMemory = "mymemory"
	TranslationGemini   = "gemini"
	TranslationMock     = "mock"

	TTSElevenLabs = "elevenlabs"
	TTSMock       = "mock"

	STTGoogle = "google"
	STTMock   = "mock"
	STTNone   = "none"

	ClipboardClient = "client"
	ClipboardHost   = "host"
)

// Config stores runtime configuration shared by the server and the CLI
type Config struct {
	Server       ServerConfig
	Auth         AuthConfig
	Languages    LanguageConfig
	Notification NotificationConfig
	Providers    ProviderConfig
}

type ServerConfig struct {
	Port        string
	Environment string
	// SessionIdleTimeout closes quiet websocket sessions; zero disables it
	SessionIdleTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret    string
	Username     string
	Password     string
	LoginDelay   time.Duration
	TokenTTL     time.Duration
	AllowNoToken bool
}

type LanguageConfig struct {
	Catalog     *entities.Catalog
	DefaultPair entities.LanguagePair
}

type NotificationConfig struct {
	TTL time.Duration
}

type ProviderConfig struct {
	Translation string
	TTS         string
	STT         string
	Clipboard   string
}

// developmentJWTSecret signs tokens when APP_ENV=development and no secret is set
const developmentJWTSecret = "lisan-development-secret"

// Development reports whether the process runs in development mode
func (c Config) Development() bool {
	return c.Server.Environment == "development"
}

// Load resolves configuration from environment variables and defaults.
// .env files are loaded by the binaries before calling Load.
func Load() (Config, error) {
	catalog := entities.DefaultCatalog()
	if list := strings.TrimSpace(os.Getenv("LANGUAGES")); list != "" {
		parsed, err := entities.ParseCatalog(list)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LANGUAGES: %w", err)
		}
		catalog = parsed
	}

	pair := entities.LanguagePair{
		Source: entities.LanguageCode(envOrDefault("DEFAULT_SOURCE_LANG", "en")),
		Target: entities.LanguageCode(envOrDefault("DEFAULT_TARGET_LANG", "ur")),
	}
	if err := catalog.ValidatePair(pair); err != nil {
		return Config{}, fmt.Errorf("invalid default language pair: %w", err)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:               envOrDefault("PORT", "8080"),
			Environment:        envOrDefault("APP_ENV", "production"),
			SessionIdleTimeout: time.Duration(envOrDefaultInt("SESSION_IDLE_TIMEOUT_MINUTES", 30)) * time.Minute,
		},
		Auth: AuthConfig{
			JWTSecret:    envOrDefault("JWT_SECRET", ""),
			Username:     envOrDefault("DEMO_USERNAME", "user@lux.com"),
			Password:     envOrDefault("DEMO_PASSWORD", "password123"),
			LoginDelay:   time.Duration(envOrDefaultInt("LOGIN_DELAY_MS", 1500)) * time.Millisecond,
			TokenTTL:     time.Duration(envOrDefaultInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
			AllowNoToken: envOrDefaultBool("WS_ALLOW_ANONYMOUS", false),
		},
		Languages: LanguageConfig{
			Catalog:     catalog,
			DefaultPair: pair,
		},
		Notification: NotificationConfig{
			TTL: time.Duration(envOrDefaultInt("NOTIFICATION_TTL_MS", 4000)) * time.Millisecond,
		},
		Providers: ProviderConfig{
			Translation: strings.ToLower(envOrDefault("TRANSLATION_PROVIDER", TranslationMyMemory)),
			TTS:         strings.ToLower(envOrDefault("TTS_PROVIDER", TTSElevenLabs)),
			STT:         strings.ToLower(envOrDefault("STT_PROVIDER", STTNone)),
			Clipboard:   strings.ToLower(envOrDefault("CLIPBOARD_BACKEND", ClipboardClient)),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		if !cfg.Development() {
			return Config{}, errors.New("JWT_SECRET is required outside development")
		}
		cfg.Auth.JWTSecret = developmentJWTSecret
	}
	if cfg.Auth.LoginDelay < 0 {
		cfg.Auth.LoginDelay = 0
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Notification.TTL <= 0 {
		cfg.Notification.TTL = 4000 * time.Millisecond
	}

	if err := cfg.Providers.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (p ProviderConfig) validate() error {
	switch p.Translation {
	case TranslationMyMemory, TranslationGemini, TranslationMock:
	default:
		return fmt.Errorf("unknown TRANSLATION_PROVIDER %q", p.Translation)
	}
	switch p.TTS {
	case TTSElevenLabs, TTSMock:
	default:
		return fmt.Errorf("unknown TTS_PROVIDER %q", p.TTS)
	}
	switch p.STT {
	case STTGoogle, STTMock, STTNone:
	default:
		return fmt.Errorf("unknown STT_PROVIDER %q", p.STT)
	}
	switch p.Clipboard {
	case ClipboardClient, ClipboardHost:
	default:
		return fmt.Errorf("unknown CLIPBOARD_BACKEND %q", p.Clipboard)
	}
	return nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
