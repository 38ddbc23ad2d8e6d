package translation

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/lisan/domain"
	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/domain/repositories"
)

const (
	defaultGeminiModel       = "gemini-2.0-flash"
	defaultGeminiTemperature = 0.2
	defaultGeminiTimeout     = 30 * time.Second
)

const geminiSystemPrompt = "You are a translation engine. Translate the user's text from the source " +
	"language to the target language. Reply with the translation only, without quotes, notes or " +
	"transliteration."

// GeminiConfig holds configuration for the Gemini translator
// Required fields:
// - APIKey: Google AI API key
// Optional fields with defaults:
// - Model: model name (default: "gemini-2.0-flash")
// - Temperature: sampling temperature between 0 and 1 (default: 0.2)
// - Timeout: per-request timeout (default: 30s)
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// contentGenerator is the part of genai.Models the translator depends on
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiTranslator implements Translator on top of Gemini text generation
type GeminiTranslator struct {
	models      contentGenerator
	catalog     *entities.Catalog
	model       string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

var _ repositories.Translator = (*GeminiTranslator)(nil)

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("Google AI API key is required")
	}

	if config.Temperature != 0 && (config.Temperature < 0 || config.Temperature > 1) {
		return fmt.Errorf("temperature must be between 0 and 1, got %f", config.Temperature)
	}

	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}

	return nil
}

// NewGeminiConfigFromEnv reads GEMINI_API_KEY and GEMINI_MODEL
func NewGeminiConfigFromEnv() GeminiConfig {
	return GeminiConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Model:  os.Getenv("GEMINI_MODEL"),
	}
}

// NewGeminiTranslator creates a Gemini-backed translator. The catalog is used
// to give the model full language names instead of bare codes.
func NewGeminiTranslator(ctx context.Context, config GeminiConfig, catalog *entities.Catalog, logger *zap.Logger) (*GeminiTranslator, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return newGeminiTranslator(client.Models, config, catalog, logger), nil
}

func newGeminiTranslator(models contentGenerator, config GeminiConfig, catalog *entities.Catalog, logger *zap.Logger) *GeminiTranslator {
	model := config.Model
	if model == "" {
		model = defaultGeminiModel
		logger.Info("Using default model", zap.String("model", model))
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = defaultGeminiTemperature
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultGeminiTimeout
	}

	return &GeminiTranslator{
		models:      models,
		catalog:     catalog,
		model:       model,
		temperature: temperature,
		timeout:     timeout,
		logger:      logger,
	}
}

// Translate asks the model for a translation of req.Text. There is no retry:
// a failed call is reported to the caller as is.
func (g *GeminiTranslator) Translate(ctx context.Context, req entities.TranslationRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", domain.ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := fmt.Sprintf("Source language: %s\nTarget language: %s\nText:\n%s",
		g.languageName(req.From), g.languageName(req.To), req.Text)

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(geminiSystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
	}

	response, err := g.models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, config)
	if err != nil {
		g.logger.Error("Gemini translation request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}

	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates", domain.ErrMalformedResponse)
	}

	var text strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	translated := strings.TrimSpace(text.String())
	if translated == "" {
		return "", fmt.Errorf("%w: empty candidate", domain.ErrMalformedResponse)
	}

	return translated, nil
}

func (g *GeminiTranslator) languageName(code entities.LanguageCode) string {
	if g.catalog != nil {
		if lang, ok := g.catalog.Lookup(code); ok {
			return fmt.Sprintf("%s (%s)", lang.Name, lang.Code)
		}
	}
	return string(code)
}
