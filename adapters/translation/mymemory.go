package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain"
	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/domain/repositories"
)

const (
	defaultMyMemoryBaseURL = "https://api.mymemory.translated.net"
	defaultMyMemoryTimeout = 30 * time.Second
)

// MyMemoryConfig holds configuration for the MyMemory adapter
// Optional fields with defaults:
// - APIBaseURL: base URL of the service (default: "https://api.mymemory.translated.net")
// - Email: contact address sent as "de", raises the anonymous daily quota
// - Timeout: HTTP client timeout (default: 30s)
type MyMemoryConfig struct {
	APIBaseURL string
	Email      string
	Timeout    time.Duration
}

// MyMemoryTranslator implements Translator using the MyMemory GET API
type MyMemoryTranslator struct {
	baseURL string
	email   string
	client  *http.Client
	logger  *zap.Logger
}

// Ensure MyMemoryTranslator implements the Translator interface
var _ repositories.Translator = (*MyMemoryTranslator)(nil)

type myMemoryResponse struct {
	ResponseData *struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus json.RawMessage `json:"responseStatus"`
}

// NewMyMemoryTranslator creates a new MyMemory translator
func NewMyMemoryTranslator(config MyMemoryConfig, logger *zap.Logger) *MyMemoryTranslator {
	baseURL := strings.TrimRight(config.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultMyMemoryBaseURL
		logger.Info("Using default MyMemory base URL", zap.String("apiBaseURL", baseURL))
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultMyMemoryTimeout
	}

	return &MyMemoryTranslator{
		baseURL: baseURL,
		email:   config.Email,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// NewMyMemoryConfigFromEnv reads MYMEMORY_API_BASE_URL and MYMEMORY_EMAIL
func NewMyMemoryConfigFromEnv() MyMemoryConfig {
	return MyMemoryConfig{
		APIBaseURL: os.Getenv("MYMEMORY_API_BASE_URL"),
		Email:      os.Getenv("MYMEMORY_EMAIL"),
	}
}

// Translate issues a single GET request and extracts responseData.translatedText
func (m *MyMemoryTranslator) Translate(ctx context.Context, req entities.TranslationRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", domain.ErrEmptyText
	}

	query := url.Values{}
	query.Set("q", req.Text)
	query.Set("langpair", string(req.From)+"|"+string(req.To))
	if m.email != "" {
		query.Set("de", m.email)
	}
	endpoint := m.baseURL + "/get?" + query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	m.logger.Debug("Sending request to MyMemory",
		zap.String("from", string(req.From)),
		zap.String("to", string(req.To)),
		zap.Int("textLength", len(req.Text)))

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		m.logger.Error("MyMemory API returned error",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("response", string(errorBody)))
		return "", fmt.Errorf("%w: status %d", domain.ErrNetworkFailure, resp.StatusCode)
	}

	var payload myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	if payload.ResponseData == nil || payload.ResponseData.TranslatedText == "" {
		m.logger.Warn("MyMemory response missing translatedText",
			zap.ByteString("responseStatus", payload.ResponseStatus))
		return "", fmt.Errorf("%w: missing responseData.translatedText", domain.ErrMalformedResponse)
	}

	return payload.ResponseData.TranslatedText, nil
}
