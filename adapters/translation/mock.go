package translation

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain"
	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/domain/repositories"
)

// MockTranslator returns deterministic translations without network access
type MockTranslator struct {
	delay      time.Duration
	dictionary map[entities.LanguageCode]map[string]string
	logger     *zap.Logger
}

var _ repositories.Translator = (*MockTranslator)(nil)

// NewMockTranslator creates a mock translator with a small built-in dictionary
func NewMockTranslator(delay time.Duration, logger *zap.Logger) *MockTranslator {
	return &MockTranslator{
		delay: delay,
		dictionary: map[entities.LanguageCode]map[string]string{
			"ur": {
				"hello":     "ہیلو",
				"thank you": "شکریہ",
				"goodbye":   "خدا حافظ",
			},
			"sd": {
				"hello":     "هيلو",
				"thank you": "مهرباني",
			},
			"en": {
				"ہیلو":  "hello",
				"شکریہ": "thank you",
			},
		},
		logger: logger,
	}
}

// Translate looks the text up in the dictionary, falling back to a "[lang] " prefix
func (m *MockTranslator) Translate(ctx context.Context, req entities.TranslationRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", domain.ErrEmptyText
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	m.logger.Info("Processing mock translation",
		zap.String("from", string(req.From)),
		zap.String("to", string(req.To)))

	key := strings.ToLower(strings.TrimSpace(req.Text))
	if dict, ok := m.dictionary[req.To]; ok {
		if translated, ok := dict[key]; ok {
			return translated, nil
		}
	}
	return "[" + string(req.To) + "] " + req.Text, nil
}
