package tts

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain"
	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/domain/repositories"
)

// MockTextToSpeech is a placeholder implementation for text-to-speech
type MockTextToSpeech struct {
	logger *zap.Logger
}

var (
	_ repositories.TextToSpeech = (*MockTextToSpeech)(nil)
	_ repositories.VoiceLister  = (*MockTextToSpeech)(nil)
)

// NewMockTextToSpeech creates a new mock text-to-speech service
func NewMockTextToSpeech(logger *zap.Logger) *MockTextToSpeech {
	return &MockTextToSpeech{
		logger: logger,
	}
}

// Synthesize returns a deterministic byte pattern sized after the text
func (t *MockTextToSpeech) Synthesize(ctx context.Context, req entities.SynthesisRequest) ([]byte, string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, "", domain.ErrEmptyText
	}

	t.logger.Info("Processing text-to-speech",
		zap.Int("textLength", len(req.Text)),
		zap.String("language", string(req.Language)))

	// Mock audio data - generate based on text length
	mockAudio := make([]byte, len(req.Text)*100)
	for i := range mockAudio {
		mockAudio[i] = byte(i % 256)
	}

	return mockAudio, "application/octet-stream", nil
}

// Voices returns a single mock voice
func (t *MockTextToSpeech) Voices(ctx context.Context) ([]repositories.Voice, error) {
	return []repositories.Voice{{ID: "mock", Name: "Mock Voice", Category: "generated"}}, nil
}
