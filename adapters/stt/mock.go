package stt

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain"
	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/domain/repositories"
)

// MockSpeechRecognizer is a placeholder implementation for speech recognition
type MockSpeechRecognizer struct {
	logger *zap.Logger
}

var _ repositories.SpeechRecognizer = (*MockSpeechRecognizer)(nil)

// NewMockSpeechRecognizer creates a new mock speech recognizer
func NewMockSpeechRecognizer(logger *zap.Logger) *MockSpeechRecognizer {
	return &MockSpeechRecognizer{
		logger: logger,
	}
}

// Start creates a new mock streaming session
func (s *MockSpeechRecognizer) Start(ctx context.Context, config entities.RecognitionConfig) (repositories.RecognitionSession, error) {
	s.logger.Info("Initializing mock recognition session",
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding),
		zap.String("language", config.Language))

	return &mockRecognitionSession{logger: s.logger}, nil
}

// mockRecognitionSession picks a transcript from the cumulative audio size
type mockRecognitionSession struct {
	logger *zap.Logger

	mu       sync.Mutex
	received int
	ended    bool
}

func (m *mockRecognitionSession) Stream(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ended {
		return fmt.Errorf("%w: stream already ended", domain.ErrRecognitionFailure)
	}
	m.received += len(data)
	return nil
}

func (m *mockRecognitionSession) End() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ended {
		return "", fmt.Errorf("%w: stream already ended", domain.ErrRecognitionFailure)
	}
	m.ended = true

	m.logger.Info("Ending mock recognition session", zap.Int("audioSize", m.received))

	switch {
	case m.received == 0:
		return "", nil
	case m.received > 10000:
		return "thank you for listening", nil
	case m.received > 1000:
		return "good morning", nil
	default:
		return "hello", nil
	}
}

func (m *mockRecognitionSession) Close() error {
	m.mu.Lock()
	m.ended = true
	m.mu.Unlock()
	return nil
}

// Done is nil, the mock never ends an utterance on its own
func (m *mockRecognitionSession) Done() <-chan struct{} {
	return nil
}
