// Package providers builds the backend adapters selected in the configuration.
package providers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/lisan/adapters/clipboard"
	"github.com/satriahrh/lisan/adapters/stt"
	"github.com/satriahrh/lisan/adapters/translation"
	"github.com/satriahrh/lisan/adapters/tts"
	"github.com/satriahrh/lisan/domain/repositories"
	"github.com/satriahrh/lisan/internal/config"
	"github.com/satriahrh/lisan/usecase"
)

// Set holds the adapters shared by every session
type Set struct {
	Translator  repositories.Translator
	Synthesizer repositories.TextToSpeech
	// Voices is nil when the synthesis backend cannot list voices
	Voices     repositories.VoiceLister
	Capability usecase.Capability
	// HostClipboard is nil when copies go to the browser
	HostClipboard repositories.Clipboard

	closers []func() error
}

// Close releases the clients opened by Build
func (s *Set) Close() error {
	var first error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Build resolves every provider named in cfg. Speech recognition that fails
// to initialize degrades to an unsupported capability instead of an error.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Set, error) {
	set := &Set{}

	switch cfg.Providers.Translation {
	case config.TranslationGemini:
		translator, err := translation.NewGeminiTranslator(ctx, translation.NewGeminiConfigFromEnv(), cfg.Languages.Catalog, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini translator: %w", err)
		}
		set.Translator = translator
	case config.TranslationMock:
		set.Translator = translation.NewMockTranslator(300*time.Millisecond, logger)
	default:
		set.Translator = translation.NewMyMemoryTranslator(translation.NewMyMemoryConfigFromEnv(), logger)
	}

	switch cfg.Providers.TTS {
	case config.TTSMock:
		mock := tts.NewMockTextToSpeech(logger)
		set.Synthesizer = mock
		set.Voices = mock
	default:
		elevenLabs, err := tts.NewElevenLabsTTS(tts.NewElevenLabsConfigFromEnv(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ElevenLabs TTS: %w", err)
		}
		set.Synthesizer = elevenLabs
		set.Voices = elevenLabs
	}

	switch cfg.Providers.STT {
	case config.STTGoogle:
		recognizer, err := stt.NewGoogleSpeechRecognizer(ctx, logger)
		if err != nil {
			logger.Warn("Speech recognition unavailable", zap.Error(err))
			set.Capability = usecase.Unsupported()
			break
		}
		set.Capability = usecase.NewCapability(recognizer)
		set.closers = append(set.closers, recognizer.Close)
	case config.STTMock:
		set.Capability = usecase.NewCapability(stt.NewMockSpeechRecognizer(logger))
	default:
		set.Capability = usecase.Unsupported()
	}

	if cfg.Providers.Clipboard == config.ClipboardHost {
		if clipboard.Available() {
			set.HostClipboard = clipboard.NewHostClipboard(logger)
		} else {
			logger.Warn("Host clipboard unsupported, copies go to the browser")
		}
	}

	logger.Info("Providers initialized",
		zap.String("translation", cfg.Providers.Translation),
		zap.String("tts", cfg.Providers.TTS),
		zap.String("stt", cfg.Providers.STT),
		zap.Bool("speechSupported", set.Capability.Supported()),
		zap.Bool("hostClipboard", set.HostClipboard != nil))

	return set, nil
}
