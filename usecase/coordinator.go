package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain"
	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/domain/repositories"
)

var ErrUnknownArea = errors.New("unknown text area")

// AudioFormat describes the audio a client is about to stream
type AudioFormat struct {
	SampleRate int
	Encoding   string
}

// Dependencies wires a Coordinator. Events and Logger are optional.
type Dependencies struct {
	Catalog     *entities.Catalog
	Pair        entities.LanguagePair
	Notifier    Notifier
	Translator  repositories.Translator
	Synthesizer repositories.TextToSpeech
	Player      repositories.Player
	Capability  Capability
	Clipboard   repositories.Clipboard
	Events      EventSink
	Logger      *zap.Logger
}

// Coordinator sequences the user actions of one session against the shared
// language/text state and routes every outcome to the notifier.
type Coordinator struct {
	catalog     *entities.Catalog
	notifier    Notifier
	translation *TranslationClient
	synthesis   *SynthesisClient
	capture     *SpeechCapture
	clipboard   repositories.Clipboard
	events      EventSink
	logger      *zap.Logger

	mu          sync.Mutex
	state       entities.TextState
	translating int
	listening   bool
	sequence    uint64
}

func NewCoordinator(deps Dependencies) (*Coordinator, error) {
	switch {
	case deps.Catalog == nil:
		return nil, fmt.Errorf("catalog is required")
	case deps.Notifier == nil:
		return nil, fmt.Errorf("notifier is required")
	case deps.Translator == nil:
		return nil, fmt.Errorf("translator is required")
	case deps.Synthesizer == nil:
		return nil, fmt.Errorf("synthesizer is required")
	case deps.Player == nil:
		return nil, fmt.Errorf("player is required")
	case deps.Clipboard == nil:
		return nil, fmt.Errorf("clipboard is required")
	}
	if err := deps.Catalog.ValidatePair(deps.Pair); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	events := deps.Events
	if events == nil {
		events = nopSink{}
	}

	return &Coordinator{
		catalog:     deps.Catalog,
		notifier:    deps.Notifier,
		translation: NewTranslationClient(deps.Translator, deps.Notifier, logger),
		synthesis:   NewSynthesisClient(deps.Synthesizer, deps.Player, deps.Notifier, logger),
		capture:     NewSpeechCapture(deps.Capability, logger),
		clipboard:   deps.Clipboard,
		events:      events,
		logger:      logger,
		state:       entities.NewTextState(deps.Pair),
	}, nil
}

// Snapshot returns a read copy of the current state
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	return Snapshot{
		Pair:          c.state.Pair,
		SourceText:    c.state.Buffer.SourceText,
		ResultText:    c.state.Buffer.ResultText,
		ResultStale:   c.state.Buffer.ResultStale,
		IsTranslating: c.translating > 0,
		IsListening:   c.listening,
		CanListen:     c.capture.Supported(),
	}
}

// update applies fn under the lock and publishes the resulting state
func (c *Coordinator) update(fn func()) {
	c.mu.Lock()
	fn()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.events.StateChanged(snapshot)
}

func (c *Coordinator) SetSourceLanguage(code entities.LanguageCode) error {
	if !c.catalog.Contains(code) {
		return fmt.Errorf("unsupported source language: %s", code)
	}
	c.update(func() { c.state.Pair.Source = code })
	return nil
}

func (c *Coordinator) SetTargetLanguage(code entities.LanguageCode) error {
	if !c.catalog.Contains(code) {
		return fmt.Errorf("unsupported target language: %s", code)
	}
	c.update(func() { c.state.Pair.Target = code })
	return nil
}

// SetLanguages replaces both languages at once
func (c *Coordinator) SetLanguages(pair entities.LanguagePair) error {
	if err := c.catalog.ValidatePair(pair); err != nil {
		return err
	}
	c.update(func() { c.state.Pair = pair })
	return nil
}

func (c *Coordinator) SetSourceText(text string) {
	c.update(func() { c.state.Buffer.SourceText = text })
}

// Swap exchanges languages and texts in one step
func (c *Coordinator) Swap() {
	c.update(c.state.Swap)
}

// Translate translates the current source text with the current pair
func (c *Coordinator) Translate(ctx context.Context) error {
	c.mu.Lock()
	text, pair := c.state.Buffer.SourceText, c.state.Pair
	c.mu.Unlock()

	return c.TranslateText(ctx, text, pair.Source, pair.Target)
}

// TranslateText translates text from one language to another. Blank text is
// a no-op. Only the most recently issued request may write the result.
func (c *Coordinator) TranslateText(ctx context.Context, text string, from, to entities.LanguageCode) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pair := entities.LanguagePair{Source: from, Target: to}
	if err := c.catalog.ValidatePair(pair); err != nil {
		return err
	}

	var sequence uint64
	c.update(func() {
		c.sequence++
		sequence = c.sequence
		c.translating++
		c.state.MarkRequested(text, pair)
	})
	defer c.update(func() { c.translating-- })

	settle := func(result string, err error) bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sequence != c.sequence {
			c.logger.Info("Translation superseded by a newer request",
				zap.Uint64("sequence", sequence),
				zap.Uint64("latest", c.sequence))
			return false
		}
		if err == nil {
			c.state.ApplyResult(text, pair, result)
		}
		return true
	}

	_, err := c.translation.Translate(ctx, entities.TranslationRequest{Text: text, From: from, To: to}, settle)
	if err != nil {
		c.logger.Debug("Translation ended with error", zap.Error(err))
	}
	return nil
}

// StartListening starts a recognition session for the current source
// language. Failures are reported as notifications.
func (c *Coordinator) StartListening(ctx context.Context, format AudioFormat) error {
	if !c.capture.Supported() {
		c.notifier.Enqueue("Voice Recognition Not Supported", "Voice recognition is not available on this server.", entities.NotificationError)
		return nil
	}

	var pair entities.LanguagePair
	c.update(func() {
		c.state.Buffer.SourceText = ""
		c.listening = true
		pair = c.state.Pair
	})

	config := entities.RecognitionConfig{
		Language:   c.catalog.Locale(pair.Source),
		SampleRate: format.SampleRate,
		Encoding:   format.Encoding,
	}

	err := c.capture.Start(ctx, config, CaptureCallbacks{
		OnResult: func(text string) {
			c.update(func() {
				c.listening = false
				c.state.Buffer.SourceText = text
			})
			c.TranslateText(ctx, text, pair.Source, pair.Target)
		},
		OnError: func(err error) {
			c.update(func() { c.listening = false })
			c.notifyRecognitionError()
		},
		OnEnd: func() {
			c.update(func() { c.listening = false })
		},
	})
	if err != nil {
		c.update(func() { c.listening = c.capture.State() == CaptureListening })
		if errors.Is(err, domain.ErrCapabilityUnavailable) {
			c.notifier.Enqueue("Voice Recognition Not Supported", "Voice recognition is not available on this server.", entities.NotificationError)
			return nil
		}
		c.logger.Error("Failed to start listening", zap.Error(err))
		c.notifyRecognitionError()
	}
	return nil
}

// FeedAudio streams a chunk of the current utterance
func (c *Coordinator) FeedAudio(chunk []byte) error {
	return c.capture.Feed(chunk)
}

// EndUtterance marks the end of the spoken input
func (c *Coordinator) EndUtterance() error {
	return c.capture.Finish()
}

// StopListening cancels listening without producing a result
func (c *Coordinator) StopListening() {
	c.capture.Stop()
	c.update(func() { c.listening = false })
}

// Speak plays the text of area in that area's language
func (c *Coordinator) Speak(ctx context.Context, area entities.TextArea) error {
	text, lang, err := c.areaText(area)
	if err != nil {
		return err
	}

	if err := c.synthesis.Speak(ctx, text, lang); err != nil {
		c.logger.Debug("Speak ended with error", zap.Error(err))
	}
	return nil
}

// Copy writes the text of area to the clipboard
func (c *Coordinator) Copy(ctx context.Context, area entities.TextArea) error {
	text, _, err := c.areaText(area)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}

	if err := c.clipboard.WriteText(ctx, text); err != nil {
		c.logger.Warn("Copy failed", zap.String("area", string(area)), zap.Error(err))
		c.notifier.Enqueue("Copy Failed", "Could not copy text to clipboard.", entities.NotificationError)
		return nil
	}

	label := "Source"
	if area == entities.AreaResult {
		label = "Translation"
	}
	c.notifier.Enqueue("Copied!", label+" text copied to clipboard.", entities.NotificationSuccess)
	return nil
}

// Close stops listening, waits for running playbacks and closes the notifier
// when it supports closing
func (c *Coordinator) Close() {
	c.capture.Stop()
	c.synthesis.Close()
	if closer, ok := c.notifier.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (c *Coordinator) areaText(area entities.TextArea) (string, entities.LanguageCode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch area {
	case entities.AreaSource:
		return c.state.Buffer.SourceText, c.state.Pair.Source, nil
	case entities.AreaResult:
		return c.state.Buffer.ResultText, c.state.Pair.Target, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownArea, area)
}

func (c *Coordinator) notifyRecognitionError() {
	c.notifier.Enqueue("Voice Recognition Error", "Could not recognize speech. Please try again.", entities.NotificationError)
}
