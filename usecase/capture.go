package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain"
	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/domain/repositories"
)

var ErrNotListening = errors.New("no active listening session")

// Capability is the speech recognition support resolved once at startup
type Capability struct {
	recognizer repositories.SpeechRecognizer
}

// NewCapability wraps an available recognizer. A nil recognizer is unsupported.
func NewCapability(recognizer repositories.SpeechRecognizer) Capability {
	return Capability{recognizer: recognizer}
}

// Unsupported is the capability of a host without speech recognition
func Unsupported() Capability {
	return Capability{}
}

func (c Capability) Supported() bool {
	return c.recognizer != nil
}

// CaptureState is the state of the speech capture adapter
type CaptureState string

const (
	CaptureIdle      CaptureState = "idle"
	CaptureListening CaptureState = "listening"
)

// CaptureCallbacks receive the outcome of one utterance. Exactly one of them
// fires per session unless the session is stopped or replaced first.
type CaptureCallbacks struct {
	OnResult func(text string)
	OnError  func(err error)
	OnEnd    func()
}

// SpeechCapture drives single-utterance recognition sessions
type SpeechCapture struct {
	capability Capability
	logger     *zap.Logger

	mu         sync.Mutex
	state      CaptureState
	generation uint64
	session    repositories.RecognitionSession
	cancel     context.CancelFunc
	callbacks  CaptureCallbacks
	finishing  bool
}

func NewSpeechCapture(capability Capability, logger *zap.Logger) *SpeechCapture {
	return &SpeechCapture{
		capability: capability,
		logger:     logger,
		state:      CaptureIdle,
	}
}

// Supported reports whether Start can ever succeed
func (c *SpeechCapture) Supported() bool {
	return c.capability.Supported()
}

// State returns the current capture state
func (c *SpeechCapture) State() CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins a new session configured with config. A running session is
// replaced and its outcome discarded.
func (c *SpeechCapture) Start(ctx context.Context, config entities.RecognitionConfig, callbacks CaptureCallbacks) error {
	if !c.capability.Supported() {
		return fmt.Errorf("%w: speech recognition is not available", domain.ErrCapabilityUnavailable)
	}

	c.mu.Lock()
	c.generation++
	generation := c.generation
	previous, previousCancel := c.session, c.cancel
	c.session, c.cancel = nil, nil
	c.state = CaptureListening
	c.finishing = false
	c.callbacks = callbacks
	c.mu.Unlock()

	if previous != nil {
		c.logger.Info("Replacing running recognition session")
		_ = previous.Close()
	}
	if previousCancel != nil {
		previousCancel()
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	session, err := c.capability.recognizer.Start(sessionCtx, config)
	if err != nil {
		cancel()
		c.mu.Lock()
		if c.generation == generation {
			c.state = CaptureIdle
			c.callbacks = CaptureCallbacks{}
		}
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if c.generation != generation {
		// stopped or replaced while the recognizer was starting
		c.mu.Unlock()
		_ = session.Close()
		cancel()
		return nil
	}
	c.session, c.cancel = session, cancel
	c.mu.Unlock()

	go c.watch(sessionCtx, generation, session)

	c.logger.Info("Listening started",
		zap.String("language", config.Language),
		zap.Int("sampleRate", config.SampleRate))
	return nil
}

// Feed streams a chunk of audio into the running session
func (c *SpeechCapture) Feed(chunk []byte) error {
	c.mu.Lock()
	if c.state != CaptureListening || c.session == nil || c.finishing {
		c.mu.Unlock()
		return ErrNotListening
	}
	session, generation := c.session, c.generation
	c.mu.Unlock()

	if err := session.Stream(chunk); err != nil {
		if errors.Is(err, domain.ErrUtteranceEnded) {
			c.logger.Debug("Recognizer ended the utterance before the audio did")
			c.conclude(generation, session)
			return nil
		}
		c.resolve(generation, "", err)
		return err
	}
	return nil
}

// Finish marks the end of the utterance. The outcome is delivered to the
// callbacks asynchronously.
func (c *SpeechCapture) Finish() error {
	c.mu.Lock()
	if c.state != CaptureListening || c.session == nil || c.finishing {
		c.mu.Unlock()
		return ErrNotListening
	}
	session, generation := c.session, c.generation
	c.mu.Unlock()

	if !c.conclude(generation, session) {
		return ErrNotListening
	}
	return nil
}

// conclude collects the transcript of session once per generation. It
// reports false when the session is already finishing or gone.
func (c *SpeechCapture) conclude(generation uint64, session repositories.RecognitionSession) bool {
	c.mu.Lock()
	if c.generation != generation || c.session != session || c.finishing {
		c.mu.Unlock()
		return false
	}
	c.finishing = true
	c.mu.Unlock()

	go func() {
		text, err := session.End()
		c.resolve(generation, text, err)
	}()
	return true
}

// watch concludes the session when the recognizer ends the utterance itself
func (c *SpeechCapture) watch(ctx context.Context, generation uint64, session repositories.RecognitionSession) {
	done := session.Done()
	if done == nil {
		return
	}
	select {
	case <-done:
		c.logger.Info("Recognizer ended the utterance")
		c.conclude(generation, session)
	case <-ctx.Done():
	}
}

// Stop cancels the running session. No callback fires.
func (c *SpeechCapture) Stop() {
	c.mu.Lock()
	if c.state == CaptureIdle {
		c.mu.Unlock()
		return
	}
	c.generation++
	session, cancel := c.session, c.cancel
	c.session, c.cancel = nil, nil
	c.state = CaptureIdle
	c.finishing = false
	c.callbacks = CaptureCallbacks{}
	c.mu.Unlock()

	if session != nil {
		_ = session.Close()
	}
	if cancel != nil {
		cancel()
	}
	c.logger.Info("Listening stopped")
}

func (c *SpeechCapture) resolve(generation uint64, text string, err error) {
	c.mu.Lock()
	if c.generation != generation || c.state != CaptureListening {
		c.mu.Unlock()
		c.logger.Debug("Discarding outcome of a finished recognition session")
		return
	}
	session, cancel, callbacks := c.session, c.cancel, c.callbacks
	c.session, c.cancel = nil, nil
	c.state = CaptureIdle
	c.finishing = false
	c.callbacks = CaptureCallbacks{}
	c.mu.Unlock()

	if session != nil {
		_ = session.Close()
	}
	if cancel != nil {
		cancel()
	}

	switch {
	case err != nil:
		if !errors.Is(err, domain.ErrRecognitionFailure) {
			err = fmt.Errorf("%w: %v", domain.ErrRecognitionFailure, err)
		}
		c.logger.Warn("Recognition failed", zap.Error(err))
		if callbacks.OnError != nil {
			callbacks.OnError(err)
		}
	case text == "":
		c.logger.Info("Recognition ended without speech")
		if callbacks.OnEnd != nil {
			callbacks.OnEnd()
		}
	default:
		c.logger.Info("Recognition result", zap.Int("length", len(text)))
		if callbacks.OnResult != nil {
			callbacks.OnResult(text)
		}
	}
}
