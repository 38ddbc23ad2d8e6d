package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/domain/repositories"
)

var ErrSynthesisClosed = errors.New("synthesis client closed")

// SynthesisClient turns text into a clip and hands it to the player.
// Calls are independent and clips may play at the same time.
type SynthesisClient struct {
	tts      repositories.TextToSpeech
	player   repositories.Player
	notifier Notifier
	logger   *zap.Logger

	mu     sync.Mutex
	closed bool
	// playing counts every Speak from the synthesis request to the end of playback
	playing sync.WaitGroup
}

func NewSynthesisClient(tts repositories.TextToSpeech, player repositories.Player, notifier Notifier, logger *zap.Logger) *SynthesisClient {
	return &SynthesisClient{
		tts:      tts,
		player:   player,
		notifier: notifier,
		logger:   logger,
	}
}

// Speak synthesizes text and starts playback. It returns once playback has
// started; empty text is a no-op.
func (s *SynthesisClient) Speak(ctx context.Context, text string, lang entities.LanguageCode) error {
	if text == "" {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSynthesisClosed
	}
	s.playing.Add(1)
	s.mu.Unlock()

	audio, contentType, err := s.tts.Synthesize(ctx, entities.SynthesisRequest{Text: text, Language: lang})
	if err != nil {
		s.playing.Done()
		s.logger.Error("Speech synthesis failed", zap.Error(err))
		s.notifyFailure()
		return err
	}

	clip := entities.NewAudioClip(uuid.NewString(), contentType, audio)
	started := make(chan struct{})

	go func() {
		defer s.playing.Done()
		defer clip.Release()

		close(started)
		if err := s.player.Play(context.WithoutCancel(ctx), clip); err != nil {
			s.logger.Error("Playback failed", zap.String("clipID", clip.ID), zap.Error(err))
			s.notifyFailure()
			return
		}
		s.logger.Debug("Playback finished", zap.String("clipID", clip.ID))
	}()

	<-started
	s.logger.Info("Playback started",
		zap.String("clipID", clip.ID),
		zap.String("contentType", contentType),
		zap.Int("size", len(audio)))
	return nil
}

// Close rejects further Speak calls and blocks until every pending
// synthesis and playback has ended
func (s *SynthesisClient) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.playing.Wait()
}

func (s *SynthesisClient) notifyFailure() {
	s.notifier.Enqueue("Voice Error", "Could not play audio. Please try again.", entities.NotificationError)
}
