package repositories

import (
	"context"

	"github.com/satriahrh/lisan/domain/entities"
)

// SpeechRecognizer abstracts speech recognition services
type SpeechRecognizer interface {
	// Start opens a single-utterance recognition session
	Start(ctx context.Context, config entities.RecognitionConfig) (RecognitionSession, error)
}

// RecognitionSession receives the audio of one utterance
type RecognitionSession interface {
	// Stream sends a chunk of audio. Once the recognizer has ended the
	// utterance it returns domain.ErrUtteranceEnded.
	Stream(data []byte) error
	// End signals the end of audio and waits for the final transcript.
	// An empty transcript with a nil error means nothing was said.
	End() (string, error)
	// Close releases the session without waiting for a result
	Close() error
	// Done is closed when the recognizer ends the utterance on its own.
	// A nil channel means the utterance only ends through End.
	Done() <-chan struct{}
}
