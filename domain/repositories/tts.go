package repositories

import (
	"context"

	"github.com/satriahrh/lisan/domain/entities"
)

// TextToSpeech abstracts a remote speech synthesis service
type TextToSpeech interface {
	// Synthesize returns the complete audio payload and its content type
	Synthesize(ctx context.Context, req entities.SynthesisRequest) ([]byte, string, error)
}

// Voice describes a synthesis voice offered by the backend
type Voice struct {
	ID       string            `json:"voice_id"`
	Name     string            `json:"name"`
	Category string            `json:"category,omitempty"`
	Labels   map[string]string `json:"labels,omitempty"`
}

// VoiceLister is implemented by backends that can enumerate their voices
type VoiceLister interface {
	Voices(ctx context.Context) ([]Voice, error)
}

// Player plays a synthesized clip. Play blocks until playback ends.
type Player interface {
	Play(ctx context.Context, clip *entities.AudioClip) error
}
