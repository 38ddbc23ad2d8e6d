package entities

import "sync"

// TextArea selects one of the two text areas of the UI
type TextArea string

const (
	AreaSource TextArea = "source"
	AreaResult TextArea = "result"
)

// Valid reports whether a is a known area
func (a TextArea) Valid() bool {
	return a == AreaSource || a == AreaResult
}

// TranslationRequest is the value handed to a translation backend
type TranslationRequest struct {
	Text string       `json:"text"`
	From LanguageCode `json:"from"`
	To   LanguageCode `json:"to"`
}

// SynthesisRequest is the value handed to a speech synthesis backend
type SynthesisRequest struct {
	Text     string       `json:"text"`
	Language LanguageCode `json:"language"`
}

// RecognitionConfig configures a single speech recognition session
type RecognitionConfig struct {
	Language       string `json:"language"` // recognition locale, e.g. "en-US"
	SampleRate     int    `json:"sample_rate"`
	Encoding       string `json:"encoding"`
	Continuous     bool   `json:"continuous"`
	InterimResults bool   `json:"interim_results"`
}

// AudioClip is a synthesized, playable audio resource. It is created once,
// played once and released when playback ends.
type AudioClip struct {
	ID          string
	ContentType string

	mu       sync.Mutex
	data     []byte
	released bool
}

// NewAudioClip wraps synthesized audio
func NewAudioClip(id, contentType string, data []byte) *AudioClip {
	return &AudioClip{ID: id, ContentType: contentType, data: data}
}

// Data returns the audio payload, or nil once the clip has been released
func (c *AudioClip) Data() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

// Size returns the payload length in bytes
func (c *AudioClip) Size() int {
	return len(c.Data())
}

// Release drops the payload. Safe to call more than once.
func (c *AudioClip) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.released = true
}

// Released reports whether Release has been called
func (c *AudioClip) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}
