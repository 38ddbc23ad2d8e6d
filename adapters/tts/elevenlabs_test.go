package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/lisan/domain"
	"github.com/satriahrh/lisan/domain/entities"
)

func newTestTTS(t *testing.T, baseURL string) *ElevenLabsTTS {
	t.Helper()
	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "test-api-key", APIBaseURL: baseURL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}
	return tts
}

func TestNewElevenLabsTTS(t *testing.T) {
	logger := zaptest.NewLogger(t)

	// Test without API key
	os.Unsetenv("ELEVEN_LABS_API_KEY")
	config := NewElevenLabsConfigFromEnv()
	_, err := NewElevenLabsTTS(config, logger)
	if err == nil {
		t.Error("Expected error when API key is not set")
	}

	// Test with API key
	t.Setenv("ELEVEN_LABS_API_KEY", "test-api-key")

	config = NewElevenLabsConfigFromEnv()
	tts, err := NewElevenLabsTTS(config, logger)
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	if tts.apiKey != "test-api-key" {
		t.Errorf("Expected API key 'test-api-key', got '%s'", tts.apiKey)
	}
	if tts.voiceID != defaultVoiceID {
		t.Errorf("Expected default voice ID '%s', got '%s'", defaultVoiceID, tts.voiceID)
	}
	if tts.modelID != defaultModelID {
		t.Errorf("Expected default model ID '%s', got '%s'", defaultModelID, tts.modelID)
	}
	if tts.stability != defaultStability || tts.clarity != defaultClarity {
		t.Errorf("Expected default voice settings, got %f/%f", tts.stability, tts.clarity)
	}
}

func TestValidateElevenLabsConfig(t *testing.T) {
	cases := map[string]ElevenLabsConfig{
		"missing key":       {},
		"stability too big": {APIKey: "k", Stability: 1.5},
		"negative clarity":  {APIKey: "k", Clarity: -0.1},
	}
	for name, config := range cases {
		t.Run(name, func(t *testing.T) {
			if err := ValidateElevenLabsConfig(config); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	if err := ValidateElevenLabsConfig(ElevenLabsConfig{APIKey: "k", Stability: 0.3, Clarity: 1}); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestElevenLabsTTS_Synthesize(t *testing.T) {
	audio := []byte{0x49, 0x44, 0x33, 0x04, 0x00}
	var got ElevenLabsRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/text-to-speech/"+defaultVoiceID {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "test-api-key" {
			t.Errorf("Expected api key header, got %q", r.Header.Get("xi-api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(audio)
	}))
	defer server.Close()

	tts := newTestTTS(t, server.URL)
	data, contentType, err := tts.Synthesize(context.Background(), entities.SynthesisRequest{Text: "ہیلو", Language: "ur"})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if string(data) != string(audio) {
		t.Errorf("Expected %v, got %v", audio, data)
	}
	if contentType != "audio/mpeg" {
		t.Errorf("Expected audio/mpeg, got %s", contentType)
	}
	if got.Text != "ہیلو" || got.ModelID != defaultModelID {
		t.Errorf("Unexpected request body %+v", got)
	}
	if got.VoiceSettings.Stability != 0.5 || got.VoiceSettings.SimilarityBoost != 0.75 {
		t.Errorf("Unexpected voice settings %+v", got.VoiceSettings)
	}
}

func TestElevenLabsTTS_SynthesizeErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota exceeded"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	tts := newTestTTS(t, server.URL)
	_, _, err := tts.Synthesize(context.Background(), entities.SynthesisRequest{Text: "hello"})
	if !errors.Is(err, domain.ErrNetworkFailure) {
		t.Errorf("Expected network failure, got %v", err)
	}
}

func TestElevenLabsTTS_SynthesizeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	tts := newTestTTS(t, url)
	_, _, err := tts.Synthesize(context.Background(), entities.SynthesisRequest{Text: "hello"})
	if !errors.Is(err, domain.ErrNetworkFailure) {
		t.Errorf("Expected network failure, got %v", err)
	}
}

func TestElevenLabsTTS_SynthesizeEmptyText(t *testing.T) {
	tts := newTestTTS(t, "http://127.0.0.1:1")
	_, _, err := tts.Synthesize(context.Background(), entities.SynthesisRequest{Text: "  "})
	if !errors.Is(err, domain.ErrEmptyText) {
		t.Errorf("Expected empty text error, got %v", err)
	}
}

func TestElevenLabsTTS_Voices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"voices":[{"voice_id":"abc","name":"Aisha","category":"premade","labels":{"accent":"pakistani"}}]}`))
	}))
	defer server.Close()

	tts := newTestTTS(t, server.URL)
	voices, err := tts.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices failed: %v", err)
	}
	if len(voices) != 1 || voices[0].ID != "abc" || voices[0].Labels["accent"] != "pakistani" {
		t.Errorf("Unexpected voices %+v", voices)
	}
}

func TestMockTextToSpeech(t *testing.T) {
	mock := NewMockTextToSpeech(zaptest.NewLogger(t))
	data, _, err := mock.Synthesize(context.Background(), entities.SynthesisRequest{Text: "hi"})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(data) != 200 {
		t.Errorf("Expected 200 bytes, got %d", len(data))
	}
	if _, _, err := mock.Synthesize(context.Background(), entities.SynthesisRequest{}); !errors.Is(err, domain.ErrEmptyText) {
		t.Errorf("Expected empty text error, got %v", err)
	}
}
