package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/domain/repositories"
)

type notice struct {
	title       string
	description string
	kind        entities.NotificationKind
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notice
	closed  bool
}

func (f *fakeNotifier) Enqueue(title, description string, kind entities.NotificationKind) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice{title: title, description: description, kind: kind})
	return title
}

func (f *fakeNotifier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeNotifier) snapshot() []notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notice(nil), f.notices...)
}

type fakeTranslator struct {
	mu       sync.Mutex
	requests []entities.TranslationRequest
	// gates holds a channel per text; Translate waits on it when present
	gates     map[string]chan struct{}
	translate func(req entities.TranslationRequest) (string, error)
}

func (f *fakeTranslator) Translate(ctx context.Context, req entities.TranslationRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	gate := f.gates[req.Text]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if f.translate != nil {
		return f.translate(req)
	}
	return "translated:" + req.Text, nil
}

func (f *fakeTranslator) calls() []entities.TranslationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entities.TranslationRequest(nil), f.requests...)
}

type fakeTTS struct {
	mu       sync.Mutex
	requests []entities.SynthesisRequest
	err      error
	// gate blocks Synthesize until closed when set
	gate chan struct{}
}

func (f *fakeTTS) Synthesize(ctx context.Context, req entities.SynthesisRequest) ([]byte, string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	gate, err := f.gate, f.err
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, "", err
	}
	return []byte(req.Text), "audio/mpeg", nil
}

func (f *fakeTTS) calls() []entities.SynthesisRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entities.SynthesisRequest(nil), f.requests...)
}

type fakePlayer struct {
	mu    sync.Mutex
	clips []*entities.AudioClip
	data  [][]byte
	err   error
	// release blocks Play until closed when set
	release chan struct{}
}

func (f *fakePlayer) Play(ctx context.Context, clip *entities.AudioClip) error {
	f.mu.Lock()
	f.clips = append(f.clips, clip)
	f.data = append(f.data, clip.Data())
	release := f.release
	f.mu.Unlock()

	if release != nil {
		<-release
	}
	return f.err
}

func (f *fakePlayer) played() []*entities.AudioClip {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entities.AudioClip(nil), f.clips...)
}

type fakeClipboard struct {
	mu       sync.Mutex
	lastText string
	writes   int
	err      error
}

func (f *fakeClipboard) WriteText(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.err != nil {
		return f.err
	}
	f.lastText = text
	return nil
}

type fakeRecognizer struct {
	mu       sync.Mutex
	configs  []entities.RecognitionConfig
	sessions []*fakeRecognitionSession
	startErr error
	// next configures the outcome of the next session
	next func() *fakeRecognitionSession
}

func (f *fakeRecognizer) Start(ctx context.Context, config entities.RecognitionConfig) (repositories.RecognitionSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, config)
	if f.startErr != nil {
		return nil, f.startErr
	}
	session := &fakeRecognitionSession{}
	if f.next != nil {
		session = f.next()
	}
	f.sessions = append(f.sessions, session)
	return session, nil
}

func (f *fakeRecognizer) started() []*fakeRecognitionSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeRecognitionSession(nil), f.sessions...)
}

func (f *fakeRecognizer) lastConfig() entities.RecognitionConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configs[len(f.configs)-1]
}

type fakeRecognitionSession struct {
	transcript string
	err        error
	streamErr  error
	// gate blocks End until closed when set
	gate chan struct{}
	// done stands in for the recognizer ending the utterance itself
	done chan struct{}

	mu       sync.Mutex
	received int
	closed   bool
}

func (f *fakeRecognitionSession) Stream(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.streamErr != nil {
		return f.streamErr
	}
	f.received += len(data)
	return nil
}

func (f *fakeRecognitionSession) End() (string, error) {
	if f.gate != nil {
		<-f.gate
	}
	return f.transcript, f.err
}

func (f *fakeRecognitionSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeRecognitionSession) Done() <-chan struct{} {
	return f.done
}

func (f *fakeRecognitionSession) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeEventSink struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (f *fakeEventSink) StateChanged(snapshot Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snapshot)
}

func (f *fakeEventSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

func (f *fakeEventSink) all() []Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Snapshot(nil), f.snapshots...)
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
