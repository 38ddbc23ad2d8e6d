package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/lisan/adapters/translation"
	"github.com/satriahrh/lisan/domain"
	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/domain/repositories"
	"github.com/satriahrh/lisan/internal/notification"
)

type coordinatorFixture struct {
	coordinator *Coordinator
	notifier    *fakeNotifier
	translator  *fakeTranslator
	tts         *fakeTTS
	player      *fakePlayer
	clipboard   *fakeClipboard
	recognizer  *fakeRecognizer
	events      *fakeEventSink
}

func newCoordinatorFixture(t *testing.T, capability func(*fakeRecognizer) Capability) *coordinatorFixture {
	t.Helper()

	f := &coordinatorFixture{
		notifier:   &fakeNotifier{},
		translator: &fakeTranslator{gates: map[string]chan struct{}{}},
		tts:        &fakeTTS{},
		player:     &fakePlayer{},
		clipboard:  &fakeClipboard{},
		recognizer: &fakeRecognizer{},
		events:     &fakeEventSink{},
	}
	if capability == nil {
		capability = func(r *fakeRecognizer) Capability { return NewCapability(r) }
	}

	coordinator, err := NewCoordinator(Dependencies{
		Catalog:     entities.DefaultCatalog(),
		Pair:        entities.LanguagePair{Source: "en", Target: "ur"},
		Notifier:    f.notifier,
		Translator:  f.translator,
		Synthesizer: f.tts,
		Player:      f.player,
		Capability:  capability(f.recognizer),
		Clipboard:   f.clipboard,
		Events:      f.events,
		Logger:      zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	f.coordinator = coordinator
	return f
}

func newMyMemoryCoordinator(t *testing.T, handler http.HandlerFunc) (*Coordinator, *notification.Service) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := zaptest.NewLogger(t)
	notifications := notification.NewService(logger, notification.WithTTL(time.Minute))
	t.Cleanup(notifications.Close)

	coordinator, err := NewCoordinator(Dependencies{
		Catalog:     entities.DefaultCatalog(),
		Pair:        entities.LanguagePair{Source: "en", Target: "ur"},
		Notifier:    notifications,
		Translator:  translation.NewMyMemoryTranslator(translation.MyMemoryConfig{APIBaseURL: server.URL}, logger),
		Synthesizer: &fakeTTS{},
		Player:      &fakePlayer{},
		Capability:  Unsupported(),
		Clipboard:   &fakeClipboard{},
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	return coordinator, notifications
}

func TestCoordinatorTranslateWellFormedResponse(t *testing.T) {
	t.Parallel()

	coordinator, notifications := newMyMemoryCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("langpair") != "en|ur" || r.URL.Query().Get("q") != "hello" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"responseData":{"translatedText":"ہیلو"}}`))
	})

	coordinator.SetSourceText("hello")
	if err := coordinator.Translate(context.Background()); err != nil {
		t.Fatalf("translate: %v", err)
	}

	snapshot := coordinator.Snapshot()
	if snapshot.ResultText != "ہیلو" {
		t.Fatalf("expected translated result, got %q", snapshot.ResultText)
	}
	if snapshot.IsTranslating {
		t.Fatalf("expected isTranslating false")
	}

	queued := notifications.Snapshot()
	if len(queued) != 1 || queued[0].Kind != entities.NotificationSuccess {
		t.Fatalf("expected one success notification, got %+v", queued)
	}
}

func TestCoordinatorTranslateMalformedResponse(t *testing.T) {
	t.Parallel()

	coordinator, notifications := newMyMemoryCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	coordinator.SetSourceText("hello")
	coordinator.update(func() { coordinator.state.ApplyResult("earlier", coordinator.state.Pair, "پہلے") })
	coordinator.Translate(context.Background())

	snapshot := coordinator.Snapshot()
	if snapshot.ResultText != "پہلے" {
		t.Fatalf("expected result to stay unchanged, got %q", snapshot.ResultText)
	}
	if snapshot.IsTranslating {
		t.Fatalf("expected isTranslating false")
	}

	queued := notifications.Snapshot()
	if len(queued) != 1 || queued[0].Kind != entities.NotificationError || queued[0].Title != "Translation Error" {
		t.Fatalf("expected one error notification, got %+v", queued)
	}
}

func TestCoordinatorTranslateBlankIsNoop(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "   ", "\n\t"} {
		f := newCoordinatorFixture(t, nil)
		before := f.events.count()

		if err := f.coordinator.TranslateText(context.Background(), text, "en", "ur"); err != nil {
			t.Fatalf("translate %q: %v", text, err)
		}

		if len(f.translator.calls()) != 0 {
			t.Fatalf("expected no request for %q", text)
		}
		if len(f.notifier.snapshot()) != 0 {
			t.Fatalf("expected no notification for %q", text)
		}
		if f.events.count() != before {
			t.Fatalf("expected no state change for %q", text)
		}
	}
}

func TestCoordinatorTranslateSuccessOrFailureNeverBoth(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		err     error
		kind    entities.NotificationKind
		changed bool
	}{
		{name: "success", kind: entities.NotificationSuccess, changed: true},
		{name: "network", err: domain.ErrNetworkFailure, kind: entities.NotificationError},
		{name: "malformed", err: domain.ErrMalformedResponse, kind: entities.NotificationError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCoordinatorFixture(t, nil)
			f.translator.translate = func(req entities.TranslationRequest) (string, error) {
				if tc.err != nil {
					return "", tc.err
				}
				return "شکریہ", nil
			}

			f.coordinator.TranslateText(context.Background(), "thank you", "en", "ur")

			notices := f.notifier.snapshot()
			if len(notices) != 1 || notices[0].kind != tc.kind {
				t.Fatalf("expected exactly one %s notification, got %+v", tc.kind, notices)
			}
			if changed := f.coordinator.Snapshot().ResultText == "شکریہ"; changed != tc.changed {
				t.Fatalf("result changed = %v, want %v", changed, tc.changed)
			}
		})
	}
}

func TestCoordinatorIsTranslatingDuringRequest(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)
	gate := make(chan struct{})
	f.translator.gates["hello"] = gate

	done := make(chan struct{})
	go func() {
		f.coordinator.TranslateText(context.Background(), "hello", "en", "ur")
		close(done)
	}()

	eventually(t, "translation in flight", func() bool { return f.coordinator.Snapshot().IsTranslating })
	close(gate)
	<-done

	if f.coordinator.Snapshot().IsTranslating {
		t.Fatalf("expected isTranslating to be released")
	}
}

func TestCoordinatorNewestRequestWins(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)
	slow := make(chan struct{})
	f.translator.gates["first"] = slow

	firstDone := make(chan struct{})
	go func() {
		f.coordinator.TranslateText(context.Background(), "first", "en", "ur")
		close(firstDone)
	}()
	eventually(t, "first request", func() bool { return len(f.translator.calls()) == 1 })

	f.coordinator.TranslateText(context.Background(), "second", "en", "ur")
	if !f.coordinator.Snapshot().IsTranslating {
		t.Fatalf("expected first request to keep isTranslating set")
	}

	close(slow)
	<-firstDone

	snapshot := f.coordinator.Snapshot()
	if snapshot.ResultText != "translated:second" {
		t.Fatalf("expected newest result, got %q", snapshot.ResultText)
	}
	if snapshot.IsTranslating {
		t.Fatalf("expected isTranslating false after both requests")
	}
	if notices := f.notifier.snapshot(); len(notices) != 1 {
		t.Fatalf("expected the superseded outcome to stay silent, got %+v", notices)
	}
}

func TestCoordinatorMarksResultStale(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)
	gate := make(chan struct{})
	f.translator.gates["new text"] = gate

	f.coordinator.TranslateText(context.Background(), "old text", "en", "ur")

	done := make(chan struct{})
	go func() {
		f.coordinator.TranslateText(context.Background(), "new text", "en", "ur")
		close(done)
	}()

	eventually(t, "stale flag", func() bool { return f.coordinator.Snapshot().ResultStale })
	close(gate)
	<-done

	if f.coordinator.Snapshot().ResultStale {
		t.Fatalf("expected stale flag cleared after apply")
	}
}

func TestCoordinatorRejectsUnknownLanguage(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)
	if err := f.coordinator.SetSourceLanguage("fr"); err == nil {
		t.Fatalf("expected unknown source to fail")
	}
	if err := f.coordinator.SetTargetLanguage("xx"); err == nil {
		t.Fatalf("expected unknown target to fail")
	}
	if err := f.coordinator.TranslateText(context.Background(), "hi", "en", "fr"); err == nil {
		t.Fatalf("expected unknown pair to fail")
	}
	if err := f.coordinator.SetTargetLanguage("sd"); err != nil {
		t.Fatalf("set target: %v", err)
	}
	if f.coordinator.Snapshot().Pair.Target != "sd" {
		t.Fatalf("expected target to change")
	}
}

func TestCoordinatorSwapIsSelfInverse(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)
	f.coordinator.SetSourceText("hello")
	f.coordinator.TranslateText(context.Background(), "hello", "en", "ur")
	before := f.coordinator.Snapshot()

	f.coordinator.Swap()
	swapped := f.coordinator.Snapshot()
	if swapped.Pair.Source != "ur" || swapped.SourceText != "translated:hello" || swapped.ResultText != "hello" {
		t.Fatalf("unexpected swapped state %+v", swapped)
	}

	f.coordinator.Swap()
	if after := f.coordinator.Snapshot(); after != before {
		t.Fatalf("expected double swap to restore %+v, got %+v", before, after)
	}
}

func TestCoordinatorListeningUnsupported(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, func(*fakeRecognizer) Capability { return Unsupported() })

	f.coordinator.SetSourceText("keep me")
	if err := f.coordinator.StartListening(context.Background(), AudioFormat{SampleRate: 16000}); err != nil {
		t.Fatalf("start listening: %v", err)
	}

	notices := f.notifier.snapshot()
	if len(notices) != 1 || notices[0].title != "Voice Recognition Not Supported" {
		t.Fatalf("expected one unsupported notification, got %+v", notices)
	}
	for _, snapshot := range f.events.all() {
		if snapshot.IsListening {
			t.Fatalf("isListening must never become true")
		}
	}
	if snapshot := f.coordinator.Snapshot(); snapshot.IsListening || snapshot.CanListen || snapshot.SourceText != "keep me" {
		t.Fatalf("unexpected state %+v", snapshot)
	}
}

func TestCoordinatorListeningResultTranslatesWithStartPair(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)
	gate := make(chan struct{})
	f.recognizer.next = func() *fakeRecognitionSession {
		return &fakeRecognitionSession{transcript: "good morning", gate: gate}
	}

	f.coordinator.SetSourceText("old input")
	f.coordinator.StartListening(context.Background(), AudioFormat{SampleRate: 16000, Encoding: "LINEAR16"})

	snapshot := f.coordinator.Snapshot()
	if !snapshot.IsListening || snapshot.SourceText != "" {
		t.Fatalf("expected listening with cleared source, got %+v", snapshot)
	}
	if config := f.recognizer.lastConfig(); config.Language != "en-US" || config.SampleRate != 16000 {
		t.Fatalf("unexpected recognition config %+v", config)
	}

	f.coordinator.FeedAudio([]byte("pcm"))
	f.coordinator.EndUtterance()
	// language changes after start do not affect the session
	f.coordinator.SetTargetLanguage("sd")
	close(gate)

	eventually(t, "translation of transcript", func() bool {
		return f.coordinator.Snapshot().ResultText == "translated:good morning"
	})

	calls := f.translator.calls()
	if len(calls) != 1 || calls[0].From != "en" || calls[0].To != "ur" {
		t.Fatalf("expected translation with the start pair, got %+v", calls)
	}
	snapshot = f.coordinator.Snapshot()
	if snapshot.IsListening || snapshot.SourceText != "good morning" {
		t.Fatalf("unexpected state after result %+v", snapshot)
	}
}

func TestCoordinatorListeningError(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)
	f.recognizer.next = func() *fakeRecognitionSession {
		return &fakeRecognitionSession{err: fmt.Errorf("%w: aborted", domain.ErrRecognitionFailure)}
	}

	f.coordinator.StartListening(context.Background(), AudioFormat{SampleRate: 16000})
	f.coordinator.FeedAudio([]byte("pcm"))
	f.coordinator.EndUtterance()

	eventually(t, "listening reset", func() bool { return !f.coordinator.Snapshot().IsListening })
	eventually(t, "error notification", func() bool { return len(f.notifier.snapshot()) == 1 })
	if notice := f.notifier.snapshot()[0]; notice.title != "Voice Recognition Error" || notice.kind != entities.NotificationError {
		t.Fatalf("unexpected notification %+v", notice)
	}
	if len(f.translator.calls()) != 0 {
		t.Fatalf("expected no translation after error")
	}
}

func TestCoordinatorListeningEndWithoutSpeech(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)
	f.coordinator.StartListening(context.Background(), AudioFormat{SampleRate: 16000})
	f.coordinator.EndUtterance()

	eventually(t, "listening reset", func() bool { return !f.coordinator.Snapshot().IsListening })
	if len(f.notifier.snapshot()) != 0 || len(f.translator.calls()) != 0 {
		t.Fatalf("expected a silent end")
	}
}

func TestCoordinatorStopListening(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)
	gate := make(chan struct{})
	f.recognizer.next = func() *fakeRecognitionSession {
		return &fakeRecognitionSession{transcript: "discarded", gate: gate}
	}

	f.coordinator.StartListening(context.Background(), AudioFormat{SampleRate: 16000})
	f.coordinator.FeedAudio([]byte("pcm"))
	f.coordinator.EndUtterance()
	f.coordinator.StopListening()

	if f.coordinator.Snapshot().IsListening {
		t.Fatalf("expected listening to stop immediately")
	}
	close(gate)
	time.Sleep(50 * time.Millisecond)

	if snapshot := f.coordinator.Snapshot(); snapshot.SourceText != "" || len(f.translator.calls()) != 0 {
		t.Fatalf("expected cancelled session to produce nothing, got %+v", snapshot)
	}
}

func TestCoordinatorStartListeningFailure(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)
	f.recognizer.startErr = fmt.Errorf("%w: unsupported encoding", domain.ErrRecognitionFailure)

	f.coordinator.StartListening(context.Background(), AudioFormat{Encoding: "MP3"})

	if f.coordinator.Snapshot().IsListening {
		t.Fatalf("expected listening false after failed start")
	}
	if notices := f.notifier.snapshot(); len(notices) != 1 || notices[0].title != "Voice Recognition Error" {
		t.Fatalf("expected one recognition error, got %+v", notices)
	}
}

func TestCoordinatorSpeakUsesAreaLanguage(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)
	f.coordinator.SetSourceText("hello")
	f.coordinator.TranslateText(context.Background(), "hello", "en", "ur")

	if err := f.coordinator.Speak(context.Background(), entities.AreaSource); err != nil {
		t.Fatalf("speak source: %v", err)
	}
	if err := f.coordinator.Speak(context.Background(), entities.AreaResult); err != nil {
		t.Fatalf("speak result: %v", err)
	}
	f.coordinator.synthesis.Close()

	calls := f.tts.calls()
	if len(calls) != 2 || calls[0].Language != "en" || calls[1].Language != "ur" || calls[1].Text != "translated:hello" {
		t.Fatalf("unexpected synthesis calls %+v", calls)
	}
	for _, clip := range f.player.played() {
		if !clip.Released() {
			t.Fatalf("expected clip %s to be released after playback", clip.ID)
		}
	}
}

func TestCoordinatorSpeakFailureAndEmpty(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)
	f.coordinator.Speak(context.Background(), entities.AreaResult)
	if len(f.tts.calls()) != 0 {
		t.Fatalf("expected empty text to be a no-op")
	}

	f.tts.err = fmt.Errorf("%w: status 401", domain.ErrNetworkFailure)
	f.coordinator.SetSourceText("hello")
	f.coordinator.Speak(context.Background(), entities.AreaSource)

	if notices := f.notifier.snapshot(); len(notices) != 1 || notices[0].title != "Voice Error" {
		t.Fatalf("expected one voice error, got %+v", notices)
	}
	if len(f.player.played()) != 0 {
		t.Fatalf("expected no playback on failure")
	}

	if err := f.coordinator.Speak(context.Background(), "sidebar"); !errors.Is(err, ErrUnknownArea) {
		t.Fatalf("expected unknown area, got %v", err)
	}
}

func TestCoordinatorSpeakConcurrentPlayback(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)
	f.player.release = make(chan struct{})
	f.coordinator.SetSourceText("hello")

	f.coordinator.Speak(context.Background(), entities.AreaSource)
	f.coordinator.Speak(context.Background(), entities.AreaSource)

	eventually(t, "two clips playing", func() bool { return len(f.player.played()) == 2 })
	close(f.player.release)
	f.coordinator.synthesis.Close()
}

func TestCoordinatorCopy(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)

	f.coordinator.Copy(context.Background(), entities.AreaSource)
	if f.clipboard.writes != 0 || len(f.notifier.snapshot()) != 0 {
		t.Fatalf("expected empty copy to be a no-op")
	}

	f.coordinator.SetSourceText("hello")
	f.coordinator.TranslateText(context.Background(), "hello", "en", "ur")
	f.coordinator.Copy(context.Background(), entities.AreaResult)

	if f.clipboard.lastText != "translated:hello" {
		t.Fatalf("unexpected clipboard text %q", f.clipboard.lastText)
	}
	notices := f.notifier.snapshot()
	last := notices[len(notices)-1]
	if last.title != "Copied!" || last.description != "Translation text copied to clipboard." {
		t.Fatalf("unexpected notification %+v", last)
	}

	f.clipboard.err = domain.ErrClipboardFailure
	f.coordinator.Copy(context.Background(), entities.AreaSource)
	notices = f.notifier.snapshot()
	if last := notices[len(notices)-1]; last.title != "Copy Failed" || last.kind != entities.NotificationError {
		t.Fatalf("unexpected notification %+v", last)
	}
}

func TestCoordinatorPublishesState(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)
	f.coordinator.SetSourceText("hello")
	f.coordinator.Translate(context.Background())

	snapshots := f.events.all()
	if len(snapshots) < 3 {
		t.Fatalf("expected text, start and finish updates, got %d", len(snapshots))
	}
	if !snapshots[1].IsTranslating {
		t.Fatalf("expected in-flight snapshot")
	}
	if final := snapshots[len(snapshots)-1]; final.IsTranslating || final.ResultText != "translated:hello" {
		t.Fatalf("unexpected final snapshot %+v", final)
	}
}

func TestCoordinatorClose(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t, nil)
	f.coordinator.StartListening(context.Background(), AudioFormat{SampleRate: 16000})
	f.coordinator.Close()

	if !f.notifier.closed {
		t.Fatalf("expected notifier to be closed")
	}
	if !f.recognizer.started()[0].isClosed() {
		t.Fatalf("expected recognition session to be closed")
	}
}

func TestNewCoordinatorRequiresNotifier(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	_, err := NewCoordinator(Dependencies{
		Catalog:     entities.DefaultCatalog(),
		Pair:        entities.LanguagePair{Source: "en", Target: "ur"},
		Translator:  &fakeTranslator{},
		Synthesizer: &fakeTTS{},
		Player:      &fakePlayer{},
		Clipboard:   &fakeClipboard{},
		Events:      sinkFunc(func(Snapshot) { calls.Add(1) }),
	})
	if err == nil {
		t.Fatalf("expected missing notifier to fail")
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no events")
	}
}

type sinkFunc func(Snapshot)

func (f sinkFunc) StateChanged(s Snapshot) { f(s) }

var _ repositories.Player = (*fakePlayer)(nil)
