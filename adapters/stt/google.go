package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain"
	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/domain/repositories"
)

// streamOpener opens one bidirectional recognition stream
type streamOpener func(ctx context.Context) (speechpb.Speech_StreamingRecognizeClient, error)

// GoogleSpeechRecognizer implements SpeechRecognizer for Google Cloud.
// One client is shared by every session.
type GoogleSpeechRecognizer struct {
	client *speech.Client
	open   streamOpener
	logger *zap.Logger
}

var _ repositories.SpeechRecognizer = (*GoogleSpeechRecognizer)(nil)

// NewGoogleSpeechRecognizer dials Google Cloud Speech using application default credentials
func NewGoogleSpeechRecognizer(ctx context.Context, logger *zap.Logger) (*GoogleSpeechRecognizer, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create speech client: %v", domain.ErrCapabilityUnavailable, err)
	}

	return &GoogleSpeechRecognizer{
		client: client,
		open: func(ctx context.Context) (speechpb.Speech_StreamingRecognizeClient, error) {
			return client.StreamingRecognize(ctx)
		},
		logger: logger,
	}, nil
}

func newGoogleSpeechRecognizer(open streamOpener, logger *zap.Logger) *GoogleSpeechRecognizer {
	return &GoogleSpeechRecognizer{open: open, logger: logger}
}

// Close releases the underlying client
func (g *GoogleSpeechRecognizer) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Start opens a single-utterance streaming session and sends its configuration
func (g *GoogleSpeechRecognizer) Start(ctx context.Context, config entities.RecognitionConfig) (repositories.RecognitionSession, error) {
	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRecognitionFailure, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	stream, err := g.open(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: failed to create streaming recognize: %v", domain.ErrRecognitionFailure, err)
	}

	// Configure recognition settings
	recognitionConfig := &speechpb.RecognitionConfig{
		Encoding:                   encoding,
		SampleRateHertz:            int32(config.SampleRate),
		LanguageCode:               config.Language,
		EnableAutomaticPunctuation: true,
	}

	// Send initial configuration
	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config:          recognitionConfig,
				InterimResults:  config.InterimResults,
				SingleUtterance: !config.Continuous,
			},
		},
	}); err != nil {
		stream.CloseSend()
		cancel()
		return nil, fmt.Errorf("%w: failed to send streaming config: %v", domain.ErrRecognitionFailure, err)
	}

	g.logger.Debug("Opened recognition stream",
		zap.String("language", config.Language),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding))

	session := &googleRecognitionSession{
		stream: stream,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go session.receiveResults()

	return session, nil
}

// googleRecognitionSession receives the audio of one utterance
type googleRecognitionSession struct {
	stream speechpb.Speech_StreamingRecognizeClient
	ctx    context.Context
	cancel context.CancelFunc

	// mu serializes Send and CloseSend on the stream
	mu            sync.Mutex
	audioReceived bool
	ended         bool
	sendClosed    bool

	done       chan struct{}
	transcript string
	err        error
}

func (g *googleRecognitionSession) Stream(data []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ended {
		return fmt.Errorf("%w: stream already ended", domain.ErrRecognitionFailure)
	}
	if g.sendClosed {
		return domain.ErrUtteranceEnded
	}
	if len(data) == 0 {
		return nil
	}
	g.audioReceived = true

	// Send audio data to Google
	if err := g.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: data,
		},
	}); err != nil {
		if errors.Is(err, io.EOF) {
			// the server closed the stream, the real status comes from Recv
			g.sendClosed = true
			return domain.ErrUtteranceEnded
		}
		return fmt.Errorf("%w: failed to send audio data: %v", domain.ErrRecognitionFailure, err)
	}
	return nil
}

func (g *googleRecognitionSession) End() (string, error) {
	g.mu.Lock()
	if g.ended {
		g.mu.Unlock()
		return "", fmt.Errorf("%w: stream already ended", domain.ErrRecognitionFailure)
	}
	g.ended = true
	audioReceived := g.audioReceived
	needCloseSend := !g.sendClosed
	g.sendClosed = true

	// Close the send stream to signal end of audio
	var closeErr error
	if audioReceived && needCloseSend {
		closeErr = g.stream.CloseSend()
	}
	g.mu.Unlock()
	defer g.cancel()

	// Nothing was said
	if !audioReceived {
		return "", nil
	}
	if closeErr != nil {
		return "", fmt.Errorf("%w: failed to close send stream: %v", domain.ErrRecognitionFailure, closeErr)
	}

	// Wait for final result or error
	select {
	case <-g.ctx.Done():
		return "", fmt.Errorf("%w: cancelled while waiting for result: %v", domain.ErrRecognitionFailure, g.ctx.Err())
	case <-g.done:
	}

	if g.err != nil {
		return "", g.err
	}
	return g.transcript, nil
}

func (g *googleRecognitionSession) Close() error {
	g.mu.Lock()
	g.ended = true
	g.mu.Unlock()

	g.cancel()
	return nil
}

// Done is closed once the server has finished the stream
func (g *googleRecognitionSession) Done() <-chan struct{} {
	return g.done
}

// halfClose stops sending audio after the server detected the end of speech
func (g *googleRecognitionSession) halfClose() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendClosed || g.ended {
		return
	}
	g.sendClosed = true
	if err := g.stream.CloseSend(); err != nil {
		g.err = fmt.Errorf("%w: failed to close send stream: %v", domain.ErrRecognitionFailure, err)
	}
}

func (g *googleRecognitionSession) receiveResults() {
	defer close(g.done)

	var finalTranscription string
	for {
		resp, err := g.stream.Recv()
		if errors.Is(err, io.EOF) {
			// Stream ended normally
			g.transcript = finalTranscription
			return
		}
		if err != nil {
			g.err = fmt.Errorf("%w: failed to receive response: %v", domain.ErrRecognitionFailure, err)
			return
		}

		if resp.GetSpeechEventType() == speechpb.StreamingRecognizeResponse_END_OF_SINGLE_UTTERANCE {
			g.halfClose()
		}

		// Process results - only consider final ones
		for _, result := range resp.GetResults() {
			if result.IsFinal && len(result.Alternatives) > 0 {
				// Take the best alternative
				finalTranscription += result.Alternatives[0].Transcript
			}
		}
	}
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16", "":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "AMR":
		return speechpb.RecognitionConfig_AMR, nil
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
