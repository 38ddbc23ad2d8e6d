package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/satriahrh/lisan/usecase"
)

var (
	listenFrom       string
	listenTo         string
	listenSampleRate int
	listenEncoding   string
	listenChunkSize  int
)

var listenCmd = &cobra.Command{
	Use:   "listen <audio-file>",
	Short: "Recognize speech from an audio file and translate it",
	Long: `Streams an audio file to the configured speech recognizer as one
utterance, then translates the transcript.

Examples:
  lisanctl listen hello.raw
  lisanctl listen --encoding FLAC --sample-rate 44100 greeting.flac`,
	Args: cobra.ExactArgs(1),
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().StringVar(&listenFrom, "from", "", "Spoken language (default: DEFAULT_SOURCE_LANG)")
	listenCmd.Flags().StringVar(&listenTo, "to", "", "Target language (default: DEFAULT_TARGET_LANG)")
	listenCmd.Flags().IntVar(&listenSampleRate, "sample-rate", 16000, "Sample rate in Hz")
	listenCmd.Flags().StringVar(&listenEncoding, "encoding", "LINEAR16", "Audio encoding")
	listenCmd.Flags().IntVar(&listenChunkSize, "chunk-size", 4096, "Bytes per streamed chunk")
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	if listenChunkSize <= 0 {
		return errors.New("chunk-size must be positive")
	}

	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	pair := resolvePair(cfg, listenFrom, listenTo)
	session, err := newLocalSession(ctx, cfg, pair, "", logger)
	if err != nil {
		return err
	}
	defer session.Close()

	coordinator := session.coordinator
	if err := coordinator.StartListening(ctx, usecase.AudioFormat{
		SampleRate: listenSampleRate,
		Encoding:   listenEncoding,
	}); err != nil {
		return err
	}
	if !coordinator.Snapshot().IsListening {
		return errors.New("speech recognition could not start")
	}

	buf := make([]byte, listenChunkSize)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			feedErr := coordinator.FeedAudio(buf[:n])
			if errors.Is(feedErr, usecase.ErrNotListening) {
				// the recognizer already closed the utterance
				break
			}
			if feedErr != nil {
				return feedErr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			coordinator.StopListening()
			return err
		}
	}
	if err := coordinator.EndUtterance(); err != nil && !errors.Is(err, usecase.ErrNotListening) {
		return err
	}

	if err := waitUntilIdle(ctx, coordinator); err != nil {
		return err
	}

	snapshot := coordinator.Snapshot()
	if snapshot.SourceText == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "No speech recognized")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", snapshot.Pair.Source, snapshot.SourceText)

	// A recognized utterance is always followed by one translation outcome
	n, err := session.waitFor(ctx, "Success", "Translation Error")
	if err != nil {
		return err
	}
	if n.Title != "Success" {
		return errors.New(n.Description)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", snapshot.Pair.Target, coordinator.Snapshot().ResultText)
	return nil
}

// waitUntilIdle polls until the recognizer has delivered its outcome
func waitUntilIdle(ctx context.Context, coordinator *usecase.Coordinator) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !coordinator.Snapshot().IsListening {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			coordinator.StopListening()
			return ctx.Err()
		}
	}
}
