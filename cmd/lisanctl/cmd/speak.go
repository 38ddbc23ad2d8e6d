package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/satriahrh/lisan/domain/entities"
)

var (
	speakLang string
	speakOut  string
)

var speakCmd = &cobra.Command{
	Use:   "speak <text>",
	Short: "Synthesize speech into an audio file",
	Long: `Synthesizes text with the configured TTS provider and writes the
audio to a file.

Examples:
  lisanctl speak hello
  lisanctl speak --lang ur --out greeting.mp3 "ہیلو"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSpeak,
}

func init() {
	rootCmd.AddCommand(speakCmd)

	speakCmd.Flags().StringVar(&speakLang, "lang", "", "Language of the text (default: DEFAULT_SOURCE_LANG)")
	speakCmd.Flags().StringVarP(&speakOut, "out", "o", "speech.mp3", "Output file")
}

func runSpeak(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	pair := resolvePair(cfg, speakLang, "")
	session, err := newLocalSession(ctx, cfg, pair, speakOut, logger)
	if err != nil {
		return err
	}

	session.coordinator.SetSourceText(strings.Join(args, " "))
	if err := session.coordinator.Speak(ctx, entities.AreaSource); err != nil {
		session.Close()
		return err
	}
	// Close waits for the playback to finish writing the file
	session.Close()

	return session.pendingError()
}
