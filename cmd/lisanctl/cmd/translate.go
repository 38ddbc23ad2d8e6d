package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satriahrh/lisan/domain/entities"
)

var (
	translateFrom string
	translateTo   string
	translateCopy bool
)

var translateCmd = &cobra.Command{
	Use:   "translate <text>",
	Short: "Translate text with the configured provider",
	Long: `Translates text from the source to the target language.

Examples:
  lisanctl translate hello
  lisanctl translate --from ur --to en "شکریہ"
  lisanctl translate --copy "good morning"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVar(&translateFrom, "from", "", "Source language (default: DEFAULT_SOURCE_LANG)")
	translateCmd.Flags().StringVar(&translateTo, "to", "", "Target language (default: DEFAULT_TARGET_LANG)")
	translateCmd.Flags().BoolVar(&translateCopy, "copy", false, "Copy the translation to the host clipboard")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	pair := resolvePair(cfg, translateFrom, translateTo)
	session, err := newLocalSession(ctx, cfg, pair, "", logger)
	if err != nil {
		return err
	}
	defer session.Close()

	session.coordinator.SetSourceText(strings.Join(args, " "))
	if err := session.coordinator.Translate(ctx); err != nil {
		return err
	}

	snapshot := session.coordinator.Snapshot()
	if snapshot.ResultText == "" || snapshot.ResultStale {
		return errors.New("translation failed")
	}
	fmt.Fprintln(cmd.OutOrStdout(), snapshot.ResultText)

	if translateCopy {
		if err := session.coordinator.Copy(ctx, entities.AreaResult); err != nil {
			return err
		}
		return session.pendingError()
	}
	return nil
}
