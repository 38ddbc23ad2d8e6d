package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/satriahrh/lisan/internal/providers"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voices of the synthesis backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		set, err := providers.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer set.Close()

		if set.Voices == nil {
			return fmt.Errorf("TTS provider %q cannot list voices", cfg.Providers.TTS)
		}
		voices, err := set.Voices.Voices(ctx)
		if err != nil {
			printError("could not list voices", err)
			return err
		}
		for _, voice := range voices {
			fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", voice.ID, voice.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(voicesCmd)
}
