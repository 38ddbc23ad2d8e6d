package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/lisan/internal/config"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "lisanctl",
	Short: "Lisan translation toolkit",
	Long: `lisanctl drives the Lisan translation pipeline from the terminal.

Local commands use the providers configured in the environment
(TRANSLATION_PROVIDER, TTS_PROVIDER, STT_PROVIDER). The remote command
talks to a running lisan server over its websocket API.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// loadRuntime reads .env, the configuration and builds a logger
func loadRuntime() (config.Config, *zap.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return config.Config{}, nil, err
		}
	}
	return cfg, logger, nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
