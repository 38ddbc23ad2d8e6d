package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the configured languages",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadRuntime()
		if err != nil {
			return err
		}

		pair := cfg.Languages.DefaultPair
		for _, lang := range cfg.Languages.Catalog.Languages() {
			marker := " "
			switch lang.Code {
			case pair.Source:
				marker = ">"
			case pair.Target:
				marker = "<"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-4s %-12s %s\n", marker, lang.Code, lang.Name, lang.Locale)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
