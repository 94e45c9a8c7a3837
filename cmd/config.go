package cmd

import (
	"fmt"

	"github.com/brogergvhs/mangapdf/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective config and manage config profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, used, err := config.LoadMerged(config.Options{
			IgnoreConfig: flagIgnoreConfig,
			Debug:        flagDebug,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Loaded config from:\n  %s\n\n", used)
		cfg.Print()

		if flagIgnoreConfig {
			return nil
		}
		if label, err := config.DefaultStore().Current(); err == nil {
			if _, problems, err := config.DefaultStore().Load(label); err == nil {
				printProblems(label, problems)
			}
		}

		return nil
	},
}

func printProblems(label string, problems []config.Problem) {
	if len(problems) == 0 {
		return
	}

	fmt.Printf("\nConfig %q has %d problem(s):\n", label, len(problems))
	for _, p := range problems {
		fmt.Printf("  - %s\n", p)
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
}
