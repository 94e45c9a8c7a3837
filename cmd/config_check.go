package cmd

import (
	"fmt"

	"github.com/brogergvhs/mangapdf/internal/config"

	"github.com/spf13/cobra"
)

var configCheckCmd = &cobra.Command{
	Use:   "check [label]",
	Short: "Report unknown keys and out of range values in a config",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := config.DefaultStore()

		label, err := labelOrCurrent(store, args)
		if err != nil {
			return err
		}

		_, problems, err := store.Load(label)
		if err != nil {
			return err
		}

		if len(problems) == 0 {
			fmt.Printf("Config %q is valid.\n", label)
			return nil
		}

		printProblems(label, problems)
		return fmt.Errorf("config %q has %d problem(s)", label, len(problems))
	},
}

// labelOrCurrent returns args[0] or the active label.
func labelOrCurrent(store *config.Store, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	label, err := store.Current()
	if err != nil {
		return "", fmt.Errorf("no label given and %w; run `mangapdf config init`", err)
	}

	return label, nil
}

func init() {
	configCmd.AddCommand(configCheckCmd)
}
