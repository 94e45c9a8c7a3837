package cmd

import (
	"fmt"

	"github.com/brogergvhs/mangapdf/internal/config"

	"github.com/spf13/cobra"
)

var configResetCmd = &cobra.Command{
	Use:   "reset [label]",
	Short: "Overwrite the active or given config with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := config.DefaultStore()

		label, err := labelOrCurrent(store, args)
		if err != nil {
			return err
		}

		path, err := store.Reset(label)
		if err != nil {
			return err
		}

		fmt.Printf("Reset config %q: %s\n", label, path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configResetCmd)
}
