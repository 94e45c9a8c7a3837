package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/brogergvhs/mangapdf/internal/config"

	"github.com/spf13/cobra"
)

var configEditCmd = &cobra.Command{
	Use:   "edit [label]",
	Short: "Open the active or given config in $EDITOR and check it afterwards",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := config.DefaultStore()

		label, err := labelOrCurrent(store, args)
		if err != nil {
			return err
		}

		path, err := store.Lookup(label)
		if err != nil {
			return err
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		cmdExec := exec.Command(editor, path)
		cmdExec.Stdin = os.Stdin
		cmdExec.Stdout = os.Stdout
		cmdExec.Stderr = os.Stderr

		if err := cmdExec.Run(); err != nil {
			return fmt.Errorf("failed to open editor: %w", err)
		}

		_, problems, err := store.Load(label)
		if err != nil {
			return fmt.Errorf("saved config does not load: %w", err)
		}
		printProblems(label, problems)

		return nil
	},
}

func init() {
	configCmd.AddCommand(configEditCmd)
}
