package cmd

import (
	"fmt"

	"github.com/brogergvhs/mangapdf/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var configSwitchCmd = &cobra.Command{
	Use:   "switch [label]",
	Short: "Switch to a different configuration profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := config.DefaultStore()

		label := ""
		if len(args) == 1 {
			label = args[0]
		} else {
			picked, err := pickProfile(store)
			if err != nil {
				return err
			}
			label = picked
		}

		problems, err := store.Switch(label)
		if err != nil {
			return err
		}

		fmt.Println("Switched to:", label)
		printProblems(label, problems)
		return nil
	},
}

func pickProfile(store *config.Store) (string, error) {
	list, err := store.List()
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", fmt.Errorf("no configs available; run `mangapdf config init`")
	}

	items := make([]string, len(list))
	cursor := 0
	for i, p := range list {
		items[i] = p.Label
		if p.Active {
			items[i] += "  (active)"
			cursor = i
		}
	}

	prompt := promptui.Select{
		Label:     "Select config",
		Items:     items,
		CursorPos: cursor,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selection cancelled")
	}

	return list[idx].Label, nil
}

func init() {
	configCmd.AddCommand(configSwitchCmd)
}
