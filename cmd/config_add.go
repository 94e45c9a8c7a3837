package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/brogergvhs/mangapdf/internal/config"

	"github.com/spf13/cobra"
)

var configAddFrom string

var configAddCmd = &cobra.Command{
	Use:   "add [label]",
	Short: "Create a new config from the defaults or from an existing file (--from)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string
		if len(args) == 1 {
			label = args[0]
		} else {
			reader := bufio.NewReader(os.Stdin)
			fmt.Print("Enter label for new config: ")
			label, _ = reader.ReadString('\n')
		}
		label = strings.TrimSpace(label)

		cfg := config.DefaultConfig()
		if configAddFrom != "" {
			raw, err := os.ReadFile(configAddFrom)
			if err != nil {
				return err
			}

			problems, err := config.Check(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", configAddFrom, err)
			}
			printProblems(label, problems)

			if cfg, err = config.LoadFile(configAddFrom); err != nil {
				return err
			}
		}

		path, err := config.DefaultStore().Create(label, cfg)
		if err != nil {
			return err
		}

		fmt.Printf("Created new config: %s\n", path)
		fmt.Printf("Run `mangapdf config switch %s` to use it.\n", label)
		return nil
	},
}

func init() {
	configAddCmd.Flags().StringVar(&configAddFrom, "from", "", "YAML file to copy values from")
	configCmd.AddCommand(configAddCmd)
}
