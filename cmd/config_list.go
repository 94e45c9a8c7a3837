package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/brogergvhs/mangapdf/internal/config"

	"github.com/spf13/cobra"
)

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available configs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := config.DefaultStore()

		list, err := store.List()
		if err != nil {
			return fmt.Errorf("cannot read configs directory: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No configs yet. Run `mangapdf config init`.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
		_, _ = fmt.Fprintln(w, "LABEL\tACTIVE\tPROBLEMS\tPATH")

		for _, p := range list {
			activeMark := ""
			if p.Active {
				activeMark = "yes"
			}

			status := "-"
			if _, problems, err := store.Load(p.Label); err != nil {
				status = "unreadable"
			} else if len(problems) > 0 {
				status = fmt.Sprint(len(problems))
			}

			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Label, activeMark, status, p.Path)
		}

		if err := w.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to flush table output: %v\n", err)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd)
}
