package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fatiguetools/matassign/internal/planner"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show which material would go to which groups, without writing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := gatherInputs()
		if err != nil {
			return err
		}

		p := newPlanner(in.cfg, in.man)
		missing := 0
		for _, pf := range p.Plan(in.listing, in.files) {
			if len(pf.Groups) == 0 {
				fmt.Fprintf(os.Stderr, "✗ %s: no matching group\n", pf.File)
				missing++
				continue
			}
			for _, g := range pf.Groups {
				fmt.Fprintf(os.Stderr, "✓ %s -> %s\n", planner.BaseName(pf.File), g)
			}
		}
		if missing > 0 {
			fmt.Fprintf(os.Stderr, "%d material(s) would be unmatched\n", missing)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}
