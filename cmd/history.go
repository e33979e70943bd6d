package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fatiguetools/matassign/internal/config"
	"github.com/fatiguetools/matassign/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent assignment runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.HistoryDB == "" {
			return fmt.Errorf("history is disabled (empty history_db)")
		}

		store, err := history.Open(cmd.Context(), cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "no runs recorded")
			return nil
		}

		for _, r := range runs {
			fmt.Fprintf(os.Stdout, "#%d  %s  %s  %d assigned, %d missing\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.MaterialDir,
				r.Assigned, r.Missing)
			if !verboseEnabled() {
				continue
			}
			names, err := store.Groups(cmd.Context(), r.ID)
			if err != nil {
				return err
			}
			if len(names) > 0 {
				fmt.Fprintf(os.Stdout, "    %s\n", strings.Join(names, ", "))
			}
		}
		return nil
	},
}

func verboseEnabled() bool {
	v, _ := rootCmd.PersistentFlags().GetBool("verbose")
	return v
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum runs to list")
	rootCmd.AddCommand(historyCmd)
}
