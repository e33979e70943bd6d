package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fatiguetools/matassign/internal/materials"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run assignment whenever a material file changes",
	Long: "Watch performs one assignment run, then keeps watching the material " +
		"directory and regenerates the script whenever a material definition is " +
		"added, edited or removed. Stop with Ctrl-C.",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := gatherInputs()
		if err != nil {
			return err
		}
		if err := runAssign(cmd.Context(), in); err != nil {
			return err
		}

		w, err := materials.NewWatcher(in.cfg.MaterialDir, in.cfg.MaterialExt)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sig)

		fmt.Fprintf(os.Stderr, "watching %s for %s changes\n", in.cfg.MaterialDir, in.cfg.MaterialExt)
		for {
			select {
			case change, ok := <-w.Changes:
				if !ok {
					return nil
				}
				fmt.Fprintf(os.Stderr, "material changed: %s\n", change.File)
				// Rediscover: the change may have added or removed files.
				in, err = gatherInputs()
				if err != nil {
					return err
				}
				if err := runAssign(cmd.Context(), in); err != nil {
					return err
				}
			case <-sig:
				return nil
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
