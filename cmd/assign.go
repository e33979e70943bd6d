package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fatiguetools/matassign/internal/history"
	"github.com/fatiguetools/matassign/internal/host"
	"github.com/fatiguetools/matassign/internal/intset"
	"github.com/fatiguetools/matassign/internal/planner"
	"github.com/fatiguetools/matassign/internal/telemetry"
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Match materials to groups and write the assignment script",
	Long: "Assign matches every material file in the material directory against " +
		"the model's group listing, writes the .ffj batch script performing the " +
		"loads, assignments and the final merge, and records the run in the " +
		"history database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := gatherInputs()
		if err != nil {
			return err
		}
		return runAssign(cmd.Context(), in)
	},
}

func init() {
	rootCmd.AddCommand(assignCmd)
}

func runAssign(ctx context.Context, in *runInputs) error {
	var em *telemetry.Emitter
	if in.cfg.TelemetryPath != "" {
		var err error
		em, err = telemetry.NewEmitter(in.cfg.TelemetryPath)
		if err != nil {
			return err
		}
		defer em.Close()
	}
	_ = em.Emit(telemetry.Event{
		Timestamp: time.Now(),
		Kind:      telemetry.KindRunStart,
		Data:      map[string]int{"materials": len(in.files), "groups": len(in.listing)},
	})

	out, err := os.Create(in.cfg.Output)
	if err != nil {
		return fmt.Errorf("creating output script: %w", err)
	}
	defer out.Close()

	h := host.New(out, in.listing)
	p := newPlanner(in.cfg, in.man)

	res, err := p.Run(h, in.files)
	if err != nil {
		return err
	}
	if err := h.Err(); err != nil {
		return err
	}

	for _, g := range res.Assigned {
		_ = em.Emit(telemetry.Event{
			Timestamp: time.Now(),
			Kind:      telemetry.KindMaterialAssigned,
			Group:     g.String(),
		})
	}
	for _, m := range res.Missing {
		_ = em.Emit(telemetry.Event{
			Timestamp: time.Now(),
			Kind:      telemetry.KindMaterialMissing,
			Material:  m.File,
			Data:      map[string]string{"reason": m.Reason},
		})
	}
	ids := make([]int, len(res.Assigned))
	for i, g := range res.Assigned {
		ids[i] = g.ID
	}
	for _, r := range intset.Compress(ids) {
		_ = em.Emit(telemetry.Event{
			Timestamp: time.Now(),
			Kind:      telemetry.KindMergeIssued,
			Data:      map[string]int{"from": r.From, "to": r.To},
		})
	}

	if name := in.man.DetailGroupName(); name != "" {
		labels, err := in.man.DetailLabels()
		if err != nil {
			return err
		}
		if err := planner.BuildDetailGroup(h, name, labels); err != nil {
			return err
		}
		_ = em.Emit(telemetry.Event{
			Timestamp: time.Now(),
			Kind:      telemetry.KindDetailGroupBuilt,
			Group:     name,
			Data:      map[string]int{"labels": len(labels)},
		})
	}

	if in.cfg.HistoryDB != "" {
		store, err := history.Open(ctx, in.cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()
		if _, err := store.Record(ctx, in.cfg.MaterialDir, res); err != nil {
			return err
		}
	}

	_ = em.Emit(telemetry.Event{
		Timestamp: time.Now(),
		Kind:      telemetry.KindRunDone,
		Data:      map[string]int{"assigned": len(res.Assigned), "missing": len(res.Missing)},
	})

	printReport(res)
	fmt.Fprintf(os.Stderr, "wrote %s\n", in.cfg.Output)
	return nil
}
