package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fatiguetools/matassign/internal/config"
	"github.com/fatiguetools/matassign/internal/groups"
	"github.com/fatiguetools/matassign/internal/manifest"
	"github.com/fatiguetools/matassign/internal/materials"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the material directory, manifest and group listing are usable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ok := true

		files, err := materials.Discover(cfg.MaterialDir, cfg.MaterialExt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ materials: %v\n", err)
			ok = false
		} else {
			fmt.Fprintf(os.Stderr, "✓ %d material file(s) in %s\n", len(files), cfg.MaterialDir)
		}

		if _, err := manifest.Load(cfg.MaterialDir); err != nil && !errors.Is(err, manifest.ErrNoManifest) {
			fmt.Fprintf(os.Stderr, "✗ manifest: %v\n", err)
			ok = false
		} else if errors.Is(err, manifest.ErrNoManifest) {
			fmt.Fprintln(os.Stderr, "✓ no manifest (defaults apply)")
		} else {
			fmt.Fprintln(os.Stderr, "✓ manifest parsed")
		}

		if cfg.GroupsFile == "" {
			fmt.Fprintln(os.Stderr, "✗ groups: no listing file configured")
			ok = false
		} else if listing, err := loadGroupListing(cfg.GroupsFile); err != nil {
			fmt.Fprintf(os.Stderr, "✗ groups: %v\n", err)
			ok = false
		} else if _, err := groups.ParseRecords(listing); err != nil {
			fmt.Fprintf(os.Stderr, "✗ groups: %v\n", err)
			ok = false
		} else {
			fmt.Fprintf(os.Stderr, "✓ %d group(s) in listing\n", len(listing))
		}

		if !ok {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
