package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatiguetools/matassign/internal/config"
	"github.com/fatiguetools/matassign/internal/manifest"
	"github.com/fatiguetools/matassign/internal/materials"
	"github.com/fatiguetools/matassign/internal/planner"
)

// runInputs bundles everything a matching run needs: the resolved config,
// the optional job manifest, the discovered material files, and the group
// listing snapshot.
type runInputs struct {
	cfg     config.Config
	man     *manifest.Manifest
	files   []string
	listing []string
}

// gatherInputs loads config and manifest, discovers material files, and
// reads the group listing file.
func gatherInputs() (*runInputs, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	man, err := manifest.Load(cfg.MaterialDir)
	if errors.Is(err, manifest.ErrNoManifest) {
		man = &manifest.Manifest{}
	} else if err != nil {
		return nil, err
	}

	files, err := materials.Discover(cfg.MaterialDir, cfg.MaterialExt)
	if err != nil {
		return nil, err
	}

	if cfg.GroupsFile == "" {
		return nil, errors.New("no group listing: set --groups or groups_file in config")
	}
	listing, err := loadGroupListing(cfg.GroupsFile)
	if err != nil {
		return nil, err
	}

	return &runInputs{cfg: cfg, man: man, files: files, listing: listing}, nil
}

// newPlanner builds the planner from config and manifest. The config's
// merged group name wins over the manifest's.
func newPlanner(cfg config.Config, man *manifest.Manifest) *planner.Planner {
	merged := cfg.MergedGroup
	if merged == "" {
		merged = man.MergedGroup
	}
	return &planner.Planner{
		MergedGroup: merged,
		Aliases:     man.Aliases,
	}
}

// loadGroupListing reads a group listing file: one group per line in the
// host's "<number> - <name>" form. Blank lines and # comments are skipped.
func loadGroupListing(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening group listing: %w", err)
	}
	defer f.Close()

	var listing []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		listing = append(listing, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading group listing: %w", err)
	}
	return listing, nil
}

// printReport writes the per-material outcome in ✓/✗ lines to stderr.
func printReport(res *planner.Result) {
	for _, g := range res.Assigned {
		fmt.Fprintf(os.Stderr, "✓ assigned %s\n", g)
	}
	for _, m := range res.Missing {
		fmt.Fprintf(os.Stderr, "✗ %s: %s\n", m.File, m.Reason)
	}
	fmt.Fprintf(os.Stderr, "%d group(s) assigned, %d material(s) unmatched\n",
		len(res.Assigned), len(res.Missing))
}
