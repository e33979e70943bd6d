// Package manifest reads the optional matassign.toml job manifest from the
// working directory. The manifest tunes a run: the merged group name, extra
// base-name aliases per material, and the node labels for the detailed
// results group, given inline or through a .bdf set file.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/fatiguetools/matassign/internal/bdf"
)

// FileName is the manifest file looked up inside the working directory.
const FileName = "matassign.toml"

// ErrNoManifest is returned by Load when the directory has no manifest.
// Callers treat it as "use defaults".
var ErrNoManifest = errors.New("no matassign.toml found")

// Detail configures the detailed results group.
type Detail struct {
	// Group names the detailed results group. Empty disables it unless
	// labels are configured, in which case DefaultDetailGroup is used.
	Group string `toml:"group"`
	// Nodes lists node labels inline.
	Nodes []int `toml:"nodes"`
	// NodesFile references a .bdf set file, relative to the manifest.
	NodesFile string `toml:"nodes_file"`
	// Set selects one named set from NodesFile. Empty means all sets.
	Set string `toml:"set"`
}

// DefaultDetailGroup names the detailed results group when labels are
// configured but no name is.
const DefaultDetailGroup = "detail_results"

// Manifest is the parsed matassign.toml.
type Manifest struct {
	MergedGroup string              `toml:"merged_group"`
	Detail      Detail              `toml:"detail"`
	Aliases     map[string][]string `toml:"aliases"`

	dir string // directory the manifest was loaded from
}

// Load reads dir/matassign.toml. A missing file yields ErrNoManifest; a
// malformed one is an error.
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoManifest
		}
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	m.dir = dir
	return &m, nil
}

// DetailLabels resolves the detailed results node labels: inline nodes plus
// the contents of the referenced .bdf set file, if any. Returns nil when
// the manifest configures no detail group.
func (m *Manifest) DetailLabels() ([]int, error) {
	labels := append([]int(nil), m.Detail.Nodes...)

	if m.Detail.NodesFile != "" {
		path := m.Detail.NodesFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(m.dir, path)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening detail nodes file: %w", err)
		}
		defer f.Close()

		sets, err := bdf.Parse(f)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", m.Detail.NodesFile, err)
		}
		if m.Detail.Set != "" {
			set, ok := sets[m.Detail.Set]
			if !ok {
				return nil, fmt.Errorf("set %q not found in %s", m.Detail.Set, m.Detail.NodesFile)
			}
			labels = append(labels, set...)
		} else {
			// Deterministic order regardless of map iteration.
			names := make([]string, 0, len(sets))
			for name := range sets {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				labels = append(labels, sets[name]...)
			}
		}
	}
	return labels, nil
}

// DetailGroupName returns the configured detail group name, applying the
// default when labels exist without a name.
func (m *Manifest) DetailGroupName() string {
	if m.Detail.Group != "" {
		return m.Detail.Group
	}
	if len(m.Detail.Nodes) > 0 || m.Detail.NodesFile != "" {
		return DefaultDetailGroup
	}
	return ""
}
