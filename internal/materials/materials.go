// Package materials discovers fatigue material definition files in a
// working directory. The file base name, extension stripped, is the key
// later matched against group labels in the model.
package materials

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExt is the material definition extension when none is configured.
const DefaultExt = ".ffd"

// Discover lists the material files directly inside dir, filtered by
// extension (case-insensitive), deduplicated and sorted by path.
// Subdirectories are not descended into; a material library is flat.
func Discover(dir, ext string) ([]string, error) {
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading material directory: %w", err)
	}

	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out, nil
}
