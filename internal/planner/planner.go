// Package planner sequences material-to-group assignment against an
// abstracted host model. For every material file it finds the groups whose
// names match the file's base name, loads the material, assigns it to each
// matching group, and finally consolidates everything it touched into one
// merged group. The host behind the ModelHost interface may be a live
// automation session or a batch-script writer; the planner never knows.
package planner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatiguetools/matassign/internal/groups"
	"github.com/fatiguetools/matassign/internal/intset"
)

// MaterialHandle identifies a material loaded into the host for the duration
// of one run. Opaque outside the host implementation.
type MaterialHandle interface {
	Ref() string
}

// ModelHost is the capability set the planner needs from the host model.
// Calls are synchronous and must complete before the next is issued; the
// host session is single-actor shared state with no isolation.
type ModelHost interface {
	// ListGroups returns every group in the model in the host's listing
	// form, "<number> - <descriptive text>".
	ListGroups() ([]string, error)

	// LoadMaterial reads a material definition file into the host.
	LoadMaterial(path string) (MaterialHandle, error)

	// AssignMaterial applies a loaded material to the nodes of a group.
	AssignMaterial(h MaterialHandle, g groups.Record) error

	// AddRelatedNodes adds the nodes related to a group's elements, so a
	// node-scoped assignment covers an element-defined group.
	AddRelatedNodes(g groups.Record) error

	// EnsureGroup returns the named group, creating it if absent.
	EnsureGroup(name string) (groups.Record, error)

	// MergeGroups unions the nodes and elements of every group whose
	// ordinal lies in r into the most recently ensured group.
	MergeGroups(r intset.Range) error

	// AddNodesToGroup adds a contiguous span of node labels to a group.
	AddNodesToGroup(g groups.Record, r intset.Range) error
}

// Result reports one run: the groups that received a material and the
// material files that could not be assigned. Immutable once returned.
type Result struct {
	Assigned []groups.Record
	Missing  []MissingEntry
}

// MissingEntry records a material file that was not assigned and why.
type MissingEntry struct {
	File   string
	Reason string
}

// Planner drives assignment runs. The zero value uses a default merged
// group name.
type Planner struct {
	// MergedGroup names the consolidation group. Empty means
	// DefaultMergedGroup.
	MergedGroup string

	// Aliases maps a material file base name to extra base names that
	// should also be matched against group labels.
	Aliases map[string][]string
}

// DefaultMergedGroup is the name of the consolidation group when the caller
// does not choose one.
const DefaultMergedGroup = "FEMFAT_assigned"

// BaseName derives the matching key from a material file path: the file
// name with its extension stripped.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// PlannedFile pairs one material file with the groups its base name (and
// aliases) matched. Empty Groups means the file has nowhere to go.
type PlannedFile struct {
	File   string
	Groups []groups.Record
}

// Plan matches material files against a group listing without touching any
// host. Files are deduplicated by path and returned in ascending path
// order, so identical inputs always produce the identical plan.
func (p *Planner) Plan(listing, materialFiles []string) []PlannedFile {
	var out []PlannedFile
	for _, file := range dedupeSorted(materialFiles) {
		out = append(out, PlannedFile{
			File:   file,
			Groups: p.matchFile(file, listing),
		})
	}
	return out
}

// Run assigns each material file to its matching groups and merges the
// touched groups, following the order Plan establishes. A host failure
// while handling one file demotes that file to the missing list and the run
// continues; only a failed group listing aborts, since nothing can be
// matched without it.
func (p *Planner) Run(host ModelHost, materialFiles []string) (*Result, error) {
	listing, err := host.ListGroups()
	if err != nil {
		return nil, fmt.Errorf("listing model groups: %w", err)
	}

	res := &Result{}
	for _, pf := range p.Plan(listing, materialFiles) {
		if len(pf.Groups) == 0 {
			res.Missing = append(res.Missing, MissingEntry{
				File:   pf.File,
				Reason: "no group name matches " + BaseName(pf.File),
			})
			continue
		}

		if err := assignOne(host, pf.File, pf.Groups); err != nil {
			res.Missing = append(res.Missing, MissingEntry{
				File:   pf.File,
				Reason: err.Error(),
			})
			continue
		}
		res.Assigned = append(res.Assigned, pf.Groups...)
	}

	if len(res.Assigned) > 0 {
		if err := p.mergeAssigned(host, res.Assigned); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// matchFile matches the file's base name, plus any configured aliases,
// against the group listing. Alias matches keep listing order and are
// deduplicated by group ordinal.
func (p *Planner) matchFile(file string, listing []string) []groups.Record {
	names := append([]string{BaseName(file)}, p.Aliases[BaseName(file)]...)

	seen := make(map[int]bool)
	var out []groups.Record
	for _, entry := range listing {
		rec, err := groups.ParseRecord(entry)
		if err != nil {
			continue
		}
		for _, n := range names {
			if !groups.Matches(n, rec.Name) {
				continue
			}
			if !seen[rec.ID] {
				seen[rec.ID] = true
				out = append(out, rec)
			}
			break
		}
	}
	return out
}

// assignOne loads one material and applies it to every matched group.
func assignOne(host ModelHost, file string, matched []groups.Record) error {
	handle, err := host.LoadMaterial(file)
	if err != nil {
		return fmt.Errorf("loading material: %v", err)
	}
	for _, g := range matched {
		if err := host.AddRelatedNodes(g); err != nil {
			return fmt.Errorf("adding related nodes for %s: %v", g, err)
		}
		if err := host.AssignMaterial(handle, g); err != nil {
			return fmt.Errorf("assigning to %s: %v", g, err)
		}
	}
	return nil
}

// mergeAssigned consolidates all assigned groups into the merged group,
// batching the host calls by contiguous ordinal range.
func (p *Planner) mergeAssigned(host ModelHost, assigned []groups.Record) error {
	name := p.MergedGroup
	if name == "" {
		name = DefaultMergedGroup
	}
	if _, err := host.EnsureGroup(name); err != nil {
		return fmt.Errorf("creating merged group %q: %w", name, err)
	}

	ids := make([]int, len(assigned))
	for i, g := range assigned {
		ids[i] = g.ID
	}
	for _, r := range intset.Compress(ids) {
		if err := host.MergeGroups(r); err != nil {
			return fmt.Errorf("merging groups %d-%d: %w", r.From, r.To, err)
		}
	}
	return nil
}

// BuildDetailGroup creates (or reuses) a named group and fills it with the
// given node labels, one host call per contiguous label range. An empty
// label list does nothing.
func BuildDetailGroup(host ModelHost, name string, labels []int) error {
	ranges := intset.Compress(labels)
	if len(ranges) == 0 {
		return nil
	}
	g, err := host.EnsureGroup(name)
	if err != nil {
		return fmt.Errorf("creating detail group %q: %w", name, err)
	}
	for _, r := range ranges {
		if err := host.AddNodesToGroup(g, r); err != nil {
			return fmt.Errorf("adding nodes %d-%d to %q: %w", r.From, r.To, name, err)
		}
	}
	return nil
}

func dedupeSorted(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
