// Package host provides ModelHost implementations. The shipped adapter does
// not drive a live application session; it records every operation as a
// FEMFAT .ffj batch command script which the application replays, the same
// mechanism the Groups page uses for scripted imports:
//
//	setValue {} {} GUI_Group:Import "Job-1_material_PART-1-1.bdf"
package host

import (
	"fmt"
	"io"

	"github.com/fatiguetools/matassign/internal/groups"
	"github.com/fatiguetools/matassign/internal/intset"
	"github.com/fatiguetools/matassign/internal/planner"
)

// ScriptHost implements planner.ModelHost by appending .ffj commands to an
// io.Writer. The group listing is seeded from a snapshot of the model,
// since a script writer cannot query the live session; EnsureGroup hands
// out ordinals past the snapshot's highest.
type ScriptHost struct {
	w       io.Writer
	listing []string
	records []groups.Record
	nextID  int
	err     error // first write error, sticky
}

type materialHandle struct{ path string }

func (h materialHandle) Ref() string { return h.path }

// New creates a ScriptHost over a seeded group listing. Malformed listing
// entries are kept in the listing (the planner skips them) but never
// receive ordinals.
func New(w io.Writer, listing []string) *ScriptHost {
	s := &ScriptHost{w: w, listing: listing}
	for _, entry := range listing {
		rec, err := groups.ParseRecord(entry)
		if err != nil {
			continue
		}
		s.records = append(s.records, rec)
		if rec.ID >= s.nextID {
			s.nextID = rec.ID + 1
		}
	}
	if s.nextID == 0 {
		s.nextID = 1
	}
	return s
}

// Err returns the first write error encountered, if any.
func (s *ScriptHost) Err() error { return s.err }

func (s *ScriptHost) emit(format string, args ...any) error {
	if s.err != nil {
		return s.err
	}
	if _, err := fmt.Fprintf(s.w, "setValue {} {} "+format+"\n", args...); err != nil {
		s.err = fmt.Errorf("writing ffj command: %w", err)
		return s.err
	}
	return nil
}

// ListGroups returns the seeded group listing.
func (s *ScriptHost) ListGroups() ([]string, error) {
	return s.listing, nil
}

// LoadMaterial records a material database open for the given file.
func (s *ScriptHost) LoadMaterial(path string) (planner.MaterialHandle, error) {
	if err := s.emit("GUI_Material:Open %q", path); err != nil {
		return nil, err
	}
	return materialHandle{path: path}, nil
}

// AssignMaterial records a node characteristic assignment of the loaded
// material to the group's nodes.
func (s *ScriptHost) AssignMaterial(h planner.MaterialHandle, g groups.Record) error {
	return s.emit("GUI_NodeCharacteristics:Material %q %q", h.Ref(), g.String())
}

// AddRelatedNodes records the "nodes related to elements in group"
// operation for g.
func (s *ScriptHost) AddRelatedNodes(g groups.Record) error {
	return s.emit("GUI_Group:NodesRelatedToElements %q", g.String())
}

// EnsureGroup returns the group with the given name, recording a group
// creation when the snapshot has none.
func (s *ScriptHost) EnsureGroup(name string) (groups.Record, error) {
	for _, rec := range s.records {
		if rec.Name == name {
			return rec, nil
		}
	}
	rec := groups.Record{ID: s.nextID, Name: name}
	if err := s.emit("GUI_Group:New %q", name); err != nil {
		return groups.Record{}, err
	}
	s.nextID++
	s.records = append(s.records, rec)
	s.listing = append(s.listing, rec.String())
	return rec, nil
}

// MergeGroups records a nodes-and-elements merge of the groups whose
// ordinals lie in r into the most recently ensured group.
func (s *ScriptHost) MergeGroups(r intset.Range) error {
	return s.emit("GUI_Group:MergeNodesElements \"%d THRU %d\"", r.From, r.To)
}

// AddNodesToGroup records adding a contiguous node label span to g.
func (s *ScriptHost) AddNodesToGroup(g groups.Record, r intset.Range) error {
	return s.emit("GUI_Group:AddNodes %q \"%d THRU %d\"", g.String(), r.From, r.To)
}
