package planner

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fatiguetools/matassign/internal/groups"
	"github.com/fatiguetools/matassign/internal/intset"
)

// fakeHost records every call in order and lets tests script failures.
type fakeHost struct {
	groups []string // listing returned by ListGroups
	calls  []string // ordered call log

	listErr   error
	loadErr   map[string]error // keyed by material path
	assignErr map[int]error    // keyed by group ordinal

	nextOrdinal int // ordinal handed to EnsureGroup creations
}

type fakeHandle struct{ path string }

func (h fakeHandle) Ref() string { return h.path }

func newFakeHost(listing ...string) *fakeHost {
	return &fakeHost{
		groups:      listing,
		loadErr:     make(map[string]error),
		assignErr:   make(map[int]error),
		nextOrdinal: 100,
	}
}

func (f *fakeHost) log(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeHost) ListGroups() ([]string, error) {
	f.log("ListGroups")
	return f.groups, f.listErr
}

func (f *fakeHost) LoadMaterial(path string) (MaterialHandle, error) {
	f.log("LoadMaterial %s", path)
	if err := f.loadErr[path]; err != nil {
		return nil, err
	}
	return fakeHandle{path: path}, nil
}

func (f *fakeHost) AssignMaterial(h MaterialHandle, g groups.Record) error {
	f.log("AssignMaterial %s -> %d", h.Ref(), g.ID)
	return f.assignErr[g.ID]
}

func (f *fakeHost) AddRelatedNodes(g groups.Record) error {
	f.log("AddRelatedNodes %d", g.ID)
	return nil
}

func (f *fakeHost) EnsureGroup(name string) (groups.Record, error) {
	f.log("EnsureGroup %s", name)
	f.nextOrdinal++
	return groups.Record{ID: f.nextOrdinal, Name: name}, nil
}

func (f *fakeHost) MergeGroups(r intset.Range) error {
	f.log("MergeGroups %d-%d", r.From, r.To)
	return nil
}

func (f *fakeHost) AddNodesToGroup(g groups.Record, r intset.Range) error {
	f.log("AddNodesToGroup %d %d-%d", g.ID, r.From, r.To)
	return nil
}

func TestRunAssignsAndMerges(t *testing.T) {
	host := newFakeHost("1 - Steel", "2 - Aluminum Part")
	p := &Planner{}

	res, err := p.Run(host, []string{"Steel.ffd", "Aluminum.ffd"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantAssigned := []groups.Record{
		{ID: 2, Name: "Aluminum Part"}, // Aluminum.ffd sorts first
		{ID: 1, Name: "Steel"},
	}
	if diff := cmp.Diff(wantAssigned, res.Assigned); diff != "" {
		t.Errorf("Assigned mismatch (-want +got):\n%s", diff)
	}
	if len(res.Missing) != 0 {
		t.Errorf("Missing = %v, want empty", res.Missing)
	}

	wantCalls := []string{
		"ListGroups",
		"LoadMaterial Aluminum.ffd",
		"AddRelatedNodes 2",
		"AssignMaterial Aluminum.ffd -> 2",
		"LoadMaterial Steel.ffd",
		"AddRelatedNodes 1",
		"AssignMaterial Steel.ffd -> 1",
		"EnsureGroup " + DefaultMergedGroup,
		"MergeGroups 1-2", // ordinals 1 and 2 are contiguous: one batch
	}
	if diff := cmp.Diff(wantCalls, host.calls); diff != "" {
		t.Errorf("call sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestRunMergeBatchesMatchCompression(t *testing.T) {
	host := newFakeHost("1 - Steel", "2 - Steel arm", "7 - steel pipe")
	p := &Planner{}

	res, err := p.Run(host, []string{"Steel.ffd"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var ids []int
	for _, g := range res.Assigned {
		ids = append(ids, g.ID)
	}
	wantRanges := intset.Compress(ids)

	var gotMerges []string
	for _, c := range host.calls {
		if strings.HasPrefix(c, "MergeGroups") {
			gotMerges = append(gotMerges, c)
		}
	}
	var wantMerges []string
	for _, r := range wantRanges {
		wantMerges = append(wantMerges, fmt.Sprintf("MergeGroups %d-%d", r.From, r.To))
	}
	if diff := cmp.Diff(wantMerges, gotMerges); diff != "" {
		t.Errorf("merge batching mismatch (-want +got):\n%s", diff)
	}
}

func TestRunMissingGroupSkipsLoad(t *testing.T) {
	host := newFakeHost("1 - Steel")
	p := &Planner{}

	res, err := p.Run(host, []string{"Titanium.ffd", "Steel.ffd"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Missing) != 1 || res.Missing[0].File != "Titanium.ffd" {
		t.Fatalf("Missing = %+v, want one entry for Titanium.ffd", res.Missing)
	}
	for _, c := range host.calls {
		if c == "LoadMaterial Titanium.ffd" {
			t.Error("LoadMaterial called for a material with no matching group")
		}
	}
}

func TestRunHostFailureDemotedToMissing(t *testing.T) {
	host := newFakeHost("1 - Steel", "3 - Aluminum")
	host.loadErr["Aluminum.ffd"] = errors.New("unreadable material file")
	p := &Planner{}

	res, err := p.Run(host, []string{"Steel.ffd", "Aluminum.ffd"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Missing) != 1 || res.Missing[0].File != "Aluminum.ffd" {
		t.Fatalf("Missing = %+v, want one entry for Aluminum.ffd", res.Missing)
	}
	if !strings.Contains(res.Missing[0].Reason, "unreadable material file") {
		t.Errorf("Reason = %q, want host error preserved", res.Missing[0].Reason)
	}

	wantAssigned := []groups.Record{{ID: 1, Name: "Steel"}}
	if diff := cmp.Diff(wantAssigned, res.Assigned); diff != "" {
		t.Errorf("Assigned mismatch (-want +got):\n%s", diff)
	}
}

func TestRunAssignFailureDoesNotAbortRun(t *testing.T) {
	host := newFakeHost("1 - Steel", "5 - Aluminum")
	host.assignErr[1] = errors.New("group state invalid")
	p := &Planner{}

	res, err := p.Run(host, []string{"Aluminum.ffd", "Steel.ffd"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Missing) != 1 || res.Missing[0].File != "Steel.ffd" {
		t.Fatalf("Missing = %+v, want one entry for Steel.ffd", res.Missing)
	}
	wantAssigned := []groups.Record{{ID: 5, Name: "Aluminum"}}
	if diff := cmp.Diff(wantAssigned, res.Assigned); diff != "" {
		t.Errorf("Assigned mismatch (-want +got):\n%s", diff)
	}
}

func TestRunListGroupsFailureIsFatal(t *testing.T) {
	host := newFakeHost()
	host.listErr = errors.New("host session unavailable")
	p := &Planner{}

	if _, err := p.Run(host, []string{"Steel.ffd"}); err == nil {
		t.Fatal("Run should fail when the group listing fails")
	}
}

func TestRunEmptyInputs(t *testing.T) {
	t.Run("no material files", func(t *testing.T) {
		host := newFakeHost("1 - Steel")
		res, err := (&Planner{}).Run(host, nil)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(res.Assigned) != 0 || len(res.Missing) != 0 {
			t.Errorf("Result = %+v, want empty", res)
		}
		// No assignment means no merge.
		for _, c := range host.calls {
			if strings.HasPrefix(c, "EnsureGroup") || strings.HasPrefix(c, "MergeGroups") {
				t.Errorf("unexpected call %q with nothing assigned", c)
			}
		}
	})

	t.Run("no groups", func(t *testing.T) {
		host := newFakeHost()
		res, err := (&Planner{}).Run(host, []string{"Steel.ffd"})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(res.Missing) != 1 {
			t.Errorf("Missing = %+v, want the lone file reported", res.Missing)
		}
	})
}

func TestRunDeduplicatesFiles(t *testing.T) {
	host := newFakeHost("1 - Steel")
	res, err := (&Planner{}).Run(host, []string{"Steel.ffd", "Steel.ffd"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Assigned) != 1 {
		t.Errorf("Assigned = %+v, want single assignment", res.Assigned)
	}

	loads := 0
	for _, c := range host.calls {
		if strings.HasPrefix(c, "LoadMaterial") {
			loads++
		}
	}
	if loads != 1 {
		t.Errorf("LoadMaterial called %d times, want 1", loads)
	}
}

func TestRunDeterminism(t *testing.T) {
	run := func() (*Result, []string) {
		host := newFakeHost("1 - Steel", "4 - Aluminum Part", "9 - steel pin")
		res, err := (&Planner{}).Run(host, []string{"Aluminum.ffd", "Steel.ffd"})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return res, host.calls
	}

	res1, calls1 := run()
	res2, calls2 := run()
	if diff := cmp.Diff(res1, res2); diff != "" {
		t.Errorf("results differ between runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(calls1, calls2); diff != "" {
		t.Errorf("call sequences differ between runs (-first +second):\n%s", diff)
	}
}

func TestRunAliases(t *testing.T) {
	host := newFakeHost("1 - S355", "2 - Steel arm")
	p := &Planner{Aliases: map[string][]string{
		"Steel": {"S355"},
	}}

	res, err := p.Run(host, []string{"Steel.ffd"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantAssigned := []groups.Record{{ID: 1, Name: "S355"}, {ID: 2, Name: "Steel arm"}}
	if diff := cmp.Diff(wantAssigned, res.Assigned); diff != "" {
		t.Errorf("Assigned mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanMatchesWithoutHostCalls(t *testing.T) {
	listing := []string{"1 - Steel", "2 - Aluminum Part"}
	got := (&Planner{}).Plan(listing, []string{"Steel.ffd", "Titanium.ffd", "Aluminum.ffd"})

	want := []PlannedFile{
		{File: "Aluminum.ffd", Groups: []groups.Record{{ID: 2, Name: "Aluminum Part"}}},
		{File: "Steel.ffd", Groups: []groups.Record{{ID: 1, Name: "Steel"}}},
		{File: "Titanium.ffd", Groups: nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Plan mismatch (-want +got):\n%s", diff)
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"Steel.ffd", "Steel"},
		{"/data/materials/AL 7075.ffd", "AL 7075"},
		{"noext", "noext"},
		{"dir/archive.tar.ffd", "archive.tar"},
	}
	for _, tt := range tests {
		if got := BaseName(tt.path); got != tt.want {
			t.Errorf("BaseName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestBuildDetailGroup(t *testing.T) {
	host := newFakeHost()
	err := BuildDetailGroup(host, "detail", []int{101, 102, 205, 103})
	if err != nil {
		t.Fatalf("BuildDetailGroup: %v", err)
	}

	wantCalls := []string{
		"EnsureGroup detail",
		"AddNodesToGroup 101 101-103",
		"AddNodesToGroup 101 205-205",
	}
	if diff := cmp.Diff(wantCalls, host.calls); diff != "" {
		t.Errorf("call sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDetailGroupEmpty(t *testing.T) {
	host := newFakeHost()
	if err := BuildDetailGroup(host, "detail", nil); err != nil {
		t.Fatalf("BuildDetailGroup: %v", err)
	}
	if len(host.calls) != 0 {
		t.Errorf("calls = %v, want none for empty labels", host.calls)
	}
}
