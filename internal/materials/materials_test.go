package materials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("MAT\n"), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Steel.ffd")
	writeFile(t, dir, "Aluminum.ffd")
	writeFile(t, dir, "notes.txt")
	writeFile(t, dir, "CAST.FFD") // extension match is case-insensitive
	if err := os.Mkdir(filepath.Join(dir, "sub.ffd"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "sub.ffd"), "Nested.ffd")

	got, err := Discover(dir, ".ffd")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	want := []string{
		filepath.Join(dir, "Aluminum.ffd"),
		filepath.Join(dir, "CAST.FFD"),
		filepath.Join(dir, "Steel.ffd"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Discover mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverDefaultsAndDotlessExt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Steel.ffd")

	for _, ext := range []string{"", ".ffd", "ffd"} {
		got, err := Discover(dir, ext)
		if err != nil {
			t.Fatalf("Discover(ext=%q): %v", ext, err)
		}
		if len(got) != 1 {
			t.Errorf("Discover(ext=%q) = %v, want one file", ext, got)
		}
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	if _, err := Discover(filepath.Join(t.TempDir(), "absent"), ".ffd"); err == nil {
		t.Error("Discover should fail for a missing directory")
	}
}

func TestDiscoverEmptyDir(t *testing.T) {
	got, err := Discover(t.TempDir(), ".ffd")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Discover = %v, want empty", got)
	}
}

func TestWatcherDetectsWrite(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, ".ffd")
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	writeFile(t, dir, "Steel.ffd")
	writeFile(t, dir, "ignored.txt")

	change := <-w.Changes
	if change.Kind != ChangeModified {
		t.Errorf("Kind = %v, want ChangeModified", change.Kind)
	}
	if filepath.Base(change.File) != "Steel.ffd" {
		t.Errorf("File = %q, want Steel.ffd", change.File)
	}
}
