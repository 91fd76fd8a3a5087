package merge

import (
	"path/filepath"
	"testing"

	"vrecon/internal/logging"
	"vrecon/internal/testsupport"
)

func TestScanGroupsAndSortsFragments(t *testing.T) {
	dir := t.TempDir()
	// Written out of order; lexicographic directory order puts 10.000
	// before 5.000 as well.
	testsupport.WriteFragment(t, dir, "1", 10, 15, 3)
	testsupport.WriteFragment(t, dir, "1", 0, 5, 1)
	testsupport.WriteFragment(t, dir, "1", 5, 10, 2)
	testsupport.WriteFragment(t, dir, "2", 0, 8, 1)
	testsupport.WriteFile(t, filepath.Join(dir, "init.mp4"), 32)
	testsupport.WriteFile(t, filepath.Join(dir, "garbage-name.m4s"), 32)
	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), 32)

	result, err := Scan(dir, logging.NewNop())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(result.Groups))
	}
	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped file, got %d", result.Skipped)
	}
	if result.InitPath == "" || filepath.Base(result.InitPath) != "init.mp4" {
		t.Fatalf("init file not detected: %q", result.InitPath)
	}
	if result.Fragments() != 4 {
		t.Fatalf("expected 4 fragments total, got %d", result.Fragments())
	}

	first := result.Groups[0]
	if first.ID != "1" || len(first.Fragments) != 3 {
		t.Fatalf("unexpected first group: %+v", first)
	}
	for i, fragment := range first.Fragments {
		if fragment.Sequence != i+1 {
			t.Fatalf("fragment %d has sequence %d; scan did not sort", i, fragment.Sequence)
		}
	}
}

func TestScanOrdersGroupsNumerically(t *testing.T) {
	dir := t.TempDir()
	for _, group := range []string{"10", "2", "1"} {
		testsupport.WriteFragment(t, dir, group, 0, 5, 1)
	}

	result, err := Scan(dir, logging.NewNop())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	var ids []string
	for _, group := range result.Groups {
		ids = append(ids, group.ID)
	}
	want := []string{"1", "2", "10"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("group order %v, want %v", ids, want)
		}
	}
}

func TestScanEmptyFolder(t *testing.T) {
	result, err := Scan(t.TempDir(), logging.NewNop())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(result.Groups))
	}
}
