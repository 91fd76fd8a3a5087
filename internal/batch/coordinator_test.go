package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vrecon/internal/logging"
	"vrecon/internal/merge"
	"vrecon/internal/pipeline"
)

type fakeTranscodeRunner struct {
	calls    []string
	failPath string
}

func (f *fakeTranscodeRunner) Process(_ context.Context, assetPath, _ string) (*pipeline.Outcome, error) {
	f.calls = append(f.calls, assetPath)
	if assetPath == f.failPath {
		return nil, errors.New("transcode blew up")
	}
	return &pipeline.Outcome{
		AssetPath:  assetPath,
		OutputPath: assetPath + ".out.mp4",
	}, nil
}

type fakeMergeRunner struct {
	calls []string
}

func (f *fakeMergeRunner) Merge(_ context.Context, dir, outputPath string) (*merge.Result, error) {
	f.calls = append(f.calls, dir)
	return &merge.Result{State: merge.StateMerged, OutputPath: outputPath}, nil
}

func writeEmpty(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestTranscodeDirectoryProcessesOnlyVideoFiles(t *testing.T) {
	dir := t.TempDir()
	writeEmpty(t, filepath.Join(dir, "a.mp4"))
	writeEmpty(t, filepath.Join(dir, "b.mkv"))
	writeEmpty(t, filepath.Join(dir, "notes.txt"))
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	runner := &fakeTranscodeRunner{}
	coordinator := NewCoordinator(nil, logging.NewNop())
	summary, err := coordinator.TranscodeDirectory(context.Background(), dir, runner)
	if err != nil {
		t.Fatalf("TranscodeDirectory: %v", err)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("processed %d assets, want 2: %v", len(runner.calls), runner.calls)
	}
	if !summary.Success() {
		t.Fatalf("run reported failures: %+v", summary.Run)
	}
	if summary.Run.Completed != 2 || summary.Run.Failed != 0 {
		t.Fatalf("tallies: %+v", summary.Run)
	}
	if summary.Run.Kind != RunKindTranscode || summary.Run.Root != dir {
		t.Fatalf("run metadata: %+v", summary.Run)
	}
	for _, item := range summary.Items {
		if item.OutputPath == "" {
			t.Fatalf("missing output path for %s", item.SourcePath)
		}
	}
}

func TestOneFailureDoesNotAbortSiblings(t *testing.T) {
	dir := t.TempDir()
	writeEmpty(t, filepath.Join(dir, "a.mp4"))
	writeEmpty(t, filepath.Join(dir, "b.mp4"))
	writeEmpty(t, filepath.Join(dir, "c.mp4"))

	runner := &fakeTranscodeRunner{failPath: filepath.Join(dir, "b.mp4")}
	coordinator := NewCoordinator(nil, logging.NewNop())
	summary, err := coordinator.TranscodeDirectory(context.Background(), dir, runner)
	if err != nil {
		t.Fatalf("TranscodeDirectory: %v", err)
	}

	if len(runner.calls) != 3 {
		t.Fatalf("processed %d assets, want all 3", len(runner.calls))
	}
	if summary.Success() {
		t.Fatal("run with a failed item reported success")
	}
	if summary.Run.Completed != 2 || summary.Run.Failed != 1 {
		t.Fatalf("tallies: %+v", summary.Run)
	}
	var failed *Item
	for i := range summary.Items {
		if summary.Items[i].Status == ItemFailed {
			failed = &summary.Items[i]
		}
	}
	if failed == nil {
		t.Fatal("no failed item recorded")
	}
	if failed.SourcePath != runner.failPath || failed.Error == "" {
		t.Fatalf("failed item: %+v", failed)
	}
}

func TestMergeDirectoryWalksSubfolders(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"episode01", "episode02"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	writeEmpty(t, filepath.Join(dir, "stray.mp4"))

	runner := &fakeMergeRunner{}
	coordinator := NewCoordinator(nil, logging.NewNop())
	summary, err := coordinator.MergeDirectory(context.Background(), dir, runner)
	if err != nil {
		t.Fatalf("MergeDirectory: %v", err)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("merged %d folders, want 2: %v", len(runner.calls), runner.calls)
	}
	if summary.Run.Kind != RunKindMerge || summary.Run.Completed != 2 {
		t.Fatalf("run: %+v", summary.Run)
	}
	want := filepath.Join(dir, "episode01.mp4")
	if summary.Items[0].OutputPath != want {
		t.Fatalf("output %q, want %q", summary.Items[0].OutputPath, want)
	}
}

func TestRunPersistedWhenStorePresent(t *testing.T) {
	dir := t.TempDir()
	writeEmpty(t, filepath.Join(dir, "a.mp4"))

	store := openTestStore(t)
	coordinator := NewCoordinator(store, logging.NewNop())
	summary, err := coordinator.TranscodeDirectory(context.Background(), dir, &fakeTranscodeRunner{})
	if err != nil {
		t.Fatalf("TranscodeDirectory: %v", err)
	}

	runs, err := store.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != summary.Run.ID {
		t.Fatalf("runs: %+v", runs)
	}
	if runs[0].Completed != 1 || runs[0].Failed != 0 {
		t.Fatalf("persisted tallies: %+v", runs[0])
	}
	items, err := store.ItemsForRun(context.Background(), summary.Run.ID)
	if err != nil {
		t.Fatalf("ItemsForRun: %v", err)
	}
	if len(items) != 1 || items[0].Status != ItemCompleted {
		t.Fatalf("persisted items: %+v", items)
	}
}

func TestCancelledContextStopsScheduling(t *testing.T) {
	dir := t.TempDir()
	writeEmpty(t, filepath.Join(dir, "a.mp4"))
	writeEmpty(t, filepath.Join(dir, "b.mp4"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeTranscodeRunner{}
	coordinator := NewCoordinator(nil, logging.NewNop())
	summary, err := coordinator.TranscodeDirectory(ctx, dir, runner)
	if err != nil {
		t.Fatalf("TranscodeDirectory: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("processed %d assets after cancellation", len(runner.calls))
	}
	if len(summary.Items) != 0 {
		t.Fatalf("recorded %d items after cancellation", len(summary.Items))
	}
}
