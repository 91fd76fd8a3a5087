package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"vrecon/internal/logging"
	"vrecon/internal/media/ffmpeg"
	"vrecon/internal/media/ffprobe"
	"vrecon/internal/planner"
	"vrecon/internal/planstate"
	"vrecon/internal/workerpool"
)

type fakeTranscoder struct {
	mu        sync.Mutex
	calls     int
	failPaths map[string]bool
}

func (f *fakeTranscoder) Transcode(_ context.Context, req ffmpeg.TranscodeRequest) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failPaths[req.OutputPath] {
		return errors.New("encoder exploded")
	}
	return os.WriteFile(req.OutputPath, []byte("segment data"), 0o644)
}

func (f *fakeTranscoder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testPoolOptions() workerpool.Options {
	return workerpool.Options{
		MinWorkers:     1,
		MaxWorkers:     2,
		SampleInterval: time.Hour,
		Sampler: func(context.Context) (float64, error) {
			return 50, nil
		},
	}
}

func newTestPipeline(t *testing.T, transcoder ffmpeg.Transcoder, repo planstate.Repository) *Pipeline {
	t.Helper()
	pipe, err := New(Options{
		Transcoder: transcoder,
		Repository: repo,
		Pool:       testPoolOptions(),
		Logger:     logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return pipe
}

func newTestPlan(t *testing.T, duration float64) *planner.Plan {
	t.Helper()
	dir := t.TempDir()
	plan, err := planner.New(ffprobe.MediaInfo{Path: "/media/clip.mp4", Duration: duration, Width: 1920}, 300, dir, dir+"/final.mp4")
	if err != nil {
		t.Fatalf("planner.New: %v", err)
	}
	return plan
}

func TestRunCompletesAllSegments(t *testing.T) {
	transcoder := &fakeTranscoder{}
	repo := planstate.NewMemoryRepository()
	pipe := newTestPipeline(t, transcoder, repo)
	plan := newTestPlan(t, 650)

	result, err := pipe.Run(context.Background(), plan, ffmpeg.Profile{Encoder: "libx265", CRF: 23}, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Success() {
		t.Fatalf("run reported failures: %v", result.Failed)
	}
	if len(result.Completed) != 3 {
		t.Fatalf("expected 3 completed segments, got %v", result.Completed)
	}
	if !plan.AllCompleted() {
		t.Fatal("plan not fully completed")
	}
	if transcoder.callCount() != 3 {
		t.Fatalf("expected 3 transcode calls, got %d", transcoder.callCount())
	}
	if repo.Saves() == 0 {
		t.Fatal("no snapshots were persisted")
	}
}

func TestRerunDoesNoRedundantWork(t *testing.T) {
	transcoder := &fakeTranscoder{}
	repo := planstate.NewFileRepository()
	pipe := newTestPipeline(t, transcoder, repo)
	plan := newTestPlan(t, 650)

	if _, err := pipe.Run(context.Background(), plan, ffmpeg.Profile{}, 2); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	firstCalls := transcoder.callCount()

	// A fresh plan over the same directory simulates a new process run.
	rerun, err := planner.New(ffprobe.MediaInfo{Path: plan.AssetPath, Duration: plan.AssetDuration, Width: 1920}, plan.SegmentSeconds, plan.Dir, plan.OutputPath)
	if err != nil {
		t.Fatalf("planner.New: %v", err)
	}
	result, err := pipe.Run(context.Background(), rerun, ffmpeg.Profile{}, 2)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if transcoder.callCount() != firstCalls {
		t.Fatalf("second run made %d extra transcode calls", transcoder.callCount()-firstCalls)
	}
	if len(result.Resumed) != 3 {
		t.Fatalf("expected 3 resumed segments, got %v", result.Resumed)
	}
	if result.TranscodeCalls != 0 {
		t.Fatalf("expected 0 submitted transcodes, got %d", result.TranscodeCalls)
	}
}

func TestFailedSegmentDoesNotAbortSiblings(t *testing.T) {
	plan := newTestPlan(t, 650)
	transcoder := &fakeTranscoder{failPaths: map[string]bool{
		plan.Segments[1].OutputPath: true,
	}}
	repo := planstate.NewMemoryRepository()
	pipe := newTestPipeline(t, transcoder, repo)

	result, err := pipe.Run(context.Background(), plan, ffmpeg.Profile{}, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Success() {
		t.Fatal("run should have reported the failed segment")
	}
	if len(result.Failed) != 1 || result.Failed[0] != 1 {
		t.Fatalf("unexpected failed set: %v", result.Failed)
	}
	if len(result.Completed) != 2 {
		t.Fatalf("siblings did not complete: %v", result.Completed)
	}
	if plan.Segments[1].ErrorMessage == "" {
		t.Fatal("failed segment carries no error message")
	}
}

func TestFailedSegmentRetriesOnNextRun(t *testing.T) {
	plan := newTestPlan(t, 650)
	transcoder := &fakeTranscoder{failPaths: map[string]bool{
		plan.Segments[0].OutputPath: true,
	}}
	repo := planstate.NewFileRepository()
	pipe := newTestPipeline(t, transcoder, repo)

	if _, err := pipe.Run(context.Background(), plan, ffmpeg.Profile{}, 1); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	transcoder.mu.Lock()
	transcoder.failPaths = nil
	transcoder.mu.Unlock()

	rerun, err := planner.New(ffprobe.MediaInfo{Path: plan.AssetPath, Duration: plan.AssetDuration}, plan.SegmentSeconds, plan.Dir, plan.OutputPath)
	if err != nil {
		t.Fatalf("planner.New: %v", err)
	}
	result, err := pipe.Run(context.Background(), rerun, ffmpeg.Profile{}, 1)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !result.Success() {
		t.Fatalf("retry run failed: %v", result.Failed)
	}
	if result.TranscodeCalls != 1 {
		t.Fatalf("expected exactly the failed segment to be retried, got %d calls", result.TranscodeCalls)
	}
}

func TestEmptyOutputCountsAsFailure(t *testing.T) {
	plan := newTestPlan(t, 300)
	transcoder := &emptyOutputTranscoder{}
	pipe := newTestPipeline(t, transcoder, planstate.NewMemoryRepository())

	result, err := pipe.Run(context.Background(), plan, ffmpeg.Profile{}, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Success() {
		t.Fatal("empty output should fail the segment")
	}
	if !strings.Contains(plan.Segments[0].ErrorMessage, "empty or missing") {
		t.Fatalf("unexpected error message %q", plan.Segments[0].ErrorMessage)
	}
}

type emptyOutputTranscoder struct{}

func (emptyOutputTranscoder) Transcode(_ context.Context, req ffmpeg.TranscodeRequest) error {
	return os.WriteFile(req.OutputPath, nil, 0o644)
}
