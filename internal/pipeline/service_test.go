package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vrecon/internal/logging"
	"vrecon/internal/media/ffprobe"
	"vrecon/internal/services"
	"vrecon/internal/testsupport"
)

type staticProber struct {
	info ffprobe.MediaInfo
	err  error
}

func (p staticProber) Probe(_ context.Context, path string) (ffprobe.MediaInfo, error) {
	if p.err != nil {
		return ffprobe.MediaInfo{}, p.err
	}
	info := p.info
	info.Path = path
	return info, nil
}

func TestProcessReportsIncompleteWhenTranscodesProduceNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithSegmentSeconds(120),
		testsupport.WithStubbedBinaries())

	service, err := NewService(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	service.prober = staticProber{info: ffprobe.MediaInfo{
		Duration: 650,
		Width:    1920,
		Height:   1080,
		Codec:    "h264",
	}}

	outcome, err := service.Process(context.Background(), "/media/My Movie.mkv", "")
	if !errors.Is(err, services.ErrIncompleteInputs) {
		t.Fatalf("expected ErrIncompleteInputs, got %v", err)
	}
	if outcome == nil || outcome.Plan == nil {
		t.Fatal("expected outcome with plan on assembly failure")
	}
	if got := len(outcome.Plan.Segments); got != 6 {
		t.Fatalf("got %d segments, want 6", got)
	}
	if outcome.Assembled {
		t.Fatal("assembled flag set despite failure")
	}

	// The stub ffmpeg wrote nothing, so every segment failed and the plan
	// directory survives for a resumed run.
	planDir := filepath.Join(cfg.Paths.StagingDir, "my_movie")
	if _, statErr := os.Stat(planDir); statErr != nil {
		t.Fatalf("plan directory missing: %v", statErr)
	}
	if got := len(outcome.Run.Failed); got != 6 {
		t.Fatalf("got %d failed segments, want 6", got)
	}
}

func TestProcessPropagatesProbeFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	service, err := NewService(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	probeErr := services.Wrap(services.ErrProbe, "probe", "inspect", "boom", nil)
	service.prober = staticProber{err: probeErr}

	outcome, err := service.Process(context.Background(), "/media/clip.mkv", "")
	if !errors.Is(err, services.ErrProbe) {
		t.Fatalf("expected ErrProbe, got %v", err)
	}
	if outcome != nil {
		t.Fatalf("expected nil outcome before planning, got %+v", outcome)
	}

	entries, readErr := os.ReadDir(cfg.Paths.StagingDir)
	if readErr == nil && len(entries) != 0 {
		t.Fatalf("staging dir should stay empty, found %d entries", len(entries))
	}
}

func TestDefaultOutputPathNamesAfterAssetAndEncoder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Split.Encoder = "libx264"
	service := &Service{cfg: cfg}

	got := service.defaultOutputPath("/media/show.s01e02.mkv")
	want := filepath.Join(cfg.Paths.OutputDir, "show.s01e02_final_libx264.mp4")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSafeStemFlattensAwkwardNames(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/media/My Movie.mkv", "my_movie"},
		{"/media/show.s01e02.mkv", "show_s01e02"},
		{"/media/clip-01.mp4", "clip-01"},
	}
	for _, tt := range tests {
		if got := safeStem(tt.input); got != tt.want {
			t.Fatalf("safeStem(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
