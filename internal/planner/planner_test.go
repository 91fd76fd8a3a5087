package planner

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"vrecon/internal/media/ffprobe"
	"vrecon/internal/services"
)

func newTestAsset(duration float64) ffprobe.MediaInfo {
	return ffprobe.MediaInfo{
		Path:     "/media/input video.mp4",
		Duration: duration,
		Width:    1920,
		Height:   1080,
		Codec:    "h264",
	}
}

func TestNewCoversDurationExactly(t *testing.T) {
	dir := t.TempDir()
	plan, err := New(newTestAsset(650), 300, dir, filepath.Join(dir, "out.mp4"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(plan.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(plan.Segments))
	}

	wantWindows := [][2]float64{{0, 300}, {300, 600}, {600, 650}}
	for i, seg := range plan.Segments {
		if seg.Index != i {
			t.Fatalf("segment %d has index %d", i, seg.Index)
		}
		if seg.Start != wantWindows[i][0] || seg.End != wantWindows[i][1] {
			t.Fatalf("segment %d window [%v,%v], want %v", i, seg.Start, seg.End, wantWindows[i])
		}
		if seg.Status != StatusPending {
			t.Fatalf("segment %d status %q, want pending", i, seg.Status)
		}
	}

	var total float64
	for _, seg := range plan.Segments {
		total += seg.Duration()
	}
	if math.Abs(total-650) > 1e-9 {
		t.Fatalf("segment durations sum to %v, want 650", total)
	}
}

func TestNewLastSegmentEndsAtAssetDuration(t *testing.T) {
	dir := t.TempDir()
	plan, err := New(newTestAsset(600), 300, dir, filepath.Join(dir, "out.mp4"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(plan.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(plan.Segments))
	}
	last := plan.Segments[len(plan.Segments)-1]
	if last.End != 600 {
		t.Fatalf("last segment ends at %v, want 600", last.End)
	}
}

func TestNewRejectsInvalidDuration(t *testing.T) {
	dir := t.TempDir()
	for _, duration := range []float64{0, -12.5} {
		if _, err := New(newTestAsset(duration), 300, dir, ""); !errors.Is(err, services.ErrInvalidDuration) {
			t.Fatalf("duration %v: expected ErrInvalidDuration, got %v", duration, err)
		}
	}
	if _, err := New(newTestAsset(100), 0, dir, ""); !errors.Is(err, services.ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration for zero segment length, got %v", err)
	}
}

func TestSegmentNamesAreDeterministic(t *testing.T) {
	dir := t.TempDir()
	first, err := New(newTestAsset(650), 300, dir, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	second, err := New(newTestAsset(650), 300, dir, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := range first.Segments {
		if first.Segments[i].OutputPath != second.Segments[i].OutputPath {
			t.Fatalf("segment %d path changed between plans: %q vs %q",
				i, first.Segments[i].OutputPath, second.Segments[i].OutputPath)
		}
	}
	if got := filepath.Base(first.Segments[0].OutputPath); got != "input video_segment_000.mp4" {
		t.Fatalf("unexpected segment name %q", got)
	}
}

func TestPendingAndAllCompleted(t *testing.T) {
	dir := t.TempDir()
	plan, err := New(newTestAsset(650), 300, dir, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if plan.AllCompleted() {
		t.Fatal("fresh plan reported all completed")
	}
	plan.Segments[0].Status = StatusCompleted
	plan.Segments[1].Status = StatusFailed

	pending := plan.Pending()
	if len(pending) != 1 || pending[0].Index != 2 {
		t.Fatalf("unexpected pending set: %+v", pending)
	}

	counts := plan.CountByStatus()
	if counts[StatusCompleted] != 1 || counts[StatusFailed] != 1 || counts[StatusPending] != 1 {
		t.Fatalf("unexpected status counts: %v", counts)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus("completed"); !ok || status != StatusCompleted {
		t.Fatalf("ParseStatus(completed) = %q, %v", status, ok)
	}
	if _, ok := ParseStatus("bogus"); ok {
		t.Fatal("ParseStatus accepted an unknown status")
	}
}
