package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("reported an existing file")
	}
	if resolved != path {
		t.Fatalf("resolved path %q, want %q", resolved, path)
	}
	if cfg.Split.SegmentSeconds != 300 {
		t.Fatalf("segment_seconds default %v", cfg.Split.SegmentSeconds)
	}
	if cfg.Pool.MaxWorkers != 8 {
		t.Fatalf("max_workers default %v", cfg.Pool.MaxWorkers)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[split]
segment_seconds = 120.0
encoder = "hevc_nvenc"
quality = "high"

[pool]
min_workers = 2
max_workers = 4
initial_workers = 2

[merge]
append_retries = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("file not detected")
	}
	if cfg.Split.SegmentSeconds != 120 || cfg.Split.Encoder != "hevc_nvenc" || cfg.Split.Quality != "high" {
		t.Fatalf("split overrides not applied: %+v", cfg.Split)
	}
	if cfg.Merge.AppendRetries != 5 {
		t.Fatalf("merge override not applied: %+v", cfg.Merge)
	}
	// Untouched sections keep defaults.
	if cfg.Tools.FFmpegBinary != "ffmpeg" {
		t.Fatalf("tools defaults lost: %+v", cfg.Tools)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "negative segment length",
			content: "[split]\nsegment_seconds = -5.0\n",
			wantErr: "segment_seconds",
		},
		{
			name:    "unknown quality",
			content: "[split]\nquality = \"ultra\"\n",
			wantErr: "quality",
		},
		{
			name:    "inverted pool bounds",
			content: "[pool]\nmin_workers = 4\nmax_workers = 2\n",
			wantErr: "max_workers",
		},
		{
			name:    "initial outside bounds",
			content: "[pool]\nmin_workers = 2\nmax_workers = 4\ninitial_workers = 8\n",
			wantErr: "initial_workers",
		},
		{
			name:    "bad cpu target",
			content: "[pool]\ntarget_cpu_percent = 150.0\n",
			wantErr: "target_cpu_percent",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSampleConfigRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample file not detected")
	}
	defaults := Default()
	if cfg.Split != defaults.Split || cfg.Pool != defaults.Pool || cfg.Merge != defaults.Merge {
		t.Fatal("sample config drifted from defaults")
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	if cfg.Pool.SampleInterval() != 5*time.Second {
		t.Fatalf("sample interval %v", cfg.Pool.SampleInterval())
	}
	if cfg.Merge.AppendBackoff() != 200*time.Millisecond {
		t.Fatalf("append backoff %v", cfg.Merge.AppendBackoff())
	}
	if cfg.Merge.RepairTimeout() != 300*time.Second {
		t.Fatalf("repair timeout %v", cfg.Merge.RepairTimeout())
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	got, err := ExpandPath("~/x/y")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "x", "y") {
		t.Fatalf("ExpandPath = %q", got)
	}
}
