package deps

import (
	"os"
	"path/filepath"
	"testing"

	"vrecon/internal/config"
	"vrecon/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[2].Available {
		t.Fatal("expected unconfigured command to be unavailable")
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail: %s", results[2].Detail)
	}
}

func TestRequirementsFollowConfiguredBinaries(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.FFmpegBinary = "/opt/ffmpeg/bin/ffmpeg"
	cfg.Tools.FFprobeBinary = "/opt/ffmpeg/bin/ffprobe"

	reqs := Requirements(&cfg)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	if reqs[0].Command != cfg.Tools.FFmpegBinary {
		t.Fatalf("ffmpeg command: %s", reqs[0].Command)
	}
	if reqs[1].Command != cfg.Tools.FFprobeBinary {
		t.Fatalf("ffprobe command: %s", reqs[1].Command)
	}
	for _, req := range reqs {
		if req.Optional {
			t.Fatalf("%s should be required", req.Name)
		}
	}
}

func TestDefaultToolsResolveFromPath(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	statuses := CheckBinaries(Requirements(cfg))
	for _, status := range statuses {
		if !status.Available {
			t.Fatalf("%s unavailable: %s", status.Name, status.Detail)
		}
	}
	if missing := Missing(statuses); len(missing) != 0 {
		t.Fatalf("missing: %+v", missing)
	}
}

func TestMissingFiltersAvailableAndOptional(t *testing.T) {
	statuses := []Status{
		{Name: "A", Available: true},
		{Name: "B", Available: false},
		{Name: "C", Available: false, Optional: true},
	}
	missing := Missing(statuses)
	if len(missing) != 1 || missing[0].Name != "B" {
		t.Fatalf("missing: %+v", missing)
	}
}
