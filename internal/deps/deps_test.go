package deps

import (
	"os"
	"path/filepath"
	"testing"

	"subburn/internal/testsupport"
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
		{Name: "Unconfigured", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected %s to be available: %+v", present, results[0])
	}
	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable: %+v", results[1])
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("expected unconfigured detail, got %+v", results[2])
	}
}

func TestMediaRequirementsUseConfiguredBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.FFmpeg.FFmpegBinary = "/opt/ffmpeg/bin/ffmpeg"
	cfg.FFmpeg.FFprobeBinary = ""

	reqs := MediaRequirements(cfg)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	if reqs[0].Command != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("expected configured ffmpeg path, got %q", reqs[0].Command)
	}
	if reqs[1].Command != "ffprobe" {
		t.Fatalf("expected ffprobe fallback, got %q", reqs[1].Command)
	}
}
