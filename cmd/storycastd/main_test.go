package main

import (
	"path/filepath"
	"testing"

	"storycast/internal/testsupport"
)

func TestBuildOptionsDefaultsSocketFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	opts := buildOptions(cfg, "", "debug")
	expected := filepath.Join(cfg.Paths.LogDir, "storycast.sock")
	if opts.SocketPath != expected {
		t.Fatalf("expected socket path %q, got %q", expected, opts.SocketPath)
	}
	if opts.LogLevel != "debug" {
		t.Fatalf("expected log level debug, got %q", opts.LogLevel)
	}
}

func TestBuildOptionsKeepsExplicitSocket(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	explicit := filepath.Join(t.TempDir(), "custom.sock")
	opts := buildOptions(cfg, explicit, "")
	if opts.SocketPath != explicit {
		t.Fatalf("expected socket path %q, got %q", explicit, opts.SocketPath)
	}
}
