package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "dst.mp3")
	if err := os.WriteFile(src, []byte("payload"), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("copy: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("copied content mismatch: %q", data)
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp4")
	dst := filepath.Join(dir, "dst.mp4")
	if err := os.WriteFile(src, []byte("video-bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatalf("verified copy: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Fatalf("copied content mismatch: %q", data)
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFileVerified(filepath.Join(dir, "absent"), filepath.Join(dir, "out")); err == nil {
		t.Fatal("expected error for missing source")
	}
}
