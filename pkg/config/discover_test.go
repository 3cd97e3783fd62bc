package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindConfig(t *testing.T) {
	root := t.TempDir()

	// Create .arbor.yaml in root
	want := filepath.Join(root, FileName)
	if err := os.WriteFile(want, []byte("watch: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Create a subdirectory
	sub := filepath.Join(root, "src", "pkg")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	// Should find the file from the subdirectory
	found, ok := findConfig(sub)
	if !ok {
		t.Fatal("expected to find config")
	}
	if found != want {
		t.Errorf("expected %q, got %q", want, found)
	}
}

func TestFindConfig_IgnoresDirectory(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, FileName), 0o755); err != nil {
		t.Fatal(err)
	}

	found, ok := findConfig(root)
	if ok && found == filepath.Join(root, FileName) {
		t.Error("a directory named .arbor.yaml must not count as a config file")
	}
}

func TestFindConfig_NotFound(t *testing.T) {
	dir := t.TempDir()

	_, ok := findConfig(dir)
	// May or may not find one depending on where the test runs.
	// Just verify it doesn't panic.
	_ = ok
}

func TestLoadOrDiscover_MissingExplicitPath(t *testing.T) {
	_, err := LoadOrDiscover(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}
