package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/arbor/pkg/config"
	"github.com/vanderheijden86/arbor/pkg/source"
	"github.com/vanderheijden86/arbor/pkg/tree"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the root command with args and returns its output
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "arbor "+version {
		t.Errorf("unexpected output %q", out)
	}
}

func TestOutlineDefaultTree(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, config.FileName, "source:\n  kind: static\n")

	out, err := run(t, "outline", "--config", cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# arbor", "Documents", "Work", "Archive", "_(not loaded)_"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestOutlineSeedRelativeToConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tree.json", `[{"id":"a","label":"Alpha","children":[{"id":"b","label":"Beta"}]}]`)
	cfgPath := writeFile(t, dir, config.FileName, "seed: tree.json\nsource:\n  kind: static\n")

	out, err := run(t, "outline", "--config", cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "# tree") || !strings.Contains(out, "Beta") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = run(t, "outline", "--config", cfgPath, "--title", "Plan")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "# Plan") {
		t.Errorf("expected custom title, got:\n%s", out)
	}
}

func TestOutlineFromSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nodes.db")

	ctx := context.Background()
	db, err := source.OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	err = db.Seed(ctx, []tree.Node{
		{ID: "r1", Label: "Stored root", Children: []tree.Node{{ID: "c1", Label: "Stored child"}}},
	})
	db.Close()
	if err != nil {
		t.Fatal(err)
	}

	cfgPath := writeFile(t, dir, config.FileName, "log:\n  level: warn\n")
	out, err := run(t, "outline", "--config", cfgPath, "--source", "sqlite", "--dsn", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Stored root") {
		t.Errorf("expected the sqlite root, got:\n%s", out)
	}
	if strings.Contains(out, "Stored child") {
		t.Errorf("children load lazily and must not be listed, got:\n%s", out)
	}
}

func TestFlagsAreValidated(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, config.FileName, "")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown source", []string{"--source", "carrier-pigeon"}},
		{"sqlite without dsn", []string{"--source", "sqlite"}},
		{"watch without seed", []string{"--watch"}},
		{"bad log level", []string{"--log-level", "loud"}},
		{"negative latency", []string{"--latency", "-1s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"outline", "--config", cfgPath}, tt.args...)
			if _, err := run(t, args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestOfflineOverridesSource(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, config.FileName, "source:\n  kind: sqlite\n  dsn: missing/dir/nodes.db\n")

	// The sqlite source would fail to open; offline never touches it.
	if _, err := run(t, "outline", "--config", cfgPath, "--offline"); err != nil {
		t.Fatalf("expected offline to skip sqlite, got %v", err)
	}
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "outline", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("expected a missing config error, got %v", err)
	}
}

func TestTUIRequiresTerminal(t *testing.T) {
	cfg := config.Default()
	err := runTUI(context.Background(), &cfg)
	if err == nil || !strings.Contains(err.Error(), "needs a terminal") {
		t.Errorf("expected a terminal error, got %v", err)
	}
}

func TestOpenBackendMock(t *testing.T) {
	cfg := config.Default()
	cfg.Source.RandSeed = 7
	cfg.Source.FailRate = 0.25

	b, err := openBackend(context.Background(), &cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := b.source.(*source.Mock)
	if !ok {
		t.Fatalf("expected a mock source, got %T", b.source)
	}
	if m.FailRate != 0.25 || m.Latency != cfg.Source.Latency {
		t.Errorf("unexpected mock settings %v %v", m.FailRate, m.Latency)
	}
	if err := b.Close(); err != nil {
		t.Error(err)
	}
}

func TestGlamourStyleReachesTheUI(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, config.FileName, "ui:\n  glamour_style: pink\n")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := modelOptions(cfg, nil, nil).GlamourStyle; got != "pink" {
		t.Errorf("expected pink, got %q", got)
	}

	bad := writeFile(t, dir, "bad.yaml", "ui:\n  glamour_style: neon\n")
	if _, err := run(t, "outline", "--config", bad); err == nil {
		t.Error("expected an unknown style to be rejected")
	}
}
