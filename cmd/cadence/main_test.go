package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderPlain(t *testing.T) {
	out := renderPlain(
		[]string{"Table", "Rows"},
		[][]string{{"fingerprints", "3"}, {"recordings", "1"}},
	)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), out)
	}
	if lines[0] != "Table\tRows" || lines[1] != "fingerprints\t3" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRenderTableIncludesAllRows(t *testing.T) {
	out := renderTable(
		[]string{"Title", "Artist"},
		[][]string{{"Night Song", "First Artist"}},
		nil,
	)
	if !strings.Contains(out, "Night Song") || !strings.Contains(out, "First Artist") {
		t.Fatalf("expected row content in table: %q", out)
	}
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"config", "init", "--path", target})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(buf.String(), target) {
		t.Fatalf("expected confirmation naming %s, got %q", target, buf.String())
	}

	// A second init without --overwrite refuses to clobber.
	cmd = newRootCommand()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestCacheCommandsWired(t *testing.T) {
	cmd := newRootCommand()
	cache, _, err := cmd.Find([]string{"cache"})
	if err != nil {
		t.Fatalf("find cache command: %v", err)
	}
	want := map[string]bool{"stats": false, "list": false, "purge": false, "show": false}
	for _, sub := range cache.Commands() {
		name := strings.Fields(sub.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("cache subcommand %q not wired", name)
		}
	}
}
