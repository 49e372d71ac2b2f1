package xlit_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/ipabot/internal/xlit"
)

const xsampaYAML = `
name: xsampa
trigger: "x/"
symbol: x
terminator: "/"
rules:
  - pattern: "tS"
    replacement: "ʧ"
    case_sensitive: true
    priority: 1
  - pattern: "S"
    replacement: "ʃ"
    case_sensitive: true
`

const apieYAML = `
name: apie
trigger: "p!"
symbol: p
rules:
  - pattern: "bh"
    replacement: "bʰ"
    priority: 1
`

const brokenYAML = `
name: broken
trigger: "b/"
rules:
  - pattern: "["
    replacement: "?"
    regex: true
`

// writeRules writes the given name → content map into a fresh temp dir.
func writeRules(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadDir(t *testing.T) {
	t.Parallel()

	dir := writeRules(t, map[string]string{
		"20-apie.yaml":   apieYAML,
		"10-xsampa.yaml": xsampaYAML,
		"notes.txt":      "not a rule set",
	})

	e, err := xlit.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: unexpected error: %v", err)
	}

	sets := e.RuleSets()
	if len(sets) != 2 {
		t.Fatalf("rule sets: expected 2, got %d", len(sets))
	}
	// Sorted filename order fixes load order, regardless of directory
	// listing order.
	if sets[0].Name() != "xsampa" || sets[1].Name() != "apie" {
		t.Errorf("load order: expected [xsampa apie], got [%s %s]", sets[0].Name(), sets[1].Name())
	}

	if got := e.Search("x/tSa/"); len(got) != 1 || got[0] != "x ʧa" {
		t.Errorf("Search: expected [x ʧa], got %v", got)
	}
}

func TestLoadDirJoinsCompileErrors(t *testing.T) {
	t.Parallel()

	dir := writeRules(t, map[string]string{
		"a-broken.yaml": brokenYAML,
		"b-xsampa.yaml": xsampaYAML,
		"c-unknown.yaml": `
name: typo
trigger: "t/"
ruels: []
`,
	})

	_, err := xlit.LoadDir(dir)
	if err == nil {
		t.Fatal("LoadDir: expected error, got nil")
	}
	// Both broken documents must be reported, not just the first.
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error %q does not name the broken rule set", err.Error())
	}
	if !strings.Contains(err.Error(), "c-unknown.yaml") {
		t.Errorf("error %q does not name the unknown-field file", err.Error())
	}
}

func TestLoadDirEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := xlit.LoadDir(dir); err == nil {
		t.Fatal("LoadDir: expected error for empty dir, got nil")
	}
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := xlit.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("LoadFile: expected error for missing file, got nil")
	}
}

func TestLoadSource(t *testing.T) {
	t.Parallel()

	src, err := xlit.LoadSource(strings.NewReader(xsampaYAML))
	if err != nil {
		t.Fatalf("LoadSource: unexpected error: %v", err)
	}
	if src.Name != "xsampa" || src.Trigger != "x/" || src.Terminator != "/" {
		t.Errorf("unexpected source: %+v", src)
	}
	if len(src.Rules) != 2 {
		t.Errorf("rules: expected 2, got %d", len(src.Rules))
	}
	if !src.Rules[0].CaseSensitive || src.Rules[0].Priority != 1 {
		t.Errorf("rule 0 fields not decoded: %+v", src.Rules[0])
	}
}
