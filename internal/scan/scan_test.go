package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/quickopen/internal/corpus"
)

func mkTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		full := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func paths(cands []corpus.Candidate) map[string]bool {
	set := make(map[string]bool, len(cands))
	for _, c := range cands {
		set[c.Path] = true
	}
	return set
}

func TestRootFindsFiles(t *testing.T) {
	root := mkTree(t, "src/main.go", "src/util/helper.go", "README.md")

	cands, err := Root(root, "ws", nil)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	got := paths(cands)
	for _, want := range []string{"src/main.go", "src/util/helper.go", "README.md"} {
		if !got[want] {
			t.Errorf("missing %q in %v", want, got)
		}
	}
	for _, c := range cands {
		if c.Root != "ws" {
			t.Errorf("candidate %q has root %q, want ws", c.Path, c.Root)
		}
	}
}

func TestRootSkipsIgnoredDirs(t *testing.T) {
	root := mkTree(t,
		"src/main.go",
		"node_modules/pkg/index.js",
		".git/HEAD",
		"build.log",
	)

	ig := NewIgnore([]string{"node_modules", "*.log"}, true)
	cands, err := Root(root, "", ig)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	got := paths(cands)
	if !got["src/main.go"] {
		t.Error("src/main.go should survive")
	}
	for _, banned := range []string{"node_modules/pkg/index.js", ".git/HEAD", "build.log"} {
		if got[banned] {
			t.Errorf("%q should have been ignored", banned)
		}
	}
}

func TestRootMissingDir(t *testing.T) {
	if _, err := Root(filepath.Join(t.TempDir(), "absent"), "", nil); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestIgnoreSkipPath(t *testing.T) {
	ig := NewIgnore([]string{"target"}, true)

	tests := []struct {
		rel  string
		want bool
	}{
		{"src/main.rs", false},
		{"target/debug/app", true},
		{"src/target/x.rs", true}, // any segment counts
		{".hidden/file", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := ig.SkipPath(tt.rel); got != tt.want {
			t.Errorf("SkipPath(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

func TestNilIgnoreSkipsNothing(t *testing.T) {
	var ig *Ignore
	if ig.Skip(".git") || ig.SkipPath(".git/HEAD") {
		t.Error("nil matcher must not skip")
	}
}
