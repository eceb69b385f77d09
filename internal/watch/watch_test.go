package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/quickopen/internal/corpus"
	"github.com/dshills/quickopen/internal/scan"
)

const (
	testDebounce = 20 * time.Millisecond
	recvTimeout  = 3 * time.Second
)

func newTestWatcher(t *testing.T, ig *scan.Ignore) (*Watcher, string) {
	t.Helper()
	root := t.TempDir()
	w, err := New(root, "ws", Options{Debounce: testDebounce, Ignore: ig})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w, root
}

// collect drains change batches until the wanted path shows up in adds
// or removes, or the timeout expires.
func collect(t *testing.T, w *Watcher, path string, removed bool) {
	t.Helper()
	deadline := time.After(recvTimeout)
	for {
		select {
		case batch := <-w.Changes():
			set := batch.Add
			if removed {
				set = batch.Remove
			}
			for _, c := range set {
				if c.Path == path && c.Root == "ws" {
					return
				}
			}
		case err := <-w.Errors():
			t.Fatalf("watcher error: %v", err)
		case <-deadline:
			t.Fatalf("no batch containing %q (removed=%v)", path, removed)
		}
	}
}

func TestFileCreateEmitsAdd(t *testing.T) {
	w, root := newTestWatcher(t, nil)

	if err := os.WriteFile(filepath.Join(root, "main.go"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	collect(t, w, "main.go", false)
}

func TestFileRemoveEmitsRemove(t *testing.T) {
	w, root := newTestWatcher(t, nil)

	path := filepath.Join(root, "gone.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	collect(t, w, "gone.txt", false)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	collect(t, w, "gone.txt", true)
}

func TestIgnoredPathsProduceNoBatch(t *testing.T) {
	ig := scan.NewIgnore([]string{"*.log"}, true)
	w, root := newTestWatcher(t, ig)

	if err := os.WriteFile(filepath.Join(root, "build.log"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A visible file flushed after the ignored ones proves the batch
	// pipeline ran and dropped them.
	if err := os.WriteFile(filepath.Join(root, "kept.go"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(recvTimeout)
	for {
		select {
		case batch := <-w.Changes():
			for _, c := range batch.Add {
				switch c.Path {
				case "build.log", ".hidden":
					t.Fatalf("ignored path %q leaked into batch", c.Path)
				case "kept.go":
					return
				}
			}
		case <-deadline:
			t.Fatal("kept.go never arrived")
		}
	}
}

func TestNewDirectoryContentsAdded(t *testing.T) {
	w, root := newTestWatcher(t, nil)

	// Build the subtree outside the root, then move it in so the
	// watcher sees a single directory create with contents already
	// present.
	stage := filepath.Join(t.TempDir(), "pkg")
	if err := os.MkdirAll(filepath.Join(stage, "util"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stage, "util", "helper.go"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(stage, filepath.Join(root, "pkg")); err != nil {
		t.Fatal(err)
	}

	collect(t, w, "pkg/util/helper.go", false)
}

func TestDirectoryRemovalSignalsRescan(t *testing.T) {
	w, root := newTestWatcher(t, nil)

	dir := filepath.Join(root, "sub")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	// Wait for the watcher to pick up the new directory before
	// deleting it, otherwise the remove is not seen as a dir.
	waitWatched(t, w, dir)

	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Rescans():
	case err := <-w.Errors():
		t.Fatalf("watcher error: %v", err)
	case <-time.After(recvTimeout):
		t.Fatal("no rescan signal after directory removal")
	}
}

func waitWatched(t *testing.T, w *Watcher, dir string) {
	t.Helper()
	deadline := time.Now().Add(recvTimeout)
	for time.Now().Before(deadline) {
		w.mu.Lock()
		ok := w.dirs[dir]
		w.mu.Unlock()
		if ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("directory %s never registered", dir)
}

func TestBurstCoalescesIntoOneBatch(t *testing.T) {
	w, root := newTestWatcher(t, nil)

	for _, name := range []string{"a.go", "b.go", "c.go"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	seen := map[string]bool{}
	deadline := time.After(recvTimeout)
	for len(seen) < 3 {
		select {
		case batch := <-w.Changes():
			for _, c := range batch.Add {
				seen[c.Path] = true
			}
		case <-deadline:
			t.Fatalf("only saw %v", seen)
		}
	}
}

func TestCloseWaitsForInFlightFlush(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, "ws", Options{Debounce: testDebounce})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Stand in for a flush goroutine that has passed its closed check
	// but not yet attempted its send.
	w.flushWG.Add(1)

	closed := make(chan struct{})
	go func() {
		w.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close finished while a flush was still in flight")
	case <-time.After(100 * time.Millisecond):
	}

	// The flush proceeds exactly as the real one would: closeCh is
	// closed by now, so the select never blocks and never touches a
	// closed changes channel.
	select {
	case w.changes <- corpus.Change{}:
	case <-w.closeCh:
	}
	w.flushWG.Done()

	select {
	case <-closed:
	case <-time.After(recvTimeout):
		t.Fatal("Close never finished")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, "ws", Options{Debounce: testDebounce})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := <-w.Changes(); ok {
		t.Error("changes channel should be closed")
	}
}

func TestNewRejectsMissingRoot(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "absent"), "ws", Options{}); err == nil {
		t.Error("expected error for missing root")
	}
}
