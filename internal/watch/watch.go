// Package watch feeds the corpus with file-system change batches.
//
// A Watcher observes one workspace root recursively via fsnotify,
// filters events through the scanner's ignore rules, and coalesces
// rapid bursts into debounced corpus.Change batches. The corpus only
// ever consumes these batches; it never watches anything itself.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/quickopen/internal/corpus"
	"github.com/dshills/quickopen/internal/logging"
	"github.com/dshills/quickopen/internal/scan"
)

// DefaultDebounce is the default coalescing window.
const DefaultDebounce = 100 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period before a pending batch is emitted.
	Debounce time.Duration

	// Ignore filters events the same way the initial scan does.
	Ignore *scan.Ignore

	// BufferSize sizes the outgoing channels.
	BufferSize int

	// Logger receives debug output. Defaults to a nop logger.
	Logger *logging.Logger
}

// Watcher observes one workspace root and emits corpus change
// batches.
type Watcher struct {
	rootDir  string
	rootID   corpus.RootID
	fsw      *fsnotify.Watcher
	ignore   *scan.Ignore
	debounce time.Duration
	logger   *logging.Logger

	changes chan corpus.Change
	rescans chan struct{}
	errs    chan error

	mu      sync.Mutex
	pending corpus.Change
	timer   *time.Timer
	dirs    map[string]bool
	closed  bool

	closeCh chan struct{}
	wg      sync.WaitGroup
	flushWG sync.WaitGroup // in-flight flush sends; Close waits on it before closing channels
}

// New creates a watcher for rootDir and starts watching it
// recursively. Candidates it emits carry id as their root.
func New(rootDir string, id corpus.RootID, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watch root %s: %w", rootDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s: not a directory", rootDir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 16
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	w := &Watcher{
		rootDir:  abs,
		rootID:   id,
		fsw:      fsw,
		ignore:   opts.Ignore,
		debounce: opts.Debounce,
		logger:   opts.Logger.WithComponent("watch"),
		changes:  make(chan corpus.Change, opts.BufferSize),
		rescans:  make(chan struct{}, 1),
		errs:     make(chan error, opts.BufferSize),
		dirs:     make(map[string]bool),
		closeCh:  make(chan struct{}),
	}

	if err := w.watchTree(abs); err != nil {
		fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.processLoop()

	return w, nil
}

// Changes returns the debounced change-batch channel.
func (w *Watcher) Changes() <-chan corpus.Change {
	return w.changes
}

// Rescans signals that incremental tracking lost coverage (a watched
// directory vanished or was renamed) and the root should be
// re-scanned and the corpus refreshed wholesale.
func (w *Watcher) Rescans() <-chan struct{} {
	return w.rescans
}

// Errors returns the error channel.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watcher. Pending batches are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	w.flushWG.Wait()

	close(w.changes)
	close(w.rescans)
	close(w.errs)
	return err
}

// watchTree registers dir and every non-ignored subdirectory.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && w.ignore.Skip(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			w.sendError(fmt.Errorf("watching %s: %w", p, err))
			return nil
		}
		w.mu.Lock()
		w.dirs[p] = true
		w.mu.Unlock()
		return nil
	})
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.rootDir, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if w.ignore.SkipPath(rel) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Create):
		w.handleCreate(event.Name, rel)

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		// Renames surface as a Rename for the old name plus a Create
		// for the new one, which maps onto the corpus's remove+add
		// model.
		w.handleRemove(event.Name, rel)
	}
	// Writes and chmods do not change the path set.
}

func (w *Watcher) handleCreate(absPath, rel string) {
	info, err := os.Stat(absPath)
	if err != nil {
		// Created and already gone; the remove event will follow.
		return
	}

	if !info.IsDir() {
		w.queue(corpus.Change{Add: []corpus.Candidate{{Root: w.rootID, Path: rel}}})
		return
	}

	// A new directory may already contain files (move-in, untar).
	// Watch its tree and queue everything inside.
	if err := w.watchTree(absPath); err != nil {
		w.sendError(err)
	}
	cands, err := scan.Root(absPath, w.rootID, w.ignore)
	if err != nil {
		w.sendError(err)
		return
	}
	for i := range cands {
		cands[i].Path = rel + "/" + cands[i].Path
	}
	w.queue(corpus.Change{Add: cands})
}

func (w *Watcher) handleRemove(absPath, rel string) {
	w.mu.Lock()
	wasDir := w.dirs[absPath]
	if wasDir {
		delete(w.dirs, absPath)
	}
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	if wasDir {
		// The directory's contents are unknown once it is gone; ask
		// the host for a full rescan instead of guessing.
		w.logger.Debug("directory %s vanished, requesting rescan", rel)
		select {
		case w.rescans <- struct{}{}:
		default:
		}
		return
	}

	w.queue(corpus.Change{Remove: []corpus.Candidate{{Root: w.rootID, Path: rel}}})
}

// queue folds a change into the pending batch and (re)arms the
// debounce timer. Rapid bursts collapse into one emitted batch.
func (w *Watcher) queue(change corpus.Change) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	w.pending.Add = append(w.pending.Add, change.Add...)
	w.pending.Remove = append(w.pending.Remove, change.Remove...)

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = corpus.Change{}
	if w.closed || (len(batch.Add) == 0 && len(batch.Remove) == 0) {
		w.mu.Unlock()
		return
	}
	// Registered while still holding the lock: Close sets closed under
	// the same lock, so it either stops this flush at the check above
	// or waits for the send below before closing the channel.
	w.flushWG.Add(1)
	w.mu.Unlock()
	defer w.flushWG.Done()

	select {
	case w.changes <- batch:
	case <-w.closeCh:
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errs <- err:
	default:
		// Channel full; drop rather than block the event loop.
	}
}
