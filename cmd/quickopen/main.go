// Package main is the entry point for the quickopen terminal picker.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/dshills/quickopen/internal/config"
	"github.com/dshills/quickopen/internal/corpus"
	"github.com/dshills/quickopen/internal/logging"
	"github.com/dshills/quickopen/internal/picker"
	"github.com/dshills/quickopen/internal/scan"
	"github.com/dshills/quickopen/internal/search"
	"github.com/dshills/quickopen/internal/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

// workspaceRoot identifies the single root the demo host scans.
const workspaceRoot corpus.RootID = "workspace"

type options struct {
	Root       string
	ConfigPath string
	StatePath  string
	LogPath    string
	LogLevel   string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	logger, cleanup, err := newLogger(opts.LogPath, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: resolving root: %v\n", err)
		return 1
	}

	ignore := scan.NewIgnore(cfg.Watch.Ignore, cfg.Watch.IgnoreHidden)

	rescan := make(chan struct{}, 1)
	requestRescan := func() {
		select {
		case rescan <- struct{}{}:
		default:
		}
	}

	// The UI is both the publisher and a picker client, so it is wired
	// in after construction through a proxy.
	var pub publisherProxy

	var chosen *picker.OpenRequest
	pick, err := picker.New(picker.Options{
		Corpus:    corpus.New(cfg.Recents.Max),
		Publisher: &pub,
		Opener: picker.OpenerFunc(func(req picker.OpenRequest) error {
			chosen = &req
			return nil
		}),
		Search: search.Options{
			Workers:   cfg.Search.Workers,
			Limit:     cfg.Search.MaxResults,
			CacheSize: cfg.Search.CacheSize,
		},
		RecencyBoostWeight: cfg.Search.RecencyBoostWeight,
		StatePath:          opts.StatePath,
		PersistMarks:       cfg.Marks.Persist,
		Rescan:             requestRescan,
		Logger:             logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer pick.Close()

	cands, err := scan.Root(root, workspaceRoot, ignore)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: scanning %s: %v\n", root, err)
		return 1
	}
	pick.Refresh(cands)
	logger.Info("scanned %s: %d candidates", root, len(cands))

	watcher, err := watch.New(root, workspaceRoot, watch.Options{
		Debounce: cfg.Watch.Debounce(),
		Ignore:   ignore,
		Logger:   logger,
	})
	if err != nil {
		// A broken watcher degrades to a static corpus, not a failure.
		logger.Warn("file watching disabled: %v", err)
	} else {
		defer watcher.Close()
	}

	u, err := newUI(pick, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	pub.redirect(u)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-signals:
				u.quit()
			case <-rescan:
				if cands, err := scan.Root(root, workspaceRoot, ignore); err == nil {
					pick.Refresh(cands)
					u.refresh()
				}
			case batch, ok := <-watcherChanges(watcher):
				if !ok {
					return
				}
				pick.ApplyChange(batch)
				u.refresh()
			case <-watcherRescans(watcher):
				requestRescan()
			case err := <-watcherErrors(watcher):
				logger.Warn("watcher: %v", err)
			}
		}
	}()

	if err := u.loop(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if chosen != nil {
		fmt.Println(formatChoice(*chosen))
	}
	return 0
}

// formatChoice renders an open request the way editors accept it on
// their command line: path, optionally :line and :line:col.
func formatChoice(req picker.OpenRequest) string {
	out := req.Path
	if req.Line > 0 {
		out = fmt.Sprintf("%s:%d", out, req.Line)
		if req.Col > 0 {
			out = fmt.Sprintf("%s:%d", out, req.Col)
		}
	}
	return out
}

// publisherProxy forwards result sets to a target chosen after the
// picker exists. Sets published before the redirect are dropped.
type publisherProxy struct {
	mu     sync.Mutex
	target search.Publisher
}

func (p *publisherProxy) redirect(target search.Publisher) {
	p.mu.Lock()
	p.target = target
	p.mu.Unlock()
}

func (p *publisherProxy) Publish(set search.ResultSet) {
	p.mu.Lock()
	target := p.target
	p.mu.Unlock()
	if target != nil {
		target.Publish(set)
	}
}

// watcherChanges tolerates a nil watcher (watching disabled).
func watcherChanges(w *watch.Watcher) <-chan corpus.Change {
	if w == nil {
		return nil
	}
	return w.Changes()
}

func watcherRescans(w *watch.Watcher) <-chan struct{} {
	if w == nil {
		return nil
	}
	return w.Rescans()
}

func watcherErrors(w *watch.Watcher) <-chan error {
	if w == nil {
		return nil
	}
	return w.Errors()
}

func newLogger(path, level string) (*logging.Logger, func(), error) {
	if path == "" {
		return logging.Nop(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := logging.New(logging.Config{Level: logging.ParseLevel(level), Output: f})
	return logger, func() { f.Close() }, nil
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.Root, "root", ".", "Workspace directory to index")
	flag.StringVar(&opts.Root, "r", ".", "Workspace directory to index (shorthand)")
	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.StatePath, "state", "", "Path to state file for recents and marks")
	flag.StringVar(&opts.LogPath, "log", "", "Log file (logging disabled when empty)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Quickopen - fuzzy file picker\n\n")
		fmt.Fprintf(os.Stderr, "Usage: quickopen [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  type to filter; a trailing :line or :line:col jumps there\n")
		fmt.Fprintf(os.Stderr, "  Up/Down or Ctrl-P/Ctrl-N   move selection\n")
		fmt.Fprintf(os.Stderr, "  Enter                      pick (printed on stdout)\n")
		fmt.Fprintf(os.Stderr, "  Alt-M                      mark the selected file\n")
		fmt.Fprintf(os.Stderr, "  Alt-1..Alt-9               open mark slot\n")
		fmt.Fprintf(os.Stderr, "  Esc / Ctrl-C               quit\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("quickopen %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		os.Exit(0)
	}

	return opts
}
