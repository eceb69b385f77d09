// Package picker ties the corpus, search coordinator, recents, and
// marks into one finder session.
//
// The picker never opens files and never draws anything: ranked
// result sets go out through a search.Publisher, and a chosen
// candidate is resolved into an OpenRequest handed to the host's
// Opener.
package picker

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/quickopen/internal/corpus"
	"github.com/dshills/quickopen/internal/logging"
	"github.com/dshills/quickopen/internal/marks"
	"github.com/dshills/quickopen/internal/query"
	"github.com/dshills/quickopen/internal/search"
	"github.com/dshills/quickopen/internal/state"
)

var (
	// ErrCandidateVanished means the selected path is no longer in the
	// corpus. The picker refuses to open it rather than risk opening
	// the wrong file.
	ErrCandidateVanished = errors.New("selected candidate no longer exists")

	// ErrNoSelection means the selection index does not name a result
	// in the last published set.
	ErrNoSelection = errors.New("selection index out of range")

	// ErrMarkEmpty means the requested mark slot holds nothing.
	ErrMarkEmpty = errors.New("mark slot is empty")
)

// OpenRequest names a file the host should open. Line and Col are
// 1-based; zero means unspecified.
type OpenRequest struct {
	Root corpus.RootID
	Path string
	Line int
	Col  int
}

// Opener opens files on behalf of the picker.
type Opener interface {
	Open(OpenRequest) error
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(OpenRequest) error

// Open implements Opener.
func (f OpenerFunc) Open(req OpenRequest) error { return f(req) }

// Options configures a Picker.
type Options struct {
	// Corpus is the candidate store. A fresh empty corpus is created
	// when nil.
	Corpus *corpus.Corpus

	// Marks is the mark-slot store. A store with the default slot
	// count is created when nil.
	Marks *marks.Store

	// Opener receives resolved open requests. Required.
	Opener Opener

	// Publisher receives ranked result sets. May be nil when the host
	// only uses Select/OpenMark.
	Publisher search.Publisher

	// Search tunes the coordinator. Boost and Logger are managed by
	// the picker and ignored here.
	Search search.Options

	// RecencyBoostWeight blends recents into ranking: a candidate at
	// recents position p gains (weight - p) points. Zero disables it.
	RecencyBoostWeight int

	// StatePath is the state file for recents and marks. Empty
	// disables persistence.
	StatePath string

	// PersistMarks controls whether mark slots are saved and restored.
	PersistMarks bool

	// Rescan, when set, is called after a selection fails with
	// ErrCandidateVanished so the host can re-scan the workspace.
	Rescan func()

	// Logger receives debug output. Defaults to a nop logger.
	Logger *logging.Logger
}

// Picker is one finder session.
type Picker struct {
	id           string
	corpus       *corpus.Corpus
	marks        *marks.Store
	coord        *search.Coordinator
	opener       Opener
	pub          search.Publisher
	boostWeight  int
	statePath    string
	persistMarks bool
	rescan       func()
	logger       *logging.Logger

	mu     sync.Mutex
	last   search.ResultSet
	active corpus.Candidate
}

// New creates a picker session. Persisted state, when configured, is
// loaded before the session becomes usable.
func New(opts Options) (*Picker, error) {
	if opts.Opener == nil {
		return nil, errors.New("picker: opener is required")
	}
	if opts.Corpus == nil {
		opts.Corpus = corpus.New(corpus.DefaultRecentsCap)
	}
	if opts.Marks == nil {
		opts.Marks = marks.NewStore(marks.DefaultMaxSlots)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	p := &Picker{
		id:           uuid.NewString(),
		corpus:       opts.Corpus,
		marks:        opts.Marks,
		opener:       opts.Opener,
		pub:          opts.Publisher,
		boostWeight:  opts.RecencyBoostWeight,
		statePath:    opts.StatePath,
		persistMarks: opts.PersistMarks,
		rescan:       opts.Rescan,
		logger:       opts.Logger.WithComponent("picker"),
	}

	searchOpts := opts.Search
	searchOpts.Logger = opts.Logger
	if p.boostWeight > 0 {
		searchOpts.Boost = p.recencyBoost
	}
	p.coord = search.NewCoordinator(searchOpts)

	if err := p.loadState(); err != nil {
		return nil, err
	}

	// Registered after state seeding so restoring marks does not
	// immediately rewrite the file it was read from.
	p.marks.OnChange(func() {
		if err := p.saveState(); err != nil {
			p.logger.Warn("saving state: %v", err)
		}
	})

	return p, nil
}

// ID returns the session id.
func (p *Picker) ID() string { return p.id }

// Corpus returns the underlying candidate store.
func (p *Picker) Corpus() *corpus.Corpus { return p.corpus }

// Marks returns the mark-slot store.
func (p *Picker) Marks() *marks.Store { return p.marks }

// SetActive records the host's active file, the target of
// position-only queries like ":42".
func (p *Picker) SetActive(cand corpus.Candidate) {
	p.mu.Lock()
	p.active = cand
	p.mu.Unlock()
}

// SetQuery starts a search for one keystroke's worth of input and
// returns its generation. The result set reaches the publisher only
// if no newer query supersedes it first. Empty input yields the
// recents list; a bare position yields the active file.
func (p *Picker) SetQuery(raw string) uint64 {
	q := query.Parse(raw)
	return p.coord.Search(q, p.corpus.Snapshot(), search.PublisherFunc(p.deliver))
}

// deliver post-processes a coordinator set before it reaches the
// host: the empty and position-only query forms bypass scoring.
func (p *Picker) deliver(set search.ResultSet) {
	switch {
	case set.Query.IsEmpty():
		set.Results = p.recentResults()
	case set.Query.PositionOnly():
		set.Results = p.activeResult()
	}

	p.mu.Lock()
	p.last = set
	p.mu.Unlock()

	if p.pub != nil {
		p.pub.Publish(set)
	}
}

func (p *Picker) recentResults() []search.Result {
	recents := p.corpus.Recents().List()
	out := make([]search.Result, len(recents))
	for i, cand := range recents {
		out[i] = search.Result{Candidate: cand}
	}
	return out
}

func (p *Picker) activeResult() []search.Result {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()
	if active.IsZero() {
		return nil
	}
	return []search.Result{{Candidate: active}}
}

// Select resolves the index-th result of the last published set and
// opens it. The candidate is re-checked against the live corpus
// first; a path that vanished since the set was published yields
// ErrCandidateVanished and, if configured, a rescan request.
func (p *Picker) Select(index int) (OpenRequest, error) {
	p.mu.Lock()
	set := p.last
	p.mu.Unlock()

	if index < 0 || index >= len(set.Results) {
		return OpenRequest{}, fmt.Errorf("%w: %d of %d", ErrNoSelection, index, len(set.Results))
	}
	cand := set.Results[index].Candidate

	if !p.corpus.Contains(cand) {
		p.logger.Info("candidate %s vanished between publish and select", cand.Path)
		if p.rescan != nil {
			p.rescan()
		}
		return OpenRequest{}, fmt.Errorf("%s: %w", cand.Path, ErrCandidateVanished)
	}

	req := OpenRequest{Root: cand.Root, Path: cand.Path}
	if set.Query.HasLine {
		req.Line = set.Query.Line
	}
	if set.Query.HasCol {
		req.Col = set.Query.Col
	}

	if err := p.opener.Open(req); err != nil {
		return req, err
	}
	p.recordOpen(cand)
	return req, nil
}

// OpenMark opens the file in the given mark slot, without a position.
func (p *Picker) OpenMark(slot int) (OpenRequest, error) {
	m, ok := p.marks.Get(slot)
	if !ok {
		return OpenRequest{}, fmt.Errorf("slot %d: %w", slot, ErrMarkEmpty)
	}
	cand := m.Candidate

	if !p.corpus.Contains(cand) {
		p.marks.RemoveCandidate(cand)
		if p.rescan != nil {
			p.rescan()
		}
		return OpenRequest{}, fmt.Errorf("%s: %w", cand.Path, ErrCandidateVanished)
	}

	req := OpenRequest{Root: cand.Root, Path: cand.Path}
	if err := p.opener.Open(req); err != nil {
		return req, err
	}
	p.recordOpen(cand)
	return req, nil
}

// recordOpen updates the recents list after a successful open. The
// recency boost feeds ranking, so cached result sets are stale now.
func (p *Picker) recordOpen(cand corpus.Candidate) {
	p.corpus.Recents().Touch(cand)
	if p.boostWeight > 0 {
		p.coord.InvalidateCache()
	}
	if err := p.saveState(); err != nil {
		p.logger.Warn("saving state: %v", err)
	}
}

// ApplyChange folds a watcher batch into the corpus and drops marks
// whose paths were removed.
func (p *Picker) ApplyChange(change corpus.Change) corpus.Snapshot {
	snap := p.corpus.Apply(change)
	for _, cand := range change.Remove {
		p.marks.RemoveCandidate(cand)
	}
	return snap
}

// Refresh replaces the corpus wholesale (initial scan, or recovery
// after the watcher lost coverage) and prunes marks that no longer
// resolve.
func (p *Picker) Refresh(candidates []corpus.Candidate) corpus.Snapshot {
	snap := p.corpus.Refresh(candidates)
	for _, sm := range p.marks.All() {
		if !p.corpus.Contains(sm.Mark.Candidate) {
			p.marks.RemoveCandidate(sm.Mark.Candidate)
		}
	}
	return snap
}

// Close shuts the session down: in-flight searches drain without
// publishing, and state is saved one last time.
func (p *Picker) Close() error {
	p.coord.Close()
	return p.saveState()
}

// recencyBoost is the coordinator's Boost hook: position 0 in the
// recents list earns the full weight, fading linearly to nothing.
func (p *Picker) recencyBoost(cand corpus.Candidate) int {
	pos := p.corpus.Recents().Position(cand)
	if pos < 0 || pos >= p.boostWeight {
		return 0
	}
	return p.boostWeight - pos
}

func (p *Picker) loadState() error {
	if p.statePath == "" {
		return nil
	}
	st, err := state.Load(p.statePath)
	if err != nil {
		return fmt.Errorf("loading picker state: %w", err)
	}
	p.corpus.Recents().Seed(st.Recents)
	if p.persistMarks {
		p.marks.Seed(st.Marks)
	}
	return nil
}

func (p *Picker) saveState() error {
	if p.statePath == "" {
		return nil
	}
	st := state.State{Recents: p.corpus.Recents().List()}
	if p.persistMarks {
		st.Marks = p.marks.All()
	}
	return state.Save(p.statePath, st)
}
