package search

import (
	"context"
	"runtime"
	"sync"

	"github.com/dshills/quickopen/internal/corpus"
	"github.com/dshills/quickopen/internal/fuzzy"
	"github.com/dshills/quickopen/internal/logging"
	"github.com/dshills/quickopen/internal/query"
)

// DefaultLimit caps the size of a published result set.
const DefaultLimit = 128

// Options configures a Coordinator.
type Options struct {
	// Workers is the scoring pool size. Defaults to runtime.NumCPU().
	Workers int

	// Limit caps the published result set. Defaults to DefaultLimit;
	// negative means unlimited.
	Limit int

	// CacheSize bounds the query result cache. Zero disables caching.
	CacheSize int

	// Weights overrides the scoring weights. Zero value means
	// fuzzy.DefaultWeights.
	Weights fuzzy.Weights

	// Boost, when set, is added to every matched candidate's score
	// before ranking. Used for the recency boost; must be fast and
	// safe for concurrent calls.
	Boost func(corpus.Candidate) int

	// Logger receives debug output. Defaults to a nop logger.
	Logger *logging.Logger
}

// DefaultOptions returns sensible coordinator defaults.
func DefaultOptions() Options {
	return Options{
		Workers:   runtime.NumCPU(),
		Limit:     DefaultLimit,
		CacheSize: 100,
		Weights:   fuzzy.DefaultWeights(),
	}
}

// Coordinator runs search generations. Exactly one generation is
// current at a time; starting a new one supersedes the previous,
// whose results are computed but never published.
type Coordinator struct {
	workers int
	limit   int
	weights fuzzy.Weights
	boost   func(corpus.Candidate) int
	cache   *resultCache
	logger  *logging.Logger

	mu        sync.Mutex // guards generation/cancel/delivered
	latest    uint64     // latest requested generation
	delivered uint64     // highest generation published
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewCoordinator creates a coordinator from options.
func NewCoordinator(opts Options) *Coordinator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Weights == (fuzzy.Weights{}) {
		opts.Weights = fuzzy.DefaultWeights()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	c := &Coordinator{
		workers: opts.Workers,
		limit:   opts.Limit,
		weights: opts.Weights,
		boost:   opts.Boost,
		logger:  opts.Logger.WithComponent("search"),
	}
	if opts.CacheSize > 0 {
		c.cache = newResultCache(opts.CacheSize)
	}
	return c
}

// Search starts a new generation scoring q against snap and returns
// its generation id. The previous in-flight generation is superseded
// immediately; its dispatched work finishes on its own and is
// discarded at the publish gate. Results go to pub only if this
// generation is still the latest at delivery time.
func (c *Coordinator) Search(q query.Query, snap corpus.Snapshot, pub Publisher) uint64 {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.latest++
	gen := c.latest
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		c.run(ctx, gen, q, snap, pub)
	}()
	return gen
}

// Generation returns the latest requested generation id.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Close supersedes any in-flight generation and waits for dispatched
// work to drain. Nothing is published after Close returns.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.latest++ // no generation can pass the publish gate anymore
	c.mu.Unlock()
	c.wg.Wait()
}

// InvalidateCache drops all cached result sets. Call when external
// ranking inputs (the recency boost) change.
func (c *Coordinator) InvalidateCache() {
	if c.cache != nil {
		c.cache.clear()
	}
}

func (c *Coordinator) run(ctx context.Context, gen uint64, q query.Query, snap corpus.Snapshot, pub Publisher) {
	pattern := fuzzy.CompileWeighted(q.Text, c.weights)
	if pattern.Empty() {
		// Empty match text is the caller's recents/narrow path; an
		// empty ranked set keeps the generation contract intact.
		c.publish(gen, ResultSet{Generation: gen, Query: q}, pub)
		return
	}

	if c.cache != nil {
		if cached := c.cache.get(pattern.Raw(), snap.Version); cached != nil {
			c.publish(gen, ResultSet{Generation: gen, Query: q, Results: cached}, pub)
			return
		}
	}

	merged := c.score(ctx, pattern, snap)
	if ctx.Err() != nil {
		c.logger.Debug("generation %d superseded after scoring %d candidates", gen, snap.Len())
		return
	}

	sortResults(merged)
	if c.limit > 0 && len(merged) > c.limit {
		merged = merged[:c.limit]
	}

	if c.cache != nil {
		c.cache.set(pattern.Raw(), snap.Version, merged)
	}

	c.publish(gen, ResultSet{Generation: gen, Query: q, Results: merged}, pub)
}

// score partitions the snapshot into chunks and scores them on the
// worker pool. Each worker keeps a top-k heap of twice the publish
// limit so the merge still has the exact global top k.
func (c *Coordinator) score(ctx context.Context, pattern *fuzzy.Pattern, snap corpus.Snapshot) []Result {
	items := snap.Candidates
	if len(items) == 0 {
		return nil
	}

	chunkSize := (len(items) + c.workers - 1) / c.workers
	minChunk := 50
	if len(items) < 1000 {
		minChunk = 10
	}
	if chunkSize < minChunk {
		chunkSize = minChunk
	}

	workerLimit := c.limit
	if workerLimit > 0 {
		workerLimit *= 2
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var merged []Result

	for start := 0; start < len(items); start += chunkSize {
		end := start + chunkSize
		if end > len(items) {
			end = len(items)
		}

		wg.Add(1)
		go func(chunk []corpus.Candidate) {
			defer wg.Done()

			local := c.scoreChunk(ctx, pattern, chunk, workerLimit)

			mu.Lock()
			merged = append(merged, local...)
			mu.Unlock()
		}(items[start:end])
	}

	wg.Wait()
	return merged
}

func (c *Coordinator) scoreChunk(ctx context.Context, pattern *fuzzy.Pattern, chunk []corpus.Candidate, k int) []Result {
	h := &resultHeap{}

	for i, cand := range chunk {
		// Cooperative cancellation: checked between candidates, never
		// mid-score.
		if i%64 == 0 && ctx.Err() != nil {
			break
		}

		m, ok := pattern.Match(cand.Path)
		if !ok {
			continue
		}
		score := m.Score
		if c.boost != nil {
			score += c.boost(cand)
		}
		h.offer(Result{Candidate: cand, Score: score, Positions: m.Positions}, k)
	}

	return h.toSlice()
}

// publish delivers the set iff gen is still the latest requested
// generation and nothing newer has been delivered. The check and the
// delivery happen under one lock, so delivery order is strictly
// increasing and at-most-once per generation.
func (c *Coordinator) publish(gen uint64, set ResultSet, pub Publisher) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.latest || gen <= c.delivered {
		c.logger.Debug("dropping stale generation %d (latest %d)", gen, c.latest)
		return
	}
	c.delivered = gen
	pub.Publish(set)
}
