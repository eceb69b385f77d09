package corpus

import (
	"sort"
	"sync"
)

// Snapshot is an immutable view of the corpus at a point in time.
// The candidate slice must not be modified by callers; concurrent
// searches each hold their own Snapshot and are unaffected by later
// Refresh or Apply calls.
type Snapshot struct {
	// Candidates is the canonical ordered candidate list.
	Candidates []Candidate

	// Version increases by one on every corpus mutation.
	Version uint64
}

// Len returns the number of candidates in the snapshot.
func (s Snapshot) Len() int { return len(s.Candidates) }

// Change is a batch of incremental corpus updates from the workspace
// collaborator. Renames are modeled as a removal plus an addition.
// Applying the same batch twice yields the same end state.
type Change struct {
	Add    []Candidate
	Remove []Candidate
}

// Corpus holds every discoverable project path plus the bounded
// recently-used list. A corpus with no project open is empty, which is
// a valid state: searches simply return zero results.
type Corpus struct {
	mu      sync.RWMutex
	snap    Snapshot
	recents *Recents
}

// New creates an empty corpus with the given recents capacity.
func New(recentsCap int) *Corpus {
	return &Corpus{
		recents: NewRecents(recentsCap),
	}
}

// Refresh replaces the corpus content atomically. Duplicate (root,
// path) pairs are collapsed and the result is sorted into canonical
// order, so refreshing twice with the same list yields an identical
// snapshot. Existing snapshot readers keep their old view.
func (c *Corpus) Refresh(candidates []Candidate) Snapshot {
	seen := make(map[key]struct{}, len(candidates))
	next := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		k := cand.dedupeKey()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		next = append(next, cand)
	}
	sortCandidates(next)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = Snapshot{
		Candidates: next,
		Version:    c.snap.Version + 1,
	}
	return c.snap
}

// Apply folds an incremental change batch into the corpus and swaps in
// a new snapshot. Removals win over additions of the same candidate
// within one batch, matching the remove+add rename model. The
// operation is idempotent: re-applying a batch is a no-op.
func (c *Corpus) Apply(change Change) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	set := make(map[key]Candidate, len(c.snap.Candidates)+len(change.Add))
	for _, cand := range c.snap.Candidates {
		set[cand.dedupeKey()] = cand
	}
	for _, cand := range change.Add {
		set[cand.dedupeKey()] = cand
	}
	for _, cand := range change.Remove {
		delete(set, cand.dedupeKey())
	}

	next := make([]Candidate, 0, len(set))
	for _, cand := range set {
		next = append(next, cand)
	}
	sortCandidates(next)

	c.snap = Snapshot{
		Candidates: next,
		Version:    c.snap.Version + 1,
	}

	// Drop vanished paths from the recents list as well.
	for _, cand := range change.Remove {
		c.recents.Remove(cand)
	}

	return c.snap
}

// Snapshot returns the current immutable view. Cheap: a slice header
// copy, never a deep copy.
func (c *Corpus) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Contains reports whether the candidate is present in the current
// corpus content.
func (c *Corpus) Contains(cand Candidate) bool {
	snap := c.Snapshot()
	i := sort.Search(len(snap.Candidates), func(i int) bool {
		return !snap.Candidates[i].Less(cand)
	})
	return i < len(snap.Candidates) && snap.Candidates[i] == cand
}

// Len returns the current number of candidates.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snap.Candidates)
}

// Recents returns the corpus's recently-used list.
func (c *Corpus) Recents() *Recents {
	return c.recents
}

func sortCandidates(cands []Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		return cands[i].Less(cands[j])
	})
}
