package corpus

import "sync"

// DefaultRecentsCap is the default capacity of the recents list.
const DefaultRecentsCap = 50

// Recents is a small bounded most-recently-used list of candidates.
// It backs the empty-query result set and the optional recency boost.
// Safe for concurrent use.
type Recents struct {
	mu    sync.RWMutex
	max   int
	items []Candidate
}

// NewRecents creates a recents list holding at most max entries.
func NewRecents(max int) *Recents {
	if max <= 0 {
		max = DefaultRecentsCap
	}
	return &Recents{max: max}
}

// Touch records cand as the most recently used entry, moving it to the
// front if already present and evicting the oldest entry when full.
func (r *Recents) Touch(cand Candidate) {
	if cand.IsZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(cand)
	r.items = append(r.items, Candidate{})
	copy(r.items[1:], r.items)
	r.items[0] = cand
	if len(r.items) > r.max {
		r.items = r.items[:r.max]
	}
}

// Remove deletes cand from the list if present.
func (r *Recents) Remove(cand Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(cand)
}

func (r *Recents) removeLocked(cand Candidate) {
	for i, c := range r.items {
		if c == cand {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return
		}
	}
}

// Position returns the index of cand in the list (0 = most recent),
// or -1 if absent.
func (r *Recents) Position(cand Candidate) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, c := range r.items {
		if c == cand {
			return i
		}
	}
	return -1
}

// List returns a copy of the list, most recent first.
func (r *Recents) List() []Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Candidate, len(r.items))
	copy(out, r.items)
	return out
}

// Seed replaces the list content, most recent first. Used to restore
// a persisted list at startup; entries beyond capacity are dropped.
func (r *Recents) Seed(cands []Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(cands) > r.max {
		cands = cands[:r.max]
	}
	r.items = make([]Candidate, len(cands))
	copy(r.items, cands)
}

// Len returns the number of entries.
func (r *Recents) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Clear empties the list.
func (r *Recents) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}
