// Package marks keeps a small fixed set of numbered file marks, so a
// handful of working files can be jumped to by slot number without
// going through a search.
package marks

import (
	"sync"

	"github.com/dshills/quickopen/internal/corpus"
)

// DefaultMaxSlots is the default number of mark slots.
const DefaultMaxSlots = 9

// Mark is one marked file.
type Mark struct {
	// Candidate is the marked path.
	Candidate corpus.Candidate

	// DisplayName is the label shown in the picker, normally the
	// file's base name.
	DisplayName string
}

// SlotMark pairs a mark with the slot it occupies.
type SlotMark struct {
	Slot int
	Mark Mark
}

// Store holds the mark slots for one workspace. Safe for concurrent
// use. Change callbacks fire after every mutation, outside the lock.
type Store struct {
	mu       sync.RWMutex
	slots    []Mark // zero candidate = empty slot
	onChange []func()
}

// NewStore creates a store with the given number of slots.
func NewStore(maxSlots int) *Store {
	if maxSlots <= 0 {
		maxSlots = DefaultMaxSlots
	}
	return &Store{slots: make([]Mark, maxSlots)}
}

// Set marks a candidate. If it is already marked the existing slot is
// returned unchanged; otherwise the first empty slot is used, or slot
// 0 when every slot is taken.
func (s *Store) Set(cand corpus.Candidate) int {
	if cand.IsZero() {
		return -1
	}

	s.mu.Lock()
	if slot, ok := s.slotOfLocked(cand); ok {
		s.mu.Unlock()
		return slot
	}

	slot := 0
	for i, m := range s.slots {
		if m.Candidate.IsZero() {
			slot = i
			break
		}
	}
	s.slots[slot] = Mark{
		Candidate:   cand,
		DisplayName: cand.Base(),
	}
	s.mu.Unlock()

	s.notify()
	return slot
}

// Get returns the mark in the given slot.
func (s *Store) Get(slot int) (Mark, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if slot < 0 || slot >= len(s.slots) || s.slots[slot].Candidate.IsZero() {
		return Mark{}, false
	}
	return s.slots[slot], true
}

// Remove clears a slot. Returns false if the slot was already empty
// or out of range.
func (s *Store) Remove(slot int) bool {
	s.mu.Lock()
	if slot < 0 || slot >= len(s.slots) || s.slots[slot].Candidate.IsZero() {
		s.mu.Unlock()
		return false
	}
	s.slots[slot] = Mark{}
	s.mu.Unlock()

	s.notify()
	return true
}

// RemoveCandidate clears the slot holding cand, if any. Used when a
// marked path disappears from the corpus.
func (s *Store) RemoveCandidate(cand corpus.Candidate) bool {
	s.mu.Lock()
	slot, ok := s.slotOfLocked(cand)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.slots[slot] = Mark{}
	s.mu.Unlock()

	s.notify()
	return true
}

// Clear empties every slot.
func (s *Store) Clear() {
	s.mu.Lock()
	for i := range s.slots {
		s.slots[i] = Mark{}
	}
	s.mu.Unlock()

	s.notify()
}

// All returns the occupied slots in slot order.
func (s *Store) All() []SlotMark {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SlotMark, 0, len(s.slots))
	for i, m := range s.slots {
		if !m.Candidate.IsZero() {
			out = append(out, SlotMark{Slot: i, Mark: m})
		}
	}
	return out
}

// SlotOf returns the slot holding cand.
func (s *Store) SlotOf(cand corpus.Candidate) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slotOfLocked(cand)
}

// Len returns the number of occupied slots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.slots {
		if !m.Candidate.IsZero() {
			n++
		}
	}
	return n
}

// MaxSlots returns the slot capacity.
func (s *Store) MaxSlots() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// Seed replaces the slot contents from persisted state. Entries with
// out-of-range slots or zero candidates are ignored.
func (s *Store) Seed(entries []SlotMark) {
	s.mu.Lock()
	for i := range s.slots {
		s.slots[i] = Mark{}
	}
	for _, e := range entries {
		if e.Slot < 0 || e.Slot >= len(s.slots) || e.Mark.Candidate.IsZero() {
			continue
		}
		m := e.Mark
		if m.DisplayName == "" {
			m.DisplayName = m.Candidate.Base()
		}
		s.slots[e.Slot] = m
	}
	s.mu.Unlock()

	s.notify()
}

// OnChange registers a callback invoked after every mutation.
// Callbacks must not mutate the store.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *Store) slotOfLocked(cand corpus.Candidate) (int, bool) {
	for i, m := range s.slots {
		if m.Candidate == cand {
			return i, true
		}
	}
	return 0, false
}

func (s *Store) notify() {
	s.mu.RLock()
	callbacks := make([]func(), len(s.onChange))
	copy(callbacks, s.onChange)
	s.mu.RUnlock()

	for _, fn := range callbacks {
		fn()
	}
}
