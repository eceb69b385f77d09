// Package state persists the finder's recents list and mark slots.
//
// State lives inside a JSON file the host application may share; only
// the "quickopen" subtree is read or rewritten, so foreign keys
// survive round-trips untouched.
package state

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/quickopen/internal/corpus"
	"github.com/dshills/quickopen/internal/marks"
)

const (
	recentsPath = "quickopen.recents"
	marksPath   = "quickopen.marks"
)

// State is the persisted finder state.
type State struct {
	// Recents is the recently-opened list, most recent first.
	Recents []corpus.Candidate

	// Marks are the occupied mark slots.
	Marks []marks.SlotMark
}

// Load reads persisted state from path. A missing file is empty
// state, not an error; a file that is not valid JSON is treated the
// same way, so a corrupt state file never blocks startup.
func Load(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("reading state file %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return State{}, nil
	}

	var st State
	for _, entry := range gjson.GetBytes(data, recentsPath).Array() {
		cand := corpus.Candidate{
			Root: corpus.RootID(entry.Get("root").String()),
			Path: entry.Get("path").String(),
		}
		if cand.Path == "" {
			continue
		}
		st.Recents = append(st.Recents, cand)
	}

	for _, entry := range gjson.GetBytes(data, marksPath).Array() {
		cand := corpus.Candidate{
			Root: corpus.RootID(entry.Get("root").String()),
			Path: entry.Get("path").String(),
		}
		if cand.Path == "" {
			continue
		}
		st.Marks = append(st.Marks, marks.SlotMark{
			Slot: int(entry.Get("slot").Int()),
			Mark: marks.Mark{
				Candidate:   cand,
				DisplayName: entry.Get("name").String(),
			},
		})
	}

	return st, nil
}

// Save writes st to path, preserving any unrelated keys already in
// the file. The write is atomic: a temp file in the same directory is
// renamed over the target.
func Save(path string, st State) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("reading state file %s: %w", path, err)
		}
		data = []byte("{}")
	}
	if !gjson.ValidBytes(data) {
		data = []byte("{}")
	}

	recents := make([]map[string]any, len(st.Recents))
	for i, cand := range st.Recents {
		recents[i] = map[string]any{
			"root": string(cand.Root),
			"path": cand.Path,
		}
	}
	if data, err = sjson.SetBytes(data, recentsPath, recents); err != nil {
		return fmt.Errorf("encoding recents: %w", err)
	}

	markEntries := make([]map[string]any, len(st.Marks))
	for i, sm := range st.Marks {
		markEntries[i] = map[string]any{
			"slot": sm.Slot,
			"root": string(sm.Mark.Candidate.Root),
			"path": sm.Mark.Candidate.Path,
			"name": sm.Mark.DisplayName,
		}
	}
	if data, err = sjson.SetBytes(data, marksPath, markEntries); err != nil {
		return fmt.Errorf("encoding marks: %w", err)
	}

	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".quickopen-state-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing state file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
