package corpus

import "path"

// RootID identifies a workspace root when multiple roots are open.
// Single-root workspaces may use the zero value throughout.
type RootID string

// Candidate is a single project-relative path eligible for matching.
// Candidates are immutable once produced.
type Candidate struct {
	// Root identifies the workspace root the path belongs to.
	Root RootID

	// Path is the slash-separated path relative to Root.
	Path string
}

// key uniquely identifies a candidate for deduplication.
type key struct {
	root RootID
	path string
}

func (c Candidate) dedupeKey() key {
	return key{root: c.Root, path: c.Path}
}

// Base returns the final path segment (the file's base name).
func (c Candidate) Base() string {
	return path.Base(c.Path)
}

// IsZero reports whether the candidate is the zero value.
func (c Candidate) IsZero() bool {
	return c.Root == "" && c.Path == ""
}

// Less orders candidates by root, then path. Used for the canonical
// snapshot ordering so identical refreshes yield identical snapshots.
func (c Candidate) Less(other Candidate) bool {
	if c.Root != other.Root {
		return c.Root < other.Root
	}
	return c.Path < other.Path
}
