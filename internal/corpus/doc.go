// Package corpus maintains the searchable set of project paths.
//
// The corpus is mutated only through Refresh and Apply, both of which
// build a fresh snapshot and swap it in atomically. Readers take an
// immutable Snapshot and are never affected by concurrent mutation,
// so no locks are held while a search scores candidates.
package corpus
