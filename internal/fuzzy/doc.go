// Package fuzzy implements the subsequence matcher and path-aware
// scorer behind the file finder.
//
// A query matches a candidate when every query character appears in
// the candidate in order, not necessarily contiguously. Matching is
// case-insensitive over Unicode code points; exact-case agreement
// only nudges the score upward. Scoring favors, in order: long
// contiguous runs, matches at path-segment starts, matches inside the
// base name, and shorter candidates.
package fuzzy
