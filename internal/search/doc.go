// Package search orchestrates fuzzy search generations over corpus
// snapshots.
//
// Every keystroke starts a new generation: the coordinator snapshots
// the corpus, scores candidates across a worker pool with per-worker
// top-k heaps, merges and sorts the partial results, and publishes
// the ranked set only if its generation is still the latest one
// requested. Superseded generations finish (or bail out at the next
// context check) and are discarded; cancellation is cooperative,
// never preemptive.
package search
