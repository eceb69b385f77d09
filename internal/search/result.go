package search

import (
	"sort"

	"github.com/dshills/quickopen/internal/corpus"
	"github.com/dshills/quickopen/internal/query"
)

// Result is one scored candidate. Produced fresh per search and never
// mutated afterwards.
type Result struct {
	// Candidate is the matched path.
	Candidate corpus.Candidate

	// Score is the ranking score, higher first.
	Score int

	// Positions are the matched rune indices in the candidate path,
	// for highlighting by the presenter.
	Positions []int
}

// ResultSet is a ranked, generation-tagged sequence of results.
type ResultSet struct {
	// Generation identifies the search request that produced the set.
	// The presenter can use it to discard stale updates defensively.
	Generation uint64

	// Query is the parsed query the set answers.
	Query query.Query

	// Results are ordered by score descending, then shorter path,
	// then lexicographic.
	Results []Result
}

// Publisher receives ranked result sets. Publish is called at most
// once per generation and only while that generation is the latest
// requested one; calls arrive in increasing generation order.
// Implementations must return promptly and must not call back into
// the Coordinator.
type Publisher interface {
	Publish(ResultSet)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ResultSet)

// Publish implements Publisher.
func (f PublisherFunc) Publish(set ResultSet) { f(set) }

// sortResults orders results by score descending with the
// deterministic tie-break: shorter path first, then lexicographic,
// then root id. Identical queries against the same snapshot always
// produce the same ordering.
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		return resultLess(results[i], results[j])
	})
}

func resultLess(a, b Result) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if len(a.Candidate.Path) != len(b.Candidate.Path) {
		return len(a.Candidate.Path) < len(b.Candidate.Path)
	}
	if a.Candidate.Path != b.Candidate.Path {
		return a.Candidate.Path < b.Candidate.Path
	}
	return a.Candidate.Root < b.Candidate.Root
}
