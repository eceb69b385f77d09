package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Pattern is a compiled query. Compile once per search generation and
// reuse it across every candidate; a Pattern is read-only after
// Compile and safe for concurrent use.
type Pattern struct {
	raw     string
	runes   []rune // original case, NFC
	folded  []rune // lowercased, same length as runes
	weights Weights
}

// Match is the outcome of scoring one candidate against a Pattern.
type Match struct {
	// Score is the match quality; higher is better, always >= 1.
	Score int

	// Positions are the strictly increasing rune indices of the
	// matched characters in the candidate. Highlighting only; they
	// carry no ranking weight of their own.
	Positions []int
}

// Compile builds a Pattern from query text using the default weights.
func Compile(query string) *Pattern {
	return CompileWeighted(query, DefaultWeights())
}

// CompileWeighted builds a Pattern with custom scoring weights.
// The query is NFC-normalized so composed and decomposed input match
// the same candidates.
func CompileWeighted(query string, w Weights) *Pattern {
	query = strings.TrimSpace(query)
	runes := []rune(norm.NFC.String(query))
	folded := make([]rune, len(runes))
	for i, r := range runes {
		folded[i] = unicode.ToLower(r)
	}
	return &Pattern{
		raw:     query,
		runes:   runes,
		folded:  folded,
		weights: w,
	}
}

// Raw returns the trimmed query text the pattern was compiled from.
func (p *Pattern) Raw() string { return p.raw }

// Empty reports whether the pattern has no characters to match.
func (p *Pattern) Empty() bool { return len(p.folded) == 0 }

// Len returns the number of query characters.
func (p *Pattern) Len() int { return len(p.folded) }

// Match scores a candidate. Returns false when any query character is
// missing from the candidate; a failed match is not an error.
// Re-matching the same candidate is deterministic.
func (p *Pattern) Match(candidate string) (Match, bool) {
	if p.Empty() {
		return Match{}, false
	}

	orig := []rune(norm.NFC.String(candidate))
	if len(orig) < len(p.folded) {
		return Match{}, false
	}
	folded := make([]rune, len(orig))
	for i, r := range orig {
		folded[i] = unicode.ToLower(r)
	}

	positions, ok := p.align(folded)
	if !ok {
		return Match{}, false
	}

	score := p.weights.score(p.runes, orig, positions)
	return Match{Score: score, Positions: positions}, true
}

// align locates the query as a subsequence of the folded candidate.
// A forward scan proves feasibility and finds the earliest possible
// end of the match; a backward scan from that end then pulls each
// position as far right as it can go, which clusters matches into
// runs and toward the base name.
func (p *Pattern) align(folded []rune) ([]int, bool) {
	qi := 0
	last := -1
	for i := 0; i < len(folded) && qi < len(p.folded); i++ {
		if folded[i] == p.folded[qi] {
			qi++
			last = i
		}
	}
	if qi != len(p.folded) {
		return nil, false
	}

	positions := make([]int, len(p.folded))
	ti := last
	for qi := len(p.folded) - 1; qi >= 0; qi-- {
		for folded[ti] != p.folded[qi] {
			ti--
		}
		positions[qi] = ti
		ti--
	}
	return positions, true
}
