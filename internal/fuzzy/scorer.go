package fuzzy

import "unicode"

// Weights configures the scoring bonuses and penalties. The defaults
// keep the factors ordered: contiguous runs outweigh segment starts,
// segment starts outweigh base-name placement, and exact-case
// agreement only breaks ties upward.
type Weights struct {
	// Base is the starting score for any successful match.
	Base int

	// ConsecutiveBonus is added for each matched character that
	// directly follows the previous match.
	ConsecutiveBonus int

	// SegmentStartBonus is added for each match at the start of a path
	// segment: the first character, or one following a separator.
	SegmentStartBonus int

	// WordBoundaryBonus is added for matches at boundaries inside a
	// segment (after punctuation, or a lower-to-upper case change).
	WordBoundaryBonus int

	// BasenameBonus is added for each match inside the final path
	// segment.
	BasenameBonus int

	// CaseMatchBonus is added when the candidate character's case
	// equals the query character's case exactly.
	CaseMatchBonus int

	// GapPenalty is subtracted per unmatched character between the
	// first and last match.
	GapPenalty int

	// LeadingPenalty is subtracted per character before the first
	// match.
	LeadingPenalty int

	// LengthBonusCeiling grants (ceiling - candidate length) points to
	// short candidates, clamped at zero. Less noise per matched
	// character ranks higher. The gap between two candidates can reach
	// ceiling-1 points, so a much shorter candidate may outrank a
	// longer one that holds a single extra SegmentStartBonus.
	LengthBonusCeiling int
}

// DefaultWeights returns the scoring weights used by the finder.
func DefaultWeights() Weights {
	return Weights{
		Base:               100,
		ConsecutiveBonus:   32,
		SegmentStartBonus:  24,
		WordBoundaryBonus:  12,
		BasenameBonus:      8,
		CaseMatchBonus:     2,
		GapPenalty:         2,
		LeadingPenalty:     1,
		LengthBonusCeiling: 32,
	}
}

// score computes the match score for aligned positions. queryRunes
// and orig preserve original case; positions index orig.
func (w Weights) score(queryRunes, orig []rune, positions []int) int {
	if len(positions) == 0 {
		return 0
	}

	score := w.Base

	lastSep := -1
	for i := len(orig) - 1; i >= 0; i-- {
		if isSeparator(orig[i]) {
			lastSep = i
			break
		}
	}

	for qi, idx := range positions {
		if qi > 0 && idx == positions[qi-1]+1 {
			score += w.ConsecutiveBonus
		}
		switch {
		case idx == 0 || isSeparator(orig[idx-1]):
			score += w.SegmentStartBonus
		case isBoundary(orig, idx):
			score += w.WordBoundaryBonus
		}
		if idx > lastSep {
			score += w.BasenameBonus
		}
		if orig[idx] == queryRunes[qi] {
			score += w.CaseMatchBonus
		}
	}

	if n := len(positions); n > 1 {
		gap := positions[n-1] - positions[0] - (n - 1)
		score -= gap * w.GapPenalty
	}
	score -= positions[0] * w.LeadingPenalty

	if len(orig) < w.LengthBonusCeiling {
		score += w.LengthBonusCeiling - len(orig)
	}

	if score < 1 {
		score = 1
	}
	return score
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// isBoundary reports a word boundary inside a segment: after
// punctuation or whitespace, or at a lower-to-upper case change.
func isBoundary(runes []rune, idx int) bool {
	if idx <= 0 || idx >= len(runes) {
		return false
	}
	prev := runes[idx-1]
	if unicode.IsPunct(prev) || unicode.IsSpace(prev) {
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(runes[idx])
}
