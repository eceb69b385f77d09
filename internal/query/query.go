// Package query parses raw picker input into a fuzzy-match text and
// an optional goto position.
//
// A trailing ":<line>" or ":<line>:<column>" suffix (1-based) is
// stripped from the match text, and input that is nothing but
// "<line>:<column>" is a bare goto position with no match text.
// Malformed suffixes are never an error: they stay part of the
// literal match text.
package query

import (
	"strconv"
	"strings"
)

// Query is the parsed form of one picker input string. Derived purely
// from the raw input; it carries no state of its own.
type Query struct {
	// Raw is the input exactly as typed.
	Raw string

	// Text is the fuzzy-match portion with any position suffix removed.
	Text string

	// Line and Col are the 1-based goto position. Valid only when the
	// corresponding Has flag is set; Col is never set without Line.
	Line int
	Col  int

	HasLine bool
	HasCol  bool
}

// IsEmpty reports whether the query asks for nothing: no match text
// and no position. The picker shows the recents list for it.
func (q Query) IsEmpty() bool {
	return q.Text == "" && !q.HasLine
}

// HasPosition reports whether a goto line was parsed.
func (q Query) HasPosition() bool {
	return q.HasLine
}

// PositionOnly reports whether the query names a position but no match
// text, meaning "current file at this line".
func (q Query) PositionOnly() bool {
	return q.Text == "" && q.HasLine
}

// Parse splits raw input into match text and an optional position.
// Parsing is pure and never fails; anything that is not a well-formed
// position suffix is treated as literal match text.
func Parse(raw string) Query {
	q := Query{Raw: raw, Text: raw}

	last := strings.LastIndexByte(raw, ':')
	if last < 0 {
		return q
	}

	// Try ":<line>:<col>" first, then ":<line>".
	if prev := strings.LastIndexByte(raw[:last], ':'); prev >= 0 {
		line, okLine := parseNumber(raw[prev+1 : last])
		col, okCol := parseNumber(raw[last+1:])
		if okLine && okCol {
			q.Text = raw[:prev]
			q.Line, q.HasLine = line, true
			q.Col, q.HasCol = col, true
			return q
		}
	} else if line, okLine := parseNumber(raw[:last]); okLine {
		// The whole input is "<line>:<col>": a bare goto position,
		// not a search for a file named after the line number.
		if col, okCol := parseNumber(raw[last+1:]); okCol {
			q.Text = ""
			q.Line, q.HasLine = line, true
			q.Col, q.HasCol = col, true
			return q
		}
	}

	if line, ok := parseNumber(raw[last+1:]); ok {
		q.Text = raw[:last]
		q.Line, q.HasLine = line, true
	}

	return q
}

// parseNumber parses a non-empty string of ASCII digits. A bare colon
// (empty digits) or any non-digit makes the suffix literal text.
func parseNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
