package fuzzy

import (
	"reflect"
	"testing"
)

func mustMatch(t *testing.T, p *Pattern, candidate string) Match {
	t.Helper()
	m, ok := p.Match(candidate)
	if !ok {
		t.Fatalf("expected %q to match %q", p.Raw(), candidate)
	}
	return m
}

func TestMatchSubsequence(t *testing.T) {
	tests := []struct {
		query     string
		candidate string
		want      bool
	}{
		{"main", "src/main.rs", true},
		{"srm", "src/main.rs", true},
		{"mian", "src/main.rs", false}, // out of order
		{"xyz", "src/main.rs", false},
		{"main", "man", false}, // missing character
		{"MAIN", "src/main.rs", true},
		{"main", "src/MAIN.RS", true},
		{"m", "m", true},
		{"mm", "m", false}, // candidate shorter than query
	}

	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.candidate, func(t *testing.T) {
			_, ok := Compile(tt.query).Match(tt.candidate)
			if ok != tt.want {
				t.Errorf("Match = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestEmptyPatternNeverMatches(t *testing.T) {
	for _, q := range []string{"", "   "} {
		p := Compile(q)
		if !p.Empty() {
			t.Errorf("Compile(%q) not empty", q)
		}
		if _, ok := p.Match("src/main.rs"); ok {
			t.Errorf("empty pattern matched")
		}
	}
}

func TestPositionsStrictlyIncreasing(t *testing.T) {
	p := Compile("mts")
	m := mustMatch(t, p, "tests/main_test.rs")

	if len(m.Positions) != 3 {
		t.Fatalf("got %d positions, want 3", len(m.Positions))
	}
	for i := 1; i < len(m.Positions); i++ {
		if m.Positions[i] <= m.Positions[i-1] {
			t.Fatalf("positions not strictly increasing: %v", m.Positions)
		}
	}
}

func TestMatchDeterministic(t *testing.T) {
	p := Compile("main")
	first := mustMatch(t, p, "tests/main_test.rs")
	second := mustMatch(t, p, "tests/main_test.rs")

	if first.Score != second.Score || !reflect.DeepEqual(first.Positions, second.Positions) {
		t.Errorf("re-scoring differs: %+v vs %+v", first, second)
	}
}

func TestBasenameRanksAboveEarlierPathMatch(t *testing.T) {
	p := Compile("main")

	best := mustMatch(t, p, "src/main.rs")
	worse := mustMatch(t, p, "tests/main_test.rs")

	if best.Score <= worse.Score {
		t.Errorf("src/main.rs (%d) should outrank tests/main_test.rs (%d)",
			best.Score, worse.Score)
	}
}

func TestContiguousRunBeatsScattered(t *testing.T) {
	p := Compile("abc")

	run := mustMatch(t, p, "x/abcdef.go")
	scattered := mustMatch(t, p, "x/aXbXcXd.go")

	if run.Score <= scattered.Score {
		t.Errorf("contiguous run (%d) should beat scattered match (%d)",
			run.Score, scattered.Score)
	}
}

func TestAlignmentPrefersLateRun(t *testing.T) {
	// The greedy forward scan alone would pick a@0 then b@3; the
	// backward pass must tighten this to the a_b run at 2..3.
	p := Compile("ab")
	m := mustMatch(t, p, "a_ab")

	want := []int{2, 3}
	if !reflect.DeepEqual(m.Positions, want) {
		t.Errorf("positions = %v, want %v", m.Positions, want)
	}
}

func TestSegmentStartBeatsMidSegment(t *testing.T) {
	p := Compile("con")

	atStart := mustMatch(t, p, "src/config.go")
	midWord := mustMatch(t, p, "src/bacon.go")

	if atStart.Score <= midWord.Score {
		t.Errorf("segment-start match (%d) should beat mid-segment (%d)",
			atStart.Score, midWord.Score)
	}
}

func TestShorterCandidateWinsAtSameQuality(t *testing.T) {
	p := Compile("lib")

	short := mustMatch(t, p, "src/lib.rs")
	long := mustMatch(t, p, "src/library/lib_support.rs")

	if short.Score <= long.Score {
		t.Errorf("shorter candidate (%d) should beat longer (%d)", short.Score, long.Score)
	}
}

func TestLengthGapCanOutweighSegmentStart(t *testing.T) {
	// The length bonus is deliberately allowed to dominate a single
	// segment-start difference when the candidates are far apart in
	// length: tiny candidates are almost all signal.
	p := Compile("ab")

	tiny := mustMatch(t, p, "xab")
	long := mustMatch(t, p, "verylongdirname/ab.go")

	if tiny.Score <= long.Score {
		t.Errorf("tiny candidate (%d) should outrank long segment-start match (%d)",
			tiny.Score, long.Score)
	}
}

func TestCaseAgreementBreaksTiesUpward(t *testing.T) {
	exact := mustMatch(t, Compile("Main"), "src/Main.java")
	folded := mustMatch(t, Compile("main"), "src/Main.java")

	if exact.Score <= folded.Score {
		t.Errorf("case-exact match (%d) should edge out folded match (%d)",
			exact.Score, folded.Score)
	}
}

func TestCamelCaseBoundary(t *testing.T) {
	p := Compile("fc")

	camel := mustMatch(t, p, "src/FileCopy.go")
	plain := mustMatch(t, p, "src/filecopy.go")

	if camel.Score <= plain.Score {
		t.Errorf("camel-case boundary match (%d) should beat plain (%d)",
			camel.Score, plain.Score)
	}
}

func TestUnicodeCodepointAware(t *testing.T) {
	p := Compile("hél")
	m := mustMatch(t, p, "docs/héllo.md")

	// Positions are rune indices, never byte offsets.
	want := []int{5, 6, 7}
	if !reflect.DeepEqual(m.Positions, want) {
		t.Errorf("positions = %v, want %v", m.Positions, want)
	}
}

func TestUnicodeNormalizedForms(t *testing.T) {
	// U+00E9 (composed) must match e + U+0301 (decomposed).
	p := Compile("café")
	if _, ok := p.Match("menu/café.txt"); !ok {
		t.Error("composed query should match decomposed candidate")
	}
}

func TestScoreNeverBelowOne(t *testing.T) {
	w := DefaultWeights()
	w.Base = 0
	w.LeadingPenalty = 100

	p := CompileWeighted("z", w)
	m := mustMatch(t, p, "aaaaaaaaaaaaaaaaaaaaz")
	if m.Score < 1 {
		t.Errorf("score %d, want >= 1", m.Score)
	}
}
