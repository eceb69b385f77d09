package logging

import (
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf strings.Builder
	l := New(Config{Level: LevelWarn, Output: &buf})

	l.Debug("debug msg")
	l.Info("info msg")
	l.Warn("warn msg")
	l.Error("error msg")

	out := buf.String()
	if strings.Contains(out, "debug msg") || strings.Contains(out, "info msg") {
		t.Errorf("below-threshold messages logged: %q", out)
	}
	if !strings.Contains(out, "warn msg") || !strings.Contains(out, "error msg") {
		t.Errorf("expected warn and error messages: %q", out)
	}
}

func TestFieldsAndPrefix(t *testing.T) {
	var buf strings.Builder
	l := New(Config{Level: LevelDebug, Output: &buf, Prefix: "quickopen"})

	l.WithComponent("search").WithField("gen", 3).Info("published %d results", 7)

	out := buf.String()
	for _, want := range []string{"quickopen:", "published 7 results", "component=search", "gen=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf strings.Builder
	l := New(Config{Level: LevelDebug, Output: &buf})

	_ = l.WithField("child", 1)
	l.Info("parent line")

	if strings.Contains(buf.String(), "child=1") {
		t.Errorf("parent logger picked up child field: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNopDiscards(t *testing.T) {
	// Must not panic and must not write anywhere.
	Nop().Error("nothing to see")
	Nop().WithField("k", "v").Info("still nothing")
}
