package parser

import (
	"testing"

	"github.com/genivia/reflexgo/internal/position"
)

func TestParseAssignsSequentialRules(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		rules   int
	}{
		{"single alternative", "abc", 1},
		{"two alternatives", "a|b", 2},
		{"three alternatives", "a|bb|ccc", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse(tt.pattern, Flags{Escape: '\\'})
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.pattern, err)
			}
			if res.Rules != tt.rules {
				t.Errorf("Rules = %d, want %d", res.Rules, tt.rules)
			}
		})
	}
}

func TestParseRejectsUnmatchedParen(t *testing.T) {
	_, err := Parse("(ab", Flags{Escape: '\\'})
	if err == nil {
		t.Fatal("expected a syntax error for an unmatched '('")
	}
	if _, ok := err.(*SyntaxError); !ok {
		t.Fatalf("error type = %T, want *SyntaxError", err)
	}
}

func TestParseRejectsInvertedBound(t *testing.T) {
	_, err := Parse("a{5,2}", Flags{Escape: '\\'})
	if err == nil {
		t.Fatal("expected a range error for an inverted {n,m} bound")
	}
	se, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("error type = %T, want *SyntaxError", err)
	}
	if !se.Range {
		t.Fatalf("SyntaxError.Range = false, want true for an out-of-range bound")
	}
}

func TestParseStartPositionsAreNonEmpty(t *testing.T) {
	for _, pattern := range []string{"a", "a*", "a|b", "(a)(b)", "a{0,3}"} {
		res, err := Parse(pattern, Flags{Escape: '\\'})
		if err != nil {
			t.Fatalf("Parse(%q): %v", pattern, err)
		}
		if res.Start.Empty() {
			t.Errorf("Parse(%q) produced an empty start set", pattern)
		}
	}
}

func TestParseNullableStarAcceptsEmptyMatch(t *testing.T) {
	res, err := Parse("a*", Flags{Escape: '\\'})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	foundAccept := false
	for _, p := range res.Start.Items() {
		if p.Accept() && p.Accepts() == 1 {
			foundAccept = true
		}
	}
	if !foundAccept {
		t.Fatal("a* should be nullable: its start set should contain an accepting position")
	}
}

func TestParseLookaheadRecordsSpan(t *testing.T) {
	res, err := Parse("ab/cd", Flags{Escape: '\\', Lookahead: true})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rules := res.Lookahead.Rules()
	if len(rules) == 0 {
		t.Fatal("expected at least one rule with a recorded lookahead span")
	}
	spans := res.Lookahead.Rule(rules[0]).Spans()
	if len(spans) == 0 {
		t.Fatal("expected at least one lookahead span for rule 1")
	}
}

// TestParseLookaheadPartitionsByRule covers the second top-level rule
// of a multi-rule pattern carrying the lookahead: its span must land in
// LookaheadMap's bucket for rule 2, not rule 1 or an unpartitioned
// bucket 0, per LookaheadMap's documented "rule index -> ranges
// attached to that rule" contract.
func TestParseLookaheadPartitionsByRule(t *testing.T) {
	res, err := Parse("ab|cd/ef", Flags{Escape: '\\', Lookahead: true})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Rules != 2 {
		t.Fatalf("Rules = %d, want 2", res.Rules)
	}
	if res.Lookahead.Rule(1).Len() != 0 {
		t.Fatalf("rule 1 ('ab') has no lookahead, but bucket 1 has %d span(s)", res.Lookahead.Rule(1).Len())
	}
	if res.Lookahead.Rule(2).Len() == 0 {
		t.Fatal("rule 2's lookahead span did not land in LookaheadMap bucket 2")
	}
	if res.Lookahead.Rule(0).Len() != 0 {
		t.Fatal("lookahead span landed in the unpartitioned bucket 0 instead of its owning rule")
	}
}

func TestParseBoundUnrollsIterations(t *testing.T) {
	unbounded, err := Parse("a", Flags{Escape: '\\'})
	if err != nil {
		t.Fatalf("Parse(a): %v", err)
	}
	bounded, err := Parse("a{3}", Flags{Escape: '\\'})
	if err != nil {
		t.Fatalf("Parse(a{3}): %v", err)
	}
	if bounded.Follow == nil || unbounded.Follow == nil {
		t.Fatal("Follow relation should never be nil after a successful parse")
	}
	maxIter := position.Index(0)
	for _, p := range bounded.Follow.Keys() {
		if p.Iter() > maxIter {
			maxIter = p.Iter()
		}
	}
	if maxIter == 0 {
		t.Fatal("a{3} should carry a nonzero iteration index on at least one followpos key")
	}
}
