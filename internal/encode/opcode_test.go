package encode

import (
	"testing"

	"github.com/genivia/reflexgo/internal/cursor"
	"github.com/genivia/reflexgo/internal/dfa"
	"github.com/genivia/reflexgo/internal/parser"
)

func TestOpcodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		op   Opcode
	}{
		{"halt", opcodeHalt()},
		{"redo", opcodeRedo()},
		{"take rule 3", opcodeTake(3)},
		{"tail index 5", opcodeTail(5)},
		{"head index 0", opcodeHead(0)},
		{"goto range", opcodeGoto('a', 'z', 17)},
		{"goto dead", opcodeGoto(0, 0xff, HaltTarget)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			switch tt.name {
			case "halt":
				if !tt.op.IsHalt() {
					t.Error("expected IsHalt")
				}
			case "redo":
				if !tt.op.IsRedo() {
					t.Error("expected IsRedo")
				}
			case "take rule 3":
				if !tt.op.IsTake() || tt.op.Rule() != 3 {
					t.Errorf("Rule() = %d, want 3", tt.op.Rule())
				}
			case "tail index 5":
				if !tt.op.IsTail() || tt.op.Index() != 5 {
					t.Errorf("Index() = %d, want 5", tt.op.Index())
				}
			case "head index 0":
				if !tt.op.IsHead() || tt.op.Index() != 0 {
					t.Errorf("Index() = %d, want 0", tt.op.Index())
				}
			case "goto range":
				lo, hi, target := tt.op.Range()
				if lo != 'a' || hi != 'z' || target != 17 {
					t.Errorf("Range() = (%v,%v,%v), want ('a','z',17)", lo, hi, target)
				}
			case "goto dead":
				_, _, target := tt.op.Range()
				if target != HaltTarget {
					t.Errorf("Range() target = %d, want HaltTarget", target)
				}
			}
		})
	}
}

func TestOpcodeTagsAreMutuallyExclusive(t *testing.T) {
	ops := []Opcode{opcodeHalt(), opcodeRedo(), opcodeTake(1), opcodeTail(1), opcodeHead(1), opcodeGoto(0, 1, 2)}
	classify := func(op Opcode) []bool {
		return []bool{op.IsGoto(), op.IsHalt(), op.IsRedo(), op.IsTake(), op.IsTail(), op.IsHead()}
	}
	for _, op := range ops {
		n := 0
		for _, b := range classify(op) {
			if b {
				n++
			}
		}
		if n != 1 {
			t.Errorf("opcode %#x classifies as %d forms, want exactly 1", uint32(op), n)
		}
	}
}

// buildDFA runs a tiny pattern through the parser and dfa packages,
// enough to give Encode a real state chain without depending on the
// compiler package (which itself depends on encode).
func buildDFA(t *testing.T, pattern string) *dfa.State {
	t.Helper()
	flags := parser.Flags{Escape: '\\'}
	res, err := parser.Parse(pattern, flags)
	if err != nil {
		t.Fatalf("Parse(%q): %v", pattern, err)
	}
	cur := cursor.New(pattern, '\\')
	start, err := dfa.Build(res.Start, res.Follow, res.Modifiers, res.Lookahead, cur, flags, res.Rules)
	if err != nil {
		t.Fatalf("Build(%q): %v", pattern, err)
	}
	dfa.CompactDFA(start)
	return start
}

func TestEncodeProducesReachableAccept(t *testing.T) {
	start := buildDFA(t, "a")
	prog, err := Encode(start, 1)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(prog.Accept) != 1 || !prog.Accept[0] {
		t.Fatalf("Accept = %v, want [true]", prog.Accept)
	}
	if len(prog.Opcodes) == 0 {
		t.Fatal("Encode produced no opcodes")
	}
}

// TestEncodeDeadEdgeIsNeverInverted compiles "a", whose only real edge
// is [0x61,0x61] and does not start at byte 0. The state's dead edge
// is [0x00,0xff], emitted after the real edge so it catches every
// other byte; whatever dead edge a state gets, lo must never exceed hi
// (an inverted range matches no byte, silently dropping the HALT
// fallback).
func TestEncodeDeadEdgeIsNeverInverted(t *testing.T) {
	start := buildDFA(t, "a")
	prog, err := Encode(start, 1)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	found := false
	for i, op := range prog.Opcodes {
		if !op.IsGoto() {
			continue
		}
		lo, hi, target := op.Range()
		if target != HaltTarget {
			continue
		}
		found = true
		if lo > hi {
			t.Errorf("opcode %d is an inverted dead edge [%#x,%#x], matches no byte", i, lo, hi)
		}
	}
	if !found {
		t.Fatal("no dead edge (HaltTarget GOTO) found in a state whose only edge doesn't start at byte 0")
	}
}

func TestEncodeOpcodeBoundsWithinAddressableRange(t *testing.T) {
	start := buildDFA(t, "[a-z]+[0-9]*")
	prog, err := Encode(start, 1)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for i, op := range prog.Opcodes {
		if op.IsGoto() {
			_, _, target := op.Range()
			if target > goTargetMax {
				t.Errorf("opcode %d target %d exceeds goTargetMax %d", i, target, goTargetMax)
			}
		}
	}
}
