// Package encode turns a compacted DFA into a linear array of packed
// 32-bit opcodes, grounded on pattern.cpp's Pattern::encode_dfa.
package encode

import (
	"github.com/genivia/reflexgo/internal/charset"
	"github.com/genivia/reflexgo/internal/dfa"
)

// Opcode is a single 32-bit instruction. The top 3 bits hold a tag;
// the remaining 29 bits hold the tag's payload. GOTO splits its
// payload into a 9-bit lo, a 9-bit hi, and an 11-bit target opcode
// index; index 2047 is reserved for HaltTarget, so a table of 2047 or
// more opcodes is caught as CodeOverflow. Every other form uses the
// full 29 bits for one index.
type Opcode uint32

const (
	tagGoto byte = iota
	tagHalt
	tagRedo
	tagTake
	tagTail
	tagHead
)

const (
	tagShift    = 29
	goLoShift   = 20
	goHiShift   = 11
	goTargetMax = 1<<11 - 1
	payloadMax  = 1<<29 - 1
)

// HaltTarget marks a GOTO with no live successor (a dead transition).
const HaltTarget = goTargetMax

func pack(tag byte, payload uint32) Opcode {
	return Opcode(uint32(tag)<<tagShift | payload)
}

func opcodeHalt() Opcode            { return pack(tagHalt, 0) }
func opcodeRedo() Opcode            { return pack(tagRedo, 0) }
func opcodeTake(rule uint32) Opcode { return pack(tagTake, rule) }
func opcodeTail(idx uint32) Opcode  { return pack(tagTail, idx) }
func opcodeHead(idx uint32) Opcode  { return pack(tagHead, idx) }

func opcodeGoto(lo, hi charset.Char, target uint32) Opcode {
	return pack(tagGoto, uint32(lo)<<goLoShift|uint32(hi)<<goHiShift|target)
}

// Tag reports which instruction form op encodes.
func (op Opcode) Tag() byte { return byte(op >> tagShift) }

func (op Opcode) payload() uint32 { return uint32(op) & payloadMax }

// IsGoto, IsHalt, IsRedo, IsTake, IsTail, IsHead classify an opcode.
func (op Opcode) IsGoto() bool { return op.Tag() == tagGoto }
func (op Opcode) IsHalt() bool { return op.Tag() == tagHalt }
func (op Opcode) IsRedo() bool { return op.Tag() == tagRedo }
func (op Opcode) IsTake() bool { return op.Tag() == tagTake }
func (op Opcode) IsTail() bool { return op.Tag() == tagTail }
func (op Opcode) IsHead() bool { return op.Tag() == tagHead }

// Rule returns the accepting rule of a TAKE opcode.
func (op Opcode) Rule() uint32 { return op.payload() }

// Index returns the lookahead index of a TAIL or HEAD opcode.
func (op Opcode) Index() uint32 { return op.payload() }

// Range decodes a GOTO opcode's [lo,hi] character range and target.
func (op Opcode) Range() (lo, hi charset.Char, target uint32) {
	p := op.payload()
	lo = charset.Char((p >> goLoShift) & 0x1ff)
	hi = charset.Char((p >> goHiShift) & 0x1ff)
	target = p & 0x7ff
	return
}

// OverflowError reports that the compiled opcode table exceeds the
// encoder's addressable range, mirroring pattern.cpp's
// Error::CODE_OVERFLOW (always raised, independent of the w/r option).
type OverflowError struct {
	Message string
}

func (e *OverflowError) Error() string { return e.Message }

// Program is the encoded result: the opcode array, each state's
// starting index, and which rules are reachable from an accept.
type Program struct {
	Opcodes []Opcode
	Index   map[*dfa.State]int
	Accept  []bool // 1-based rule i is Accept[i-1]
}

// Encode performs the two-pass count-then-emit translation of a
// compacted DFA into a Program, grounded on pattern.cpp's
// Pattern::encode_dfa.
func Encode(start *dfa.State, numRules int) (*Program, error) {
	index := make(map[*dfa.State]int)
	nop := 0
	for st := start; st != nil; st = nextState(st) {
		index[st] = nop
		hi := charset.Char(0)
		for _, e := range st.Edges {
			if e.Lo == hi {
				hi = e.Hi + 1
			}
			nop++
			if charset.IsMeta(e.Lo) {
				nop += int(e.Hi-e.Lo)
			}
		}
		if hi <= 0xff {
			nop++ // terminating HALT/dead edge
		}
		n := len(st.Tails) + len(st.Heads)
		if st.Accept > 0 || st.Redo {
			n++
		}
		nop += n
		if nop >= goTargetMax {
			return nil, &OverflowError{Message: "out of code memory"}
		}
	}

	opcodes := make([]Opcode, nop)
	pc := 0
	accept := make([]bool, numRules)
	for st := start; st != nil; st = nextState(st) {
		switch {
		case st.Redo:
			opcodes[pc] = opcodeRedo()
			pc++
		case st.Accept > 0:
			opcodes[pc] = opcodeTake(uint32(st.Accept))
			pc++
			if int(st.Accept) <= len(accept) {
				accept[st.Accept-1] = true
			}
		}
		for _, idx := range sortedInts(st.Tails) {
			opcodes[pc] = opcodeTail(uint32(idx))
			pc++
		}
		for _, idx := range sortedInts(st.Heads) {
			opcodes[pc] = opcodeHead(uint32(idx))
			pc++
		}
		for i := len(st.Edges) - 1; i >= 0; i-- {
			e := st.Edges[i]
			target := uint32(HaltTarget)
			if e.Target != nil {
				target = uint32(index[e.Target])
			}
			if !charset.IsMeta(e.Lo) {
				opcodes[pc] = opcodeGoto(e.Lo, e.Hi, target)
				pc++
			} else {
				for c := e.Lo; c <= e.Hi; c++ {
					opcodes[pc] = opcodeGoto(c, c, target)
					pc++
				}
			}
		}
		if lo, ok := deadEdgeLo(st); ok {
			opcodes[pc] = opcodeGoto(lo, 0xff, uint32(HaltTarget))
			pc++
		}
	}
	return &Program{Opcodes: opcodes[:pc], Index: index, Accept: accept}, nil
}

// deadEdgeLo reports the [lo,0xff] dead edge a state needs to route
// every byte its real edges don't cover to HALT, grounded on
// pattern.cpp's encode_dfa: `if (hi <= 0xff) state->edges[hi] = (0xff,
// NULL);` — the dead edge's lo is hi itself, not hi+1, and hi starts at
// 0 so a state with no edge starting at byte 0 still gets its dead edge
// anchored at lo=0, not lo=0x100.
func deadEdgeLo(st *dfa.State) (charset.Char, bool) {
	hi := charset.Char(0)
	for _, e := range st.Edges {
		if e.Lo == hi {
			hi = e.Hi + 1
		}
	}
	if hi > 0xff {
		return 0, false
	}
	return hi, true
}

func sortedInts(s []int) []int {
	out := append([]int{}, s...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// nextState walks the insertion-order traversal list. dfa.State does
// not export its link directly; dfa.Next is provided for this
// purpose.
func nextState(st *dfa.State) *dfa.State {
	return dfa.Next(st)
}
