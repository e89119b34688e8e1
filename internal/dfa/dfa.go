// Package dfa builds a deterministic automaton directly from a
// followpos relation by subset construction over Position sets,
// grounded on pattern.cpp's Pattern::compile/compile_transition/
// transition.
package dfa

import (
	"sort"

	"github.com/genivia/reflexgo/internal/charset"
	"github.com/genivia/reflexgo/internal/cursor"
	"github.com/genivia/reflexgo/internal/parser"
	"github.com/genivia/reflexgo/internal/position"
)

// Edge is an outgoing transition over an inclusive character range.
type Edge struct {
	Lo, Hi charset.Char
	Target *State
}

// State is one DFA state: the canonical position set it represents,
// its accepting rule (0 if none), whether it is a negative-lookahead
// "redo" state, the lookahead head/tail indices active at this state,
// and its outgoing edges once compiled.
type State struct {
	ID     int
	Pos    *position.Set
	Accept position.Index
	Redo   bool
	Heads  []int
	Tails  []int
	Edges  []Edge

	next *State // insertion-order linked list, mirrors State::next in pattern.cpp
}

// move pairs a character set with the position set it transitions to,
// mirroring pattern.cpp's Move (first: Chars, second: Positions).
type move struct {
	chars *charset.Set
	to    *position.Set
}

// Next returns the state following st in insertion order, or nil at
// the end of the traversal list.
func Next(st *State) *State {
	return st.next
}

// Build runs the subset-construction worklist over the followpos
// relation, returning the start state of the resulting DFA.
func Build(start *position.Set, follow *position.Follow, mods *cursor.ModMap, lookahead *cursor.LookaheadMap, cur *cursor.Cursor, flags parser.Flags, numRules int) (*State, error) {
	trimLazy(start)
	first := &State{Pos: start}
	states := map[string]*State{canonicalKey(start): first}
	last := first
	nextID := 0
	for state := first; state != nil; state = state.next {
		state.ID = nextID
		nextID++
		moves, err := compileTransition(state, follow, mods, lookahead, cur, flags)
		if err != nil {
			return nil, err
		}
		for _, mv := range moves {
			pos := mv.to.Clone()
			trimLazy(pos)
			if pos.Empty() {
				continue
			}
			key := canonicalKey(pos)
			target, ok := states[key]
			if !ok {
				target = &State{Pos: pos}
				states[key] = target
				last.next = target
				last = target
			}
			for _, r := range mv.chars.Ranges() {
				state.Edges = append(state.Edges, Edge{Lo: r.Lo, Hi: r.Hi, Target: target})
			}
		}
		sort.Slice(state.Edges, func(i, j int) bool { return state.Edges[i].Lo < state.Edges[j].Lo })
	}
	return first, nil
}

func canonicalKey(pos *position.Set) string {
	buf := make([]byte, 0, pos.Len()*12)
	for _, p := range pos.Items() {
		buf = appendUint32(buf, uint32(p.Loc()))
		buf = appendUint16(buf, uint16(p.Iter()))
		buf = appendUint16(buf, uint16(p.Accepts()))
		buf = appendUint32(buf, uint32(p.Lazy()))
		flags := byte(0)
		if p.Accept() {
			flags |= 1
		}
		if p.Anchor() {
			flags |= 2
		}
		if p.Greedy() {
			flags |= 4
		}
		if p.Ticked() {
			flags |= 8
		}
		buf = append(buf, flags, 0)
	}
	return string(buf)
}

func appendUint32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendUint16(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

// compileTransition computes the accept/redo/heads/tails fields of
// state and the full list of character-set moves out of it, grounded
// on pattern.cpp's Pattern::compile_transition.
func compileTransition(state *State, follow *position.Follow, mods *cursor.ModMap, lookahead *cursor.LookaheadMap, cur *cursor.Cursor, flags parser.Flags) ([]move, error) {
	var moves []move
	for _, k := range state.Pos.Items() {
		if k.Accept() {
			accept := k.Accepts()
			if state.Accept == 0 || accept < state.Accept {
				state.Accept = accept
			}
			if accept == 0 {
				state.Redo = true
			}
			continue
		}

		loc := k.Loc()
		c := cur.At(loc)
		literal := mods.IsActive('q', loc)

		switch {
		case c == '/' && flags.Lookahead && !literal:
			n := 0
			for _, rule := range lookahead.Rules() {
				spans := lookahead.Rule(rule).Spans()
				for i, s := range spans {
					if loc == s.Open {
						if !k.Ticked() {
							state.Heads = appendUnique(state.Heads, n+i)
						} else {
							state.Tails = appendUnique(state.Tails, n+i)
						}
					}
				}
				n += len(spans)
			}

		case c == '(' && !literal:
			n := 0
			for _, rule := range lookahead.Rules() {
				spans := lookahead.Rule(rule).Spans()
				for i, s := range spans {
					if loc == s.Open {
						state.Heads = appendUnique(state.Heads, n+i)
					}
				}
				n += len(spans)
			}

		case c == ')' && !literal:
			n := 0
			for _, rule := range lookahead.Rules() {
				spans := lookahead.Rule(rule).Spans()
				for i, s := range spans {
					if loc == s.Close {
						state.Tails = appendUnique(state.Tails, n+i)
					}
				}
				n += len(spans)
			}

		default:
			fp := k.Pos()
			set, ok := follow.Lookup(fp)
			if !ok {
				continue
			}
			if k.Lazy() != 0 {
				if k.Greedy() {
					continue
				}
				memo, ok := follow.Lookup(k)
				if !ok {
					memo = position.NewSet()
					for _, p := range set.Items() {
						if p.Ticked() {
							memo.Insert(p)
						} else {
							memo.Insert(p.WithLazy(k.Lazy()))
						}
					}
					follow.Set(k, memo)
				}
				set = memo
			}
			chars, err := charsFor(cur, k, flags, mods)
			if err != nil {
				return nil, err
			}
			moves = transitionMerge(moves, chars, set)
		}
	}
	return moves, nil
}

func appendUnique(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// transitionMerge folds a new (chars, follow) move into the existing
// move list, splitting overlapping character ranges so every move in
// the result set has a disjoint character set, grounded on
// pattern.cpp's Pattern::transition.
func transitionMerge(moves []move, chars *charset.Set, follow *position.Set) []move {
	rest := chars.Clone()
	result := make([]move, 0, len(moves)+1)
	for _, mv := range moves {
		switch {
		case position.Equal(mv.to, follow):
			rest = charset.Union(rest, mv.chars)
		case charset.Intersects(chars, mv.chars):
			common := charset.Intersect(chars, mv.chars)
			if isSubset(follow, mv.to) {
				rest = charset.Subtract(rest, common)
				result = append(result, mv)
			} else if charset.Equal(mv.chars, common) && isSubset(mv.to, follow) {
				// drop mv: replaced by the merged move below
			} else {
				rest = charset.Subtract(rest, common)
				remainder := charset.Subtract(mv.chars, common)
				if remainder.Any() {
					merged := mv.to.Clone()
					merged.Union(follow)
					result = append(result, move{chars: common, to: merged})
					result = append(result, move{chars: remainder, to: mv.to})
				} else {
					merged := mv.to.Clone()
					merged.Union(follow)
					result = append(result, move{chars: common, to: merged})
				}
			}
		default:
			result = append(result, mv)
		}
	}
	if rest.Any() {
		result = append(result, move{chars: rest, to: follow})
	}
	return result
}

// isSubset reports whether every position of a is also in b.
func isSubset(a, b *position.Set) bool {
	for _, p := range a.Items() {
		if !b.Contains(p) {
			return false
		}
	}
	return true
}

// trimLazy removes lazy-tagged accept/anchor positions dominated by a
// later non-lazy accept/anchor (collapsing the run to one de-lazified
// copy), and, for an ordinary greedy position, adds a de-lazified
// duplicate alongside the original rather than replacing it, stopping
// the scan at the first non-greedy position encountered from the high
// end. Grounded on pattern.cpp's Pattern::trim_lazy, whose greedy
// branch is `pos.insert(p->lazy(0)); ++p;` — an insert that leaves the
// original lazy position in the set, not a replace.
func trimLazy(pos *position.Set) {
	work := append([]position.Position{}, pos.Items()...)
	removed := make([]bool, len(work))
	var inserted []position.Position
	i := len(work) - 1
	for i >= 0 {
		p := work[i]
		if p.Lazy() == 0 {
			break
		}
		l := p.Lazy()
		if p.Accept() || p.Anchor() {
			work[i] = p.WithLazy(0)
			i--
			for i >= 0 && work[i].Lazy() == l {
				removed[i] = true
				i--
			}
			continue
		}
		if !p.Greedy() {
			break
		}
		inserted = append(inserted, p.WithLazy(0))
		i--
	}
	pos.Clear()
	for j, p := range work {
		if !removed[j] {
			pos.Insert(p)
		}
	}
	for _, p := range inserted {
		pos.Insert(p)
	}
}
