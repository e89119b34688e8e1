package dfa

// CompactDFA fuses adjacent edges of every state that share a target,
// a cleanup pass needed because trim_lazy can canonicalize two
// distinct follow sets discovered as separate transitions down to the
// same state, grounded on pattern.cpp's Pattern::compact_dfa.
func CompactDFA(start *State) {
	for state := start; state != nil; state = state.next {
		state.Edges = fuseEdges(state.Edges)
	}
}

func fuseEdges(edges []Edge) []Edge {
	if len(edges) == 0 {
		return edges
	}
	out := make([]Edge, 0, len(edges))
	cur := edges[0]
	for _, e := range edges[1:] {
		if e.Lo <= cur.Hi+1 && e.Target == cur.Target {
			if e.Hi > cur.Hi {
				cur.Hi = e.Hi
			}
			continue
		}
		out = append(out, cur)
		cur = e
	}
	out = append(out, cur)
	return out
}
