// Package export writes a compiled DFA or opcode program to an
// external representation: Graphviz source for visualization, a C
// opcode table for embedding in a C/C++ matcher, or a generated Go
// source file exposing the table to Go callers.
package export

import (
	"fmt"
	"io"

	"github.com/genivia/reflexgo/internal/charset"
	"github.com/genivia/reflexgo/internal/dfa"
)

// WriteDot renders start's DFA as Graphviz source, grounded on
// pattern.cpp's Pattern::export_dfa. Written directly against
// fmt/io since no example repo in the corpus carries a Graphviz
// client library; the format itself is a handful of fprintf calls in
// the original, not a library concern.
func WriteDot(w io.Writer, start *dfa.State, name string) error {
	if name == "" {
		name = "FSM"
	}
	bw := &errWriter{w: w}
	fmt.Fprintf(bw, "digraph %s {\n\trankdir=LR;\n\tconcentrate=true;\n\tnode [fontname=\"ArialNarrow\"];\n\tedge [fontname=\"Courier\"];\n\n\tinit [root=true,peripheries=0,label=\"%s\",fontname=\"Courier\"];\n\tinit -> N%d;\n", name, name, start.ID)
	for st := start; st != nil; st = dfa.Next(st) {
		label := stateLabel(st)
		shape := "];"
		switch {
		case st.Redo:
			shape = ",style=dashed,peripheries=1];"
		case st.Accept > 0:
			shape = ",peripheries=2];"
		case len(st.Heads) > 0:
			shape = ",style=dashed,peripheries=2];"
		}
		fmt.Fprintf(bw, "\tN%d [label=\"%s\"%s\n", st.ID, label, shape)
		for _, e := range st.Edges {
			if e.Target == nil {
				continue
			}
			if !charset.IsMeta(e.Lo) {
				fmt.Fprintf(bw, "\tN%d -> N%d [label=\"%s\"];\n", st.ID, e.Target.ID, rangeLabel(e.Lo, e.Hi))
			} else {
				for c := e.Lo; c <= e.Hi; c++ {
					fmt.Fprintf(bw, "\tN%d -> N%d [label=\"%s\",style=\"dashed\"];\n", st.ID, e.Target.ID, charset.Label(c))
				}
			}
		}
		if st.Redo {
			fmt.Fprintf(bw, "\tN%d -> R%d;\n\tR%d [peripheries=0,label=\"redo\"];\n", st.ID, st.ID, st.ID)
		}
	}
	fmt.Fprint(bw, "}\n")
	return bw.err
}

func stateLabel(st *dfa.State) string {
	switch {
	case st.Redo:
		return "redo"
	case st.Accept > 0:
		return fmt.Sprintf("[%d]", st.Accept)
	default:
		return fmt.Sprintf("S%d", st.ID)
	}
}

func rangeLabel(lo, hi charset.Char) string {
	if lo == hi {
		return escapeByte(byte(lo))
	}
	return escapeByte(byte(lo)) + "-" + escapeByte(byte(hi))
}

func escapeByte(b byte) string {
	switch {
	case b == '"':
		return "\\\""
	case b == '\\':
		return "\\\\"
	case b >= 0x20 && b < 0x7f:
		return string(b)
	default:
		return fmt.Sprintf("\\\\x%02x", b)
	}
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
