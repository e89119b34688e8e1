package compiler

import (
	"fmt"
	"os"

	"github.com/genivia/reflexgo/internal/cursor"
	"github.com/genivia/reflexgo/internal/dfa"
	"github.com/genivia/reflexgo/internal/encode"
	"github.com/genivia/reflexgo/internal/export"
	"github.com/genivia/reflexgo/internal/parser"
	"github.com/genivia/reflexgo/internal/position"
)

// Flags converts Options into the subset of flags the parser needs,
// mirroring the opt_ struct pattern.cpp's Pattern constructor reads
// out of its own Option aggregate.
func (o Options) Flags() parser.Flags {
	return parser.Flags{
		IgnoreCase:  o.IgnoreCase,
		Lookahead:   o.Lookahead,
		Multiline:   o.Multiline,
		Quote:       o.Quote,
		Dotall:      o.Dotall,
		FreeSpacing: o.FreeSpacing,
		ByteRaw:     o.ByteRaw,
		Escape:      o.Escape,
	}
}

// Result is the product of a single compilation: the compacted DFA,
// its encoded opcode table, and the original pattern text (kept for
// CompileError.Display).
type Result struct {
	Pattern string
	Start   *dfa.State
	Program *encode.Program
	Rules   int
}

// Compile runs pattern through the full parse/build/compact/encode
// pipeline, mirroring pattern.cpp's Pattern::init followed by
// Pattern::compile/assemble. A non-nil error is always a *CompileError.
// See CompileWithLogger for how opts.Warn/opts.Raise affect whether a
// failure comes back as an error at all.
func Compile(pattern string, opts Options) (*Result, error) {
	return CompileWithLogger(pattern, opts, NewLogger(false))
}

// CompileWithLogger is Compile with an explicit Logger, so a caller
// that already built one (e.g. the CLI) does not pay for a second.
//
// A failure is handled the way pattern.cpp's Pattern::error does: if
// opts.Warn is set, the error is displayed to stderr regardless of
// outcome; the error is then only returned to the caller if
// opts.Raise is set or the error is CodeOverflow, which is always
// raised irrespective of Raise. When a failure is warned but not
// raised, CompileWithLogger stops and returns (nil, nil): there is no
// partial Result to hand back, and the caller is expected to treat a
// nil Result with a nil error as "nothing compiled" rather than
// success.
func CompileWithLogger(pattern string, opts Options, log *Logger) (*Result, error) {
	defer log.Close()

	log.Section("parse")
	res, err := parser.Parse(pattern, opts.Flags())
	if err != nil {
		return nil, reportError(pattern, err, opts)
	}
	log.Log("parsed %d rule(s)", res.Rules)

	log.Section("build")
	cur := cursor.New(pattern, opts.Escape)
	start, err := dfa.Build(res.Start, res.Follow, res.Modifiers, res.Lookahead, cur, opts.Flags(), res.Rules)
	if err != nil {
		return nil, reportError(pattern, err, opts)
	}

	log.Section("compact")
	dfa.CompactDFA(start)

	log.Section("encode")
	prog, err := encode.Encode(start, res.Rules)
	if err != nil {
		return nil, reportError(pattern, err, opts)
	}
	log.Log("encoded %d opcode(s)", len(prog.Opcodes))

	return &Result{Pattern: pattern, Start: start, Program: prog, Rules: res.Rules}, nil
}

// Export writes r to every file named in opts.Files, dispatching by
// filename suffix, and honors opts.Name as the generated table/variable
// identifier. pkg names the package for a ".go" target.
func (r *Result) Export(opts Options, pkg string) error {
	return export.WriteFiles(opts.Files, r.Start, r.Program, pkg, opts.Name)
}

// reportError applies the w/r error policy to a raw failure from
// parser.Parse, dfa.Build, or encode.Encode, grounded on pattern.cpp's
// Pattern::error: opts.Warn always displays the error to stderr, and
// the error is returned to the caller only when opts.Raise is set or
// the failure is CodeOverflow, which pattern.cpp raises irrespective
// of r.
func reportError(pattern string, err error, opts Options) error {
	wrapped := wrapError(pattern, err)
	ce, ok := wrapped.(*CompileError)
	if !ok {
		return wrapped
	}
	if opts.Warn {
		fmt.Fprint(os.Stderr, ce.Display())
	}
	if opts.Raise || ce.Code == CodeOverflow {
		return ce
	}
	return nil
}

// wrapError adapts a parser.SyntaxError, dfa.CompileError, or
// encode.OverflowError into a *CompileError so callers only ever see
// one error type out of this package, mirroring how pattern.cpp
// funnels every failure mode through a single Error class.
func wrapError(pattern string, err error) error {
	switch e := err.(type) {
	case *parser.SyntaxError:
		code := RegexSyntax
		if e.Range {
			code = RegexRange
		}
		return NewError(code, pattern, e.Loc, e.Message)
	case *dfa.CompileError:
		code := RegexSyntax
		if e.List {
			code = RegexList
		}
		return NewError(code, pattern, e.Loc, e.Message)
	case *encode.OverflowError:
		return NewError(CodeOverflow, pattern, position.NoLoc, e.Message)
	default:
		return err
	}
}
