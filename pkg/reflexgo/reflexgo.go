// Package reflexgo compiles lexer-style regular expressions into a
// deterministic finite automaton and its encoded opcode table. It is
// the public facade over the internal parser/dfa/encode pipeline,
// mirroring the shape of the teacher's pkg/regengo facade.
package reflexgo

import (
	"fmt"
	"io"

	"github.com/genivia/reflexgo/internal/compiler"
	"github.com/genivia/reflexgo/internal/export"
)

// Options configures a single pattern compilation, exposing the
// reflex option-string flags as discrete booleans rather than the
// packed mini-language internal/compiler.Options also accepts.
type Options struct {
	// Pattern is the regular expression to compile.
	Pattern string

	ByteRaw     bool // b
	IgnoreCase  bool // i
	Lookahead   bool // l
	Multiline   bool // m
	Quote       bool // q
	Dotall      bool // s
	FreeSpacing bool // x

	// Raise makes a compile failure come back as an error from
	// Compile. When false (the default), a failure other than
	// CodeOverflow is swallowed: Compile returns (nil, nil). Mirrors
	// reflex's r option.
	Raise bool // r

	// Warn writes a failed compile's CompileError.Display() to stderr,
	// independent of Raise. Mirrors reflex's w option.
	Warn bool // w

	// Escape is the escape character. The zero value selects the
	// default '\\' in Compile, so escapes cannot be disabled through
	// this field.
	Escape byte

	// Name seeds the generated table/variable identifier used by
	// WriteGoSource, WriteCSource, and WriteDot when no override is
	// passed to the call itself.
	Name string

	// Verbose enables compilation tracing to stderr.
	Verbose bool
}

// Validate checks that opts is complete enough to compile.
func (o Options) Validate() error {
	if o.Pattern == "" {
		return fmt.Errorf("pattern cannot be empty")
	}
	return nil
}

func (o Options) toInternal() compiler.Options {
	io := compiler.DefaultOptions()
	io.ByteRaw = o.ByteRaw
	io.IgnoreCase = o.IgnoreCase
	io.Lookahead = o.Lookahead
	io.Multiline = o.Multiline
	io.Quote = o.Quote
	io.Dotall = o.Dotall
	io.FreeSpacing = o.FreeSpacing
	io.Raise = o.Raise
	io.Warn = o.Warn
	io.Name = o.Name
	if o.Escape != 0 {
		io.Escape = o.Escape
	}
	return io
}

// Program is a successfully compiled pattern: its DFA and encoded
// opcode table, ready for inspection or export.
type Program struct {
	result *compiler.Result
	opts   compiler.Options
}

// Compile parses, builds, compacts, and encodes opts.Pattern. An empty
// pattern fails validation with a plain error; any other non-nil
// error is a *compiler.CompileError. If opts.Raise is
// false, a failure other than CodeOverflow is not returned as an
// error at all: Compile returns (nil, nil), matching
// compiler.CompileWithLogger's own contract. Set opts.Warn to still
// see the failure on stderr in that case.
func Compile(opts Options) (*Program, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	iopts := opts.toInternal()
	log := compiler.NewLogger(opts.Verbose)
	res, err := compiler.CompileWithLogger(opts.Pattern, iopts, log)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return &Program{result: res, opts: iopts}, nil
}

// NumOpcodes returns the size of the encoded opcode table.
func (p *Program) NumOpcodes() int {
	return len(p.result.Program.Opcodes)
}

// NumRules returns the number of top-level alternatives compiled into
// distinct accepting rules.
func (p *Program) NumRules() int {
	return p.result.Rules
}

// WriteDot writes the compiled DFA as Graphviz source.
func (p *Program) WriteDot(w io.Writer, name string) error {
	if name == "" {
		name = p.opts.Name
	}
	return export.WriteDot(w, p.result.Start, name)
}

// WriteGoSource writes the opcode table as a generated Go source file
// declaring a pkg-scoped variable named name.
func (p *Program) WriteGoSource(w io.Writer, pkg, name string) error {
	if name == "" {
		name = p.opts.Name
	}
	return export.WriteGoSource(w, p.result.Program, pkg, name)
}

// WriteCSource writes the opcode table as a C array definition
// (header == false) or a header-guarded extern declaration
// (header == true) named name.
func (p *Program) WriteCSource(w io.Writer, name string, header bool) error {
	if name == "" {
		name = p.opts.Name
	}
	return export.WriteCSource(w, p.result.Program, name, header)
}

// Export writes the program to every file in files, dispatching by
// filename suffix the same way the reflex f= option does.
func (p *Program) Export(files []string, pkg string) error {
	return export.WriteFiles(files, p.result.Start, p.result.Program, pkg, p.opts.Name)
}
