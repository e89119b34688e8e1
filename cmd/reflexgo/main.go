package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/genivia/reflexgo/internal/compiler"
	"github.com/genivia/reflexgo/internal/export"
	"github.com/genivia/reflexgo/pkg/reflexgo"
)

var errColor = color.New(color.FgRed, color.Bold)
var okColor = color.New(color.FgGreen)
var mnemonicColor = color.New(color.FgCyan, color.Bold)

type compileCmd struct {
	Pattern string   `arg:"" name:"pattern" help:"Regex pattern to compile."`
	Opts    string   `short:"o" help:"Reflex option string, e.g. \"im\" for ignorecase+multiline."`
	Escape  string   `short:"e" help:"Escape character; empty disables escapes." default:"\\"`
	Name    string   `short:"n" help:"Generated table/variable name." default:"FSM"`
	Files   []string `short:"f" help:"Output files to export to, dispatched by suffix (.gv, .h, .cc, .go)."`
	Package string   `help:"Package name for a .go export target." default:"main"`
	Verbose bool     `short:"v" help:"Trace compilation stages to stderr."`
}

func (c *compileCmd) Run() error {
	opts := compiler.ParseOptionString(c.Opts)
	if c.Escape != "" {
		opts.Escape = c.Escape[0]
	} else {
		opts.Escape = 0
	}
	if c.Name != "" {
		opts.Name = c.Name
	}
	opts.Files = append(opts.Files, c.Files...)

	log := compiler.NewLogger(c.Verbose)
	res, err := compiler.CompileWithLogger(c.Pattern, opts, log)
	if err != nil {
		return displayErr(err)
	}
	if res == nil {
		return kong.Errorf("compilation failed")
	}
	okColor.Fprintf(os.Stdout, "compiled %d rule(s) into %d opcode(s)\n", res.Rules, len(res.Program.Opcodes))
	if len(opts.Files) > 0 {
		return res.Export(opts, c.Package)
	}
	return nil
}

type dotCmd struct {
	Pattern string `arg:"" name:"pattern" help:"Regex pattern to render."`
	Opts    string `short:"o" help:"Reflex option string."`
	Name    string `short:"n" help:"Graph name." default:"FSM"`
}

func (c *dotCmd) Run() error {
	opts := compiler.ParseOptionString(c.Opts)
	p, err := reflexgo.Compile(reflexgo.Options{
		Pattern:     c.Pattern,
		IgnoreCase:  opts.IgnoreCase,
		Lookahead:   opts.Lookahead,
		Multiline:   opts.Multiline,
		Quote:       opts.Quote,
		Dotall:      opts.Dotall,
		FreeSpacing: opts.FreeSpacing,
		ByteRaw:     opts.ByteRaw,
		Name:        c.Name,
	})
	if err != nil {
		return displayErr(err)
	}
	if p == nil {
		return kong.Errorf("compilation failed")
	}
	return p.WriteDot(os.Stdout, c.Name)
}

type inspectCmd struct {
	Pattern string `arg:"" name:"pattern" help:"Regex pattern to inspect."`
	Opts    string `short:"o" help:"Reflex option string."`
}

func (c *inspectCmd) Run() error {
	opts := compiler.ParseOptionString(c.Opts)
	log := compiler.NewLogger(true)
	res, err := compiler.CompileWithLogger(c.Pattern, opts, log)
	if err != nil {
		return displayErr(err)
	}
	if res == nil {
		return kong.Errorf("compilation failed")
	}
	fmt.Printf("rules: %d\n", res.Rules)
	fmt.Printf("opcodes: %d\n", len(res.Program.Opcodes))
	for i, op := range res.Program.Opcodes {
		mnemonic := export.Describe(op)
		if !color.NoColor {
			if sp := strings.IndexByte(mnemonic, ' '); sp >= 0 {
				mnemonic = mnemonicColor.Sprint(mnemonic[:sp]) + mnemonic[sp:]
			} else {
				mnemonic = mnemonicColor.Sprint(mnemonic)
			}
		}
		fmt.Printf("%4d: %s\n", i, mnemonic)
	}
	return nil
}

func displayErr(err error) error {
	if ce, ok := err.(*compiler.CompileError); ok {
		errColor.Fprint(os.Stderr, ce.Display())
		return kong.Errorf("compilation failed")
	}
	errColor.Fprintln(os.Stderr, err)
	return kong.Errorf("compilation failed")
}

var cli struct {
	Compile compileCmd `cmd:"" help:"Compile a pattern and optionally export its DFA/opcode table."`
	Dot     dotCmd     `cmd:"" help:"Print the compiled DFA as Graphviz source."`
	Inspect inspectCmd `cmd:"" help:"Compile a pattern verbosely and summarize the result."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("reflexgo"),
		kong.Description("Compiles regular expressions into a DFA and a linear opcode table."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(); err != nil {
		errColor.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
