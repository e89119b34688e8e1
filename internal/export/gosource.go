package export

import (
	"io"

	"github.com/dave/jennifer/jen"
	"github.com/genivia/reflexgo/internal/encode"
)

// WriteGoSource renders prog as a standalone Go source file declaring
// the opcode table as a package-level []uint32 slice (plus a
// <name>Accept []bool slice), grounded on the
// teacher's use of jennifer in internal/compiler/compiler.go to build
// a *jen.File by appending declarations one at a time. Unlike the C
// exporter this is the genuine target for a Go code-generation
// library: pkg is the emitted package's name and name is the
// generated variable's identifier.
func WriteGoSource(w io.Writer, prog *encode.Program, pkg, name string) error {
	if pkg == "" {
		pkg = "main"
	}
	if name == "" {
		name = "Opcodes"
	}
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by reflexgo. DO NOT EDIT.")

	values := make([]jen.Code, len(prog.Opcodes))
	for i, op := range prog.Opcodes {
		values[i] = jen.Lit(uint32(op)).Comment(Describe(op))
	}
	f.Comment(name + " is the compiled opcode table, one uint32 per instruction.")
	f.Var().Id(name).Op("=").Index().Uint32().Values(values...)

	accept := make([]jen.Code, len(prog.Accept))
	for i, b := range prog.Accept {
		accept[i] = jen.Lit(b)
	}
	f.Var().Id(name + "Accept").Op("=").Index().Bool().Values(accept...)

	return f.Render(w)
}
