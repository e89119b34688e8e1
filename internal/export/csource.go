package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/genivia/reflexgo/internal/encode"
)

// WriteCSource writes prog as a C/C++ opcode table definition,
// grounded on pattern.cpp's Pattern::export_code. jennifer only
// renders Go syntax, so this writer is built directly on fmt/strings:
// the table itself is a handful of printf-style lines in the
// original, not something a Go code-generation library can help with.
// header selects between a plain definition (false) and a header-guarded
// declaration suitable for a .h/.hpp file (true).
func WriteCSource(w io.Writer, prog *encode.Program, name string, header bool) error {
	if name == "" {
		name = "FSM"
	}
	bw := &errWriter{w: w}
	guard := strings.ToUpper(name) + "_H"
	if header {
		fmt.Fprintf(bw, "#ifndef %s\n#define %s\n\n", guard, guard)
		fmt.Fprintf(bw, "extern const unsigned int %s[%d];\n\n", name, len(prog.Opcodes))
		fmt.Fprintf(bw, "#endif\n")
		return bw.err
	}
	fmt.Fprintf(bw, "const unsigned int %s[%d] = {\n", name, len(prog.Opcodes))
	for _, op := range prog.Opcodes {
		fmt.Fprintf(bw, "\t0x%08X, // %s\n", uint32(op), Describe(op))
	}
	fmt.Fprintf(bw, "};\n")
	return bw.err
}

// Describe renders a single opcode as the mnemonic comment form used by
// WriteCSource, shared with cmd/reflexgo's inspect subcommand so both
// walk the same decode logic.
func Describe(op encode.Opcode) string {
	switch {
	case op.IsHalt():
		return "HALT"
	case op.IsRedo():
		return "REDO"
	case op.IsTake():
		return fmt.Sprintf("TAKE %d", op.Rule())
	case op.IsTail():
		return fmt.Sprintf("TAIL %d", op.Index())
	case op.IsHead():
		return fmt.Sprintf("HEAD %d", op.Index())
	default:
		lo, hi, target := op.Range()
		if int(target) == encode.HaltTarget {
			return fmt.Sprintf("GOTO [0x%02x-0x%02x] -> HALT", lo, hi)
		}
		return fmt.Sprintf("GOTO [0x%02x-0x%02x] -> %d", lo, hi, target)
	}
}
