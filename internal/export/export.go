package export

import (
	"io"
	"os"
	"strings"

	"github.com/genivia/reflexgo/internal/dfa"
	"github.com/genivia/reflexgo/internal/encode"
)

// WriteFiles dispatches each entry of files to the writer selected by
// its suffix, grounded on pattern.cpp's export_dfa/export_code
// filename-suffix dispatch: ".gv" for Graphviz, ".h"/".hpp" for a C
// header declaration, ".c"/".cc"/".cpp" for the C opcode table
// definition, and ".go" for a generated Go source file. A leading '+'
// opens the file in append mode; a leading "stdout." writes to stdout
// instead of a file, keeping the rest of the name only to pick the
// format.
func WriteFiles(files []string, start *dfa.State, prog *encode.Program, pkg, name string) error {
	for _, spec := range files {
		if err := writeOne(spec, start, prog, pkg, name); err != nil {
			return err
		}
	}
	return nil
}

func writeOne(spec string, start *dfa.State, prog *encode.Program, pkg, name string) error {
	append_ := strings.HasPrefix(spec, "+")
	if append_ {
		spec = spec[1:]
	}
	toStdout := strings.HasPrefix(spec, "stdout.")
	filename := spec
	if toStdout {
		filename = spec[len("stdout."):]
	}

	var w io.Writer
	if toStdout {
		w = os.Stdout
	} else {
		flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if append_ {
			flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		}
		f, err := os.OpenFile(spec, flags, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch {
	case strings.HasSuffix(filename, ".gv") || strings.HasSuffix(filename, ".dot"):
		return WriteDot(w, start, name)
	case strings.HasSuffix(filename, ".h") || strings.HasSuffix(filename, ".hpp"):
		return WriteCSource(w, prog, name, true)
	case strings.HasSuffix(filename, ".c") || strings.HasSuffix(filename, ".cc") || strings.HasSuffix(filename, ".cpp"):
		return WriteCSource(w, prog, name, false)
	case strings.HasSuffix(filename, ".go"):
		return WriteGoSource(w, prog, pkg, name)
	default:
		return WriteCSource(w, prog, name, false)
	}
}
