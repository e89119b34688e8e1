package compiler

import (
	"io"
	"os"
	"testing"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		opt         string
		raise       bool
		wantErr     bool
		wantErrCode Code
	}{
		{name: "literal", pattern: "a"},
		{name: "alternation", pattern: "a|b"},
		{name: "star", pattern: "a*"},
		{name: "lazy star", pattern: "a*?b", opt: "l"},
		{name: "bounded repeat", pattern: "a{2,3}"},
		{name: "posix digit class", pattern: "[[:digit:]]+"},
		{name: "ignorecase inline", pattern: "(?i)AbC"},
		{name: "lookahead", pattern: "ab/cd", opt: "l"},
		{
			// A {n,m} bound above the Index range is a range error.
			name:        "overflow from huge bound",
			pattern:     "a{8000000}",
			raise:       true,
			wantErr:     true,
			wantErrCode: RegexRange,
		},
		{
			name:        "inverted range",
			pattern:     "[z-a]",
			raise:       true,
			wantErr:     true,
			wantErrCode: RegexList,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := ParseOptionString(tt.opt)
			opts.Raise = tt.raise
			res, err := Compile(tt.pattern, opts)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Compile(%q) succeeded, want error", tt.pattern)
				}
				ce, ok := err.(*CompileError)
				if !ok {
					t.Fatalf("Compile(%q) error type = %T, want *CompileError", tt.pattern, err)
				}
				if ce.Code != tt.wantErrCode {
					t.Fatalf("Compile(%q) code = %v, want %v", tt.pattern, ce.Code, tt.wantErrCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compile(%q) error: %v", tt.pattern, err)
			}
			if len(res.Program.Opcodes) == 0 {
				t.Fatalf("Compile(%q) produced an empty opcode table", tt.pattern)
			}
			if res.Rules == 0 {
				t.Fatalf("Compile(%q) produced zero rules", tt.pattern)
			}
		})
	}
}

func TestCompileWithoutRaiseSuppressesNonOverflowError(t *testing.T) {
	opts := DefaultOptions() // Raise and Warn both default to false, matching pattern.cpp's opt_.r/opt_.w defaults
	res, err := Compile("[z-a]", opts)
	if err != nil {
		t.Fatalf("Compile without Raise returned an error: %v", err)
	}
	if res != nil {
		t.Fatalf("Compile without Raise returned a Result, want nil")
	}
}

func TestCompileOverflowAlwaysRaised(t *testing.T) {
	opts := DefaultOptions()
	// a{2000} unrolls into a chain of 2001 states, more opcodes than a
	// GOTO target can address.
	_, err := Compile("a{2000}", opts)
	if err == nil {
		t.Fatal("CodeOverflow should be raised even when Raise is false")
	}
	ce, ok := err.(*CompileError)
	if !ok || ce.Code != CodeOverflow {
		t.Fatalf("error = %v, want a CodeOverflow *CompileError", err)
	}
}

func TestCompileWarnDisplaysRegardlessOfRaise(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	saved := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = saved }()

	opts := DefaultOptions()
	opts.Warn = true
	res, cerr := Compile("[z-a]", opts)
	w.Close()
	os.Stderr = saved

	out, readErr := io.ReadAll(r)
	if readErr != nil {
		t.Fatalf("reading captured stderr: %v", readErr)
	}
	if len(out) == 0 {
		t.Fatal("Warn should display the error to stderr even when Raise is false")
	}
	if cerr != nil {
		t.Fatalf("Compile with Warn but no Raise still returned an error: %v", cerr)
	}
	if res != nil {
		t.Fatal("Compile with Warn but no Raise should still suppress the Result")
	}
}

func TestCompileDeterminism(t *testing.T) {
	const pattern = "[a-zA-Z_][a-zA-Z0-9_]*"
	a, err := Compile(pattern, DefaultOptions())
	if err != nil {
		t.Fatalf("first compile: %v", err)
	}
	b, err := Compile(pattern, DefaultOptions())
	if err != nil {
		t.Fatalf("second compile: %v", err)
	}
	if len(a.Program.Opcodes) != len(b.Program.Opcodes) {
		t.Fatalf("opcode counts differ across identical compiles: %d vs %d", len(a.Program.Opcodes), len(b.Program.Opcodes))
	}
	for i := range a.Program.Opcodes {
		if a.Program.Opcodes[i] != b.Program.Opcodes[i] {
			t.Fatalf("opcode %d differs across identical compiles: %#x vs %#x", i, a.Program.Opcodes[i], b.Program.Opcodes[i])
		}
	}
}

func TestCompileErrorDisplayWindowsAroundLocation(t *testing.T) {
	opts := DefaultOptions()
	opts.Raise = true
	_, err := Compile("[z-a]", opts)
	if err == nil {
		t.Fatal("expected an error")
	}
	ce := err.(*CompileError)
	out := ce.Display()
	if out == "" {
		t.Fatal("Display() returned an empty string")
	}
}
