package reflexgo

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompileValidatesPattern(t *testing.T) {
	_, err := Compile(Options{})
	if err == nil {
		t.Fatal("Compile with empty pattern should fail validation")
	}
}

func TestCompileAndExportRoundTrip(t *testing.T) {
	p, err := Compile(Options{Pattern: "[a-z]+", Name: "Ident"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if p.NumOpcodes() == 0 {
		t.Fatal("NumOpcodes() == 0")
	}
	if p.NumRules() != 1 {
		t.Fatalf("NumRules() = %d, want 1", p.NumRules())
	}

	var dot bytes.Buffer
	if err := p.WriteDot(&dot, ""); err != nil {
		t.Fatalf("WriteDot: %v", err)
	}
	if !strings.Contains(dot.String(), "digraph Ident") {
		t.Fatalf("WriteDot did not fall back to Options.Name: %q", dot.String())
	}

	var src bytes.Buffer
	if err := p.WriteGoSource(&src, "gen", ""); err != nil {
		t.Fatalf("WriteGoSource: %v", err)
	}
	if !strings.Contains(src.String(), "var Ident") {
		t.Fatalf("WriteGoSource did not fall back to Options.Name: %q", src.String())
	}
}

func TestCompileSurfacesCompileError(t *testing.T) {
	_, err := Compile(Options{Pattern: "[z-a]", Raise: true})
	if err == nil {
		t.Fatal("expected an error for an inverted character range")
	}
}

func TestCompileWithoutRaiseReturnsNilNil(t *testing.T) {
	p, err := Compile(Options{Pattern: "[z-a]"})
	if err != nil {
		t.Fatalf("Compile without Raise returned an error: %v", err)
	}
	if p != nil {
		t.Fatal("Compile without Raise should return a nil Program")
	}
}

func TestCompileOverflowIsAlwaysRaised(t *testing.T) {
	_, err := Compile(Options{Pattern: "a{2000}"})
	if err == nil {
		t.Fatal("CodeOverflow should be raised even when Raise is false")
	}
}
