package compiler

import (
	"fmt"
	"strings"

	"github.com/genivia/reflexgo/internal/position"
)

// Code classifies a compile error, mirroring pattern.cpp's Error::Type.
type Code int

const (
	// RegexSyntax covers malformed regex syntax: unmatched parens,
	// dangling quantifiers, bad escapes.
	RegexSyntax Code = iota
	// RegexRange covers out-of-range or inverted {n,m} bounds.
	RegexRange
	// RegexList covers inverted [z-a] ranges inside bracket
	// expressions.
	RegexList
	// CodeOverflow covers opcode tables that exceed the encoder's
	// addressable range.
	CodeOverflow
)

func (c Code) String() string {
	switch c {
	case RegexSyntax:
		return "syntax error"
	case RegexRange:
		return "invalid range"
	case RegexList:
		return "invalid character class"
	case CodeOverflow:
		return "code overflow"
	default:
		return "error"
	}
}

// CompileError is a located compile-time error, carrying enough context
// to render an 80-column caret window over the offending pattern text,
// grounded on pattern.cpp's Error::display.
type CompileError struct {
	Code    Code
	Loc     position.Location
	Pattern string
	Message string
}

func (e *CompileError) Error() string {
	if e.Loc == position.NoLoc {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s at %d: %s", e.Code, e.Loc, e.Message)
}

// Display writes a human-readable, 80-column windowed view of the
// pattern with a caret under the error location.
func (e *CompileError) Display() string {
	var b strings.Builder
	fmt.Fprintf(&b, "error: %s: %s\n", e.Code, e.Message)
	if e.Loc == position.NoLoc || e.Pattern == "" {
		return b.String()
	}
	const width = 80
	loc := int(e.Loc)
	if loc > len(e.Pattern) {
		loc = len(e.Pattern)
	}
	start := 0
	if loc > width/2 {
		start = loc - width/2
	}
	end := start + width
	if end > len(e.Pattern) {
		end = len(e.Pattern)
	}
	window := e.Pattern[start:end]
	fmt.Fprintf(&b, "    %s\n", window)
	fmt.Fprintf(&b, "    %s^\n", strings.Repeat(" ", loc-start))
	return b.String()
}

// NewError builds a CompileError at loc with a formatted message.
func NewError(code Code, pattern string, loc position.Location, format string, args ...interface{}) *CompileError {
	return &CompileError{
		Code:    code,
		Loc:     loc,
		Pattern: pattern,
		Message: fmt.Sprintf(format, args...),
	}
}
