package dfa

import "github.com/genivia/reflexgo/internal/position"

// CompileError is raised while computing character-set transitions:
// malformed bracket expressions, unrecognized POSIX classes, or
// inverted ranges, mirroring pattern.cpp's REGEX_SYNTAX/REGEX_LIST
// error codes raised from compile_list/compile_esc.
type CompileError struct {
	List    bool // true: REGEX_LIST, false: REGEX_SYNTAX
	Loc     position.Location
	Message string
}

func (e *CompileError) Error() string { return e.Message }

func syntaxErr(loc position.Location, msg string) error {
	return &CompileError{Loc: loc, Message: msg}
}

func listErr(loc position.Location, msg string) error {
	return &CompileError{List: true, Loc: loc, Message: msg}
}
