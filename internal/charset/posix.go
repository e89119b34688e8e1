package charset

// PosixClass indexes the named POSIX character classes, in the same
// order as pattern.cpp's posix_class table (and compile_esc's index
// arithmetic for \w \s \d etc, which is expressed in terms of these
// same class bodies).
type PosixClass int

const (
	PosixASCII PosixClass = iota
	PosixSpace
	PosixXdigit
	PosixCntrl
	PosixPrint
	PosixAlnum
	PosixAlpha
	PosixBlank
	PosixDigit
	PosixGraph
	PosixLower
	PosixPunct
	PosixUpper
	PosixWord
	posixCount
)

// PosixNames mirrors pattern.cpp's posix_class[] name table, used by
// the DFA builder to recognize "[:name:]" and "\p{Name}" spellings.
var PosixNames = [posixCount]string{
	PosixASCII:  "ASCII",
	PosixSpace:  "Space",
	PosixXdigit: "Xdigit",
	PosixCntrl:  "Cntrl",
	PosixPrint:  "Print",
	PosixAlnum:  "Alnum",
	PosixAlpha:  "Alpha",
	PosixBlank:  "Blank",
	PosixDigit:  "Digit",
	PosixGraph:  "Graph",
	PosixLower:  "Lower",
	PosixPunct:  "Punct",
	PosixUpper:  "Upper",
	PosixWord:   "Word",
}

// Posix builds the byte ranges of a named POSIX class directly into
// dst, mirroring pattern.cpp's Pattern::posix(index, chars).
func Posix(class PosixClass, dst *Set) {
	switch class {
	case PosixASCII:
		dst.InsertRange(0x00, 0x7f)
	case PosixSpace:
		dst.InsertRange('\t', '\r')
		dst.Insert(' ')
		dst.Insert(0x85)
	case PosixXdigit:
		dst.InsertRange('0', '9')
		dst.InsertRange('A', 'F')
		dst.InsertRange('a', 'f')
	case PosixCntrl:
		dst.InsertRange(0x00, 0x1f)
		dst.Insert(0x7f)
	case PosixPrint:
		dst.InsertRange(' ', '~')
	case PosixAlnum:
		dst.InsertRange('0', '9')
		dst.InsertRange('A', 'Z')
		dst.InsertRange('a', 'z')
	case PosixAlpha:
		dst.InsertRange('A', 'Z')
		dst.InsertRange('a', 'z')
	case PosixBlank:
		dst.Insert('\t')
		dst.Insert(' ')
	case PosixDigit:
		dst.InsertRange('0', '9')
	case PosixGraph:
		dst.InsertRange('!', '~')
	case PosixLower:
		dst.InsertRange('a', 'z')
	case PosixPunct:
		dst.InsertRange('!', '/')
		dst.InsertRange(':', '@')
		dst.InsertRange('[', '`')
		dst.InsertRange('{', '~')
	case PosixUpper:
		dst.InsertRange('A', 'Z')
	case PosixWord:
		dst.InsertRange('0', '9')
		dst.InsertRange('A', 'Z')
		dst.InsertRange('a', 'z')
		dst.Insert('_')
	}
}

// escapeClass maps a single-letter regex escape to the POSIX class it
// denotes and whether the class is negated, mirroring the "escapes"
// lookup table used by pattern.cpp's compile_esc (s/S, x/X, h/H, d/D,
// l/L, u/U, w/W).
var escapeClass = map[byte]struct {
	class   PosixClass
	negated bool
}{
	's': {PosixSpace, false},
	'S': {PosixSpace, true},
	'x': {PosixXdigit, false},
	'X': {PosixXdigit, true},
	'h': {PosixBlank, false},
	'H': {PosixBlank, true},
	'd': {PosixDigit, false},
	'D': {PosixDigit, true},
	'l': {PosixLower, false},
	'L': {PosixLower, true},
	'u': {PosixUpper, false},
	'U': {PosixUpper, true},
	'w': {PosixWord, false},
	'W': {PosixWord, true},
}

// EscapeClass builds the character set denoted by a single-letter
// class escape (\s \S \d \D ...) into dst. It reports whether c was a
// recognized class escape.
func EscapeClass(c byte, dst *Set) bool {
	e, ok := escapeClass[c]
	if !ok {
		return false
	}
	Posix(e.class, dst)
	if e.negated {
		flipped := Flip(dst)
		dst.ranges = flipped.ranges
	}
	return true
}

// FoldCase inserts both the upper and lower case of c into dst, or
// just c if it has no case.
func FoldCase(dst *Set, c byte) {
	if c >= 'a' && c <= 'z' {
		dst.Insert(Char(c))
		dst.Insert(Char(c - 'a' + 'A'))
	} else if c >= 'A' && c <= 'Z' {
		dst.Insert(Char(c))
		dst.Insert(Char(c - 'A' + 'a'))
	} else {
		dst.Insert(Char(c))
	}
}
