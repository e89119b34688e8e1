package dfa

import (
	"github.com/genivia/reflexgo/internal/charset"
	"github.com/genivia/reflexgo/internal/cursor"
	"github.com/genivia/reflexgo/internal/parser"
	"github.com/genivia/reflexgo/internal/position"
)

// modActive reports whether a single-letter option is active at loc,
// via either the pattern-wide flag or an explicit (?X:...) scope,
// mirroring pattern.cpp's recurring "opt_.X || is_modified('X', ...)".
func modActive(global bool, mods *cursor.ModMap, flag byte, loc position.Location) bool {
	return global || mods.IsActive(flag, loc)
}

// charsFor computes the character set an atom position k transitions
// on, grounded on the literal/. /^/$/[.../escape switch inside
// pattern.cpp's Pattern::compile_transition.
func charsFor(cur *cursor.Cursor, k position.Position, flags parser.Flags, mods *cursor.ModMap) (*charset.Set, error) {
	loc := k.Loc()
	c := cur.At(loc)
	literal := mods.IsActive('q', loc)
	chars := charset.New()

	if literal {
		chars.Insert(charset.Char(c))
		return chars, nil
	}

	switch c {
	case '.':
		if modActive(flags.Dotall, mods, 's', loc) {
			chars.InsertRange(0, 0xff)
		} else {
			chars.InsertRange(0, 9)
			chars.InsertRange(11, 0xff)
		}
		return chars, nil
	case '^':
		if modActive(flags.Multiline, mods, 'm', loc) {
			chars.Insert(charset.BOL)
		} else {
			chars.Insert(charset.BOB)
		}
		return chars, nil
	case '$':
		if modActive(flags.Multiline, mods, 'm', loc) {
			chars.Insert(charset.EOL)
		} else {
			chars.Insert(charset.EOB)
		}
		return chars, nil
	}

	if c == '[' && cur.EscapesAt(loc, "AZBb<>ij") == 0 {
		if err := compileList(cur, loc+1, chars, flags, mods); err != nil {
			return nil, err
		}
		return chars, nil
	}

	switch cur.EscapeAt(loc) {
	case 'i':
		chars.Insert(charset.IND)
		return chars, nil
	case 'j':
		chars.Insert(charset.DED)
		return chars, nil
	case 'A':
		chars.Insert(charset.BOB)
		return chars, nil
	case 'Z':
		chars.Insert(charset.EOB)
		return chars, nil
	case 'B':
		if k.Anchor() {
			chars.Insert(charset.NWB)
		} else {
			chars.Insert(charset.NWE)
		}
		return chars, nil
	case 'b':
		if k.Anchor() {
			chars.Insert(charset.BWB)
			chars.Insert(charset.EWB)
		} else {
			chars.Insert(charset.BWE)
			chars.Insert(charset.EWE)
		}
		return chars, nil
	case '<':
		if k.Anchor() {
			chars.Insert(charset.BWB)
		} else {
			chars.Insert(charset.BWE)
		}
		return chars, nil
	case '>':
		if k.Anchor() {
			chars.Insert(charset.EWB)
		} else {
			chars.Insert(charset.EWE)
		}
		return chars, nil
	case 0:
		if isAlpha(c) && modActive(flags.IgnoreCase, mods, 'i', loc) {
			charset.FoldCase(chars, c)
		} else {
			chars.Insert(charset.Char(c))
		}
		return chars, nil
	default:
		if _, err := compileEsc(cur, loc+1, chars); err != nil {
			return nil, err
		}
		return chars, nil
	}
}

// compileList builds the character set of a bracket expression "[...]"
// starting just past the opening '[', grounded on
// pattern.cpp's Pattern::compile_list.
func compileList(cur *cursor.Cursor, loc position.Location, chars *charset.Set, flags parser.Flags, mods *cursor.ModMap) error {
	complement := cur.At(loc) == '^'
	if complement {
		loc++
	}
	const metaSentinel charset.Char = charset.MetaMin + 0xff
	const firstSentinel charset.Char = charset.MetaMin + 0xfe // nothing read yet: a leading ']' is literal
	prev := firstSentinel
	lo := metaSentinel
	c := charset.Char(cur.At(loc))
	for c != 0 && (c != ']' || prev == firstSentinel) {
		if c == '-' && !charset.IsMeta(prev) && charset.IsMeta(lo) {
			lo = prev
		} else {
			if c == '[' && cur.At(loc+1) == ':' {
				if cLoc := cur.FindAt(loc+2, ':'); cLoc != position.NoLoc && cur.At(cLoc+1) == ']' {
					if cLoc == loc+3 {
						ch, err := compileEsc(cur, loc+2, chars)
						if err != nil {
							return err
						}
						c = ch
					} else {
						class, ok := posixClassAt(cur, loc+3)
						if !ok {
							return syntaxErr(loc, "unrecognized POSIX character class")
						}
						charset.Posix(class, chars)
						c = metaSentinel
					}
					loc = cLoc + 1
				}
			} else if c == charset.Char(flags.Escape) && flags.Escape != 0 && !flags.ByteRaw {
				ch, err := compileEsc(cur, loc+1, chars)
				if err != nil {
					return err
				}
				c = ch
				var l2 position.Location = loc
				cur.ParseEsc(&l2)
				loc = l2 - 1
			}
			if !charset.IsMeta(c) {
				if !charset.IsMeta(lo) {
					if lo <= c {
						chars.InsertRange(lo, c)
					} else {
						return listErr(loc, "inverted character range in list")
					}
					if modActive(flags.IgnoreCase, mods, 'i', loc) {
						for a := lo; a <= c; a++ {
							if isUpper(byte(a)) {
								chars.Insert(charset.Char(toLower(byte(a))))
							} else if isLower(byte(a)) {
								chars.Insert(charset.Char(toUpper(byte(a))))
							}
						}
					}
					c = metaSentinel
				} else {
					if isAlpha(byte(c)) && modActive(flags.IgnoreCase, mods, 'i', loc) {
						charset.FoldCase(chars, byte(c))
					} else {
						chars.Insert(c)
					}
				}
			}
			prev = c
			lo = metaSentinel
		}
		loc++
		c = charset.Char(cur.At(loc))
	}
	if !charset.IsMeta(lo) {
		chars.Insert('-')
	}
	if complement {
		flipped := charset.Flip(chars)
		*chars = *flipped
	}
	return nil
}

func posixClassAt(cur *cursor.Cursor, loc position.Location) (charset.PosixClass, bool) {
	for i, name := range charset.PosixNames {
		// ignore the first letter (upper/lower variant) when matching,
		// mirroring compile_list's eq_at(loc+3, posix_class[i]+1).
		if len(name) > 1 && cur.EqAt(loc, name[1:]) {
			return charset.PosixClass(i), true
		}
	}
	return 0, false
}

// compileEsc resolves the character or class denoted by an escape
// sequence's letter at loc (just past the escape character), grounded
// on pattern.cpp's Pattern::compile_esc. It returns the character, or
// the meta sentinel 0x1ff when the escape expands to a class rather
// than a single character.
func compileEsc(cur *cursor.Cursor, loc position.Location, chars *charset.Set) (charset.Char, error) {
	c := cur.At(loc)
	switch {
	case c == '0':
		n := byte(0)
		for i := 0; i < 3 && isOctDigit(cur.At(loc+1+position.Location(i))); i++ {
			n = n*8 + (cur.At(loc+1+position.Location(i)) - '0')
		}
		c = n
	case (c == 'x' || c == 'u') && cur.At(loc+1) == '{':
		n := 0
		l := loc + 2
		for isHexDigit(cur.At(l)) {
			n = n*16 + hexVal(cur.At(l))
			l++
		}
		c = byte(n)
	case c == 'x' && isHexDigit(cur.At(loc+1)):
		n := 0
		for i := 0; i < 2 && isHexDigit(cur.At(loc+1+position.Location(i))); i++ {
			n = n*16 + hexVal(cur.At(loc+1+position.Location(i)))
		}
		c = byte(n)
	case c == 'c':
		c = cur.At(loc+1) % 32
	case c == 'e':
		c = 0x1b
	case c == '_':
		charset.Posix(charset.PosixAlpha, chars)
		return charset.MetaMin + 0xff, nil
	case c == 'p' && cur.At(loc+1) == '{':
		class, ok := posixClassAt(cur, loc+2)
		if !ok {
			return 0, syntaxErr(loc, "unrecognized character class")
		}
		charset.Posix(class, chars)
		return charset.MetaMin + 0xff, nil
	default:
		if i := indexByte(abtnvfr, c); i >= 0 {
			c = byte('\a' + i)
		} else if !charset.EscapeClass(c, chars) {
			chars.Insert(charset.Char(c))
			return charset.Char(c), nil
		} else {
			return charset.MetaMin + 0xff, nil
		}
	}
	if c <= 0xff {
		chars.Insert(charset.Char(c))
	}
	return charset.Char(c), nil
}

const abtnvfr = "abtnvfr"

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

func isOctDigit(b byte) bool { return b >= '0' && b <= '7' }
func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
func hexVal(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	default:
		return int(b-'A') + 10
	}
}
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }
func isLower(b byte) bool { return b >= 'a' && b <= 'z' }
func toLower(b byte) byte {
	if isUpper(b) {
		return b - 'A' + 'a'
	}
	return b
}
func toUpper(b byte) byte {
	if isLower(b) {
		return b - 'a' + 'A'
	}
	return b
}
