// Package cursor implements the read-only source view over a regex
// pattern string: bounds-checked character fetch, escape peeking, and
// modifier-scope lookup, grounded on pattern.cpp's inline at()/eq_at()/
// find_at()/escape_at()/escapes_at()/parse_esc() helpers.
package cursor

import (
	"sort"
	"strings"

	"github.com/genivia/reflexgo/internal/position"
)

// Cursor is a read-only view over a regex source string. It never
// mutates the source; parser advance happens by mutating a caller-held
// Location value.
type Cursor struct {
	src    string
	escape byte // 0 disables escape processing
}

// New returns a Cursor over src using escape as the escape character
// ('\\' by default; 0 disables escapes entirely).
func New(src string, escape byte) *Cursor {
	return &Cursor{src: src, escape: escape}
}

// Source returns the full pattern text.
func (c *Cursor) Source() string { return c.src }

// Len returns the length of the pattern text.
func (c *Cursor) Len() int { return len(c.src) }

// At returns the byte at loc, or 0 at or past end of source.
func (c *Cursor) At(loc position.Location) byte {
	i := int(loc)
	if i < 0 || i >= len(c.src) {
		return 0
	}
	return c.src[i]
}

// EqAt reports whether src[loc:] starts with s.
func (c *Cursor) EqAt(loc position.Location, s string) bool {
	i := int(loc)
	if i < 0 || i+len(s) > len(c.src) {
		return false
	}
	return c.src[i:i+len(s)] == s
}

// FindAt returns the location of the next occurrence of ch at or after
// loc, or NoLoc if none exists.
func (c *Cursor) FindAt(loc position.Location, ch byte) position.Location {
	i := int(loc)
	if i < 0 || i > len(c.src) {
		return position.NoLoc
	}
	j := strings.IndexByte(c.src[i:], ch)
	if j < 0 {
		return position.NoLoc
	}
	return loc + position.Location(j)
}

// EscapeAt returns the escape letter at loc (i.e. the byte following
// the escape character) when the escape character is active at loc, or
// 0 otherwise.
func (c *Cursor) EscapeAt(loc position.Location) byte {
	if c.escape == 0 || c.At(loc) != c.escape {
		return 0
	}
	return c.At(loc + 1)
}

// EscapesAt returns the matching letter of set if an escape at loc
// names one of its letters, or 0 otherwise.
func (c *Cursor) EscapesAt(loc position.Location, set string) byte {
	letter := c.EscapeAt(loc)
	if letter == 0 {
		return 0
	}
	if strings.IndexByte(set, letter) < 0 {
		return 0
	}
	return letter
}

// ParseEsc advances loc past the full syntactic form of an escape
// sequence starting at loc (\0ooo, \xHH, \x{H...}, \u{H...}, \p{NAME},
// \cX, or a single letter). If there is no active escape at loc, loc is
// left unchanged.
func (c *Cursor) ParseEsc(loc *position.Location) {
	start := *loc
	if c.At(start) != c.escape || c.escape == 0 {
		return
	}
	next := start + 1
	ch := c.At(next)
	if ch == 0 {
		return
	}
	switch {
	case ch == '0':
		next++
		for i := 0; i < 3 && isDigit(c.At(next)); i++ {
			next++
		}
	case ch == 'p' && c.At(next+1) == '{':
		next++
		for isAlnum(c.At(next + 1)) {
			next++
		}
		if c.At(next+1) == '}' {
			next += 2
		}
	case ch == 'u' && c.At(next+1) == '{':
		next++
		for isHex(c.At(next + 1)) {
			next++
		}
		if c.At(next+1) == '}' {
			next += 2
		}
	case ch == 'x' && c.At(next+1) == '{':
		next++
		for isHex(c.At(next + 1)) {
			next++
		}
		if c.At(next+1) == '}' {
			next += 2
		}
	case ch == 'x' && isHex(c.At(next+1)):
		next++
		for i := 0; i < 2 && isHex(c.At(next)); i++ {
			next++
		}
	case ch == 'c':
		next += 2
	default:
		next++
	}
	*loc = next
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isHex(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
func isAlnum(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Range is a half-open [Open,Close) source-location span.
type Range struct {
	Open, Close position.Location
}

// Ranges is a sorted list of disjoint half-open ranges, used for the
// modifier scope map and the lookahead span map.
type Ranges struct {
	spans []Range
}

// Insert records a new [open,close) span.
func (r *Ranges) Insert(open, close position.Location) {
	r.spans = append(r.spans, Range{open, close})
	sort.Slice(r.spans, func(i, j int) bool { return r.spans[i].Open < r.spans[j].Open })
}

// Find reports whether loc falls inside any recorded span, and that
// span's index in the spans sorted by Open.
func (r *Ranges) Find(loc position.Location) (int, bool) {
	for i, s := range r.spans {
		if loc >= s.Open && loc < s.Close {
			return i, true
		}
	}
	return 0, false
}

// Overlaps reports whether [open,close) intersects any recorded span;
// used to detect and silently ignore nested lookaheads within one rule.
func (r *Ranges) Overlaps(open, close position.Location) bool {
	for _, s := range r.spans {
		if open < s.Close && close > s.Open {
			return true
		}
	}
	return false
}

// Len returns the number of spans.
func (r *Ranges) Len() int {
	if r == nil {
		return 0
	}
	return len(r.spans)
}

// Spans returns the spans in sorted order.
func (r *Ranges) Spans() []Range {
	if r == nil {
		return nil
	}
	return r.spans
}

// ModMap maps a single-character modifier to the set of source-location
// ranges where it is active, grounded on pattern.cpp's Pattern::Map
// (modifiers['i'], modifiers['q'], etc).
type ModMap struct {
	m map[byte]*Ranges
}

// NewModMap returns an empty modifier map.
func NewModMap() *ModMap {
	return &ModMap{m: make(map[byte]*Ranges)}
}

// Record marks [open,close) as a scope where flag is active.
func (m *ModMap) Record(flag byte, open, close position.Location) {
	r, ok := m.m[flag]
	if !ok {
		r = &Ranges{}
		m.m[flag] = r
	}
	r.Insert(open, close)
}

// IsActive reports whether flag is active at loc via an explicit
// scoped range (the global opt_.<flag> is checked separately by the
// caller).
func (m *ModMap) IsActive(flag byte, loc position.Location) bool {
	r, ok := m.m[flag]
	if !ok {
		return false
	}
	_, found := r.Find(loc)
	return found
}

// LookaheadMap maps a 1-based accepting rule index to the set of
// lookahead spans [head_loc, tail_loc) attached to that rule.
type LookaheadMap struct {
	m map[position.Index]*Ranges
}

// NewLookaheadMap returns an empty lookahead map.
func NewLookaheadMap() *LookaheadMap {
	return &LookaheadMap{m: make(map[position.Index]*Ranges)}
}

// Rule returns (creating if absent) the Ranges for rule.
func (m *LookaheadMap) Rule(rule position.Index) *Ranges {
	r, ok := m.m[rule]
	if !ok {
		r = &Ranges{}
		m.m[rule] = r
	}
	return r
}

// Rules returns every rule index with at least one recorded lookahead,
// in ascending order (the order lookahead indices are enumerated in).
func (m *LookaheadMap) Rules() []position.Index {
	rules := make([]position.Index, 0, len(m.m))
	for r := range m.m {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i] < rules[j] })
	return rules
}

// Find looks up loc across every rule's spans in rule order, returning
// the global lookahead index (0-based, enumerated in rule order then
// span order) and whether loc matched any recorded span.
func (m *LookaheadMap) Find(loc position.Location) (int, bool) {
	n := 0
	for _, rule := range m.Rules() {
		spans := m.m[rule].Spans()
		for i, s := range spans {
			if loc >= s.Open && loc < s.Close {
				return n + i, true
			}
		}
		n += len(spans)
	}
	return 0, false
}
