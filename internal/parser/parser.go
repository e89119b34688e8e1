// Package parser implements the recursive-descent regex parser that
// builds the firstpos/lastpos/nullable/followpos relation directly
// during parsing, following the McNaughton-Yamada-Glushkov construction
// as implemented by pattern.cpp's parse/parse1/parse2/parse3/parse4.
package parser

import (
	"unicode"

	"github.com/genivia/reflexgo/internal/cursor"
	"github.com/genivia/reflexgo/internal/position"
)

// Flags carries the subset of compile options that influence parsing
// itself (as opposed to DFA transition compilation).
type Flags struct {
	IgnoreCase  bool
	Lookahead   bool
	Multiline   bool
	Quote       bool
	Dotall      bool
	FreeSpacing bool
	ByteRaw     bool
	Escape      byte
}

// SyntaxError is raised by the parser for malformed regex syntax,
// out-of-range repetition bounds, or malformed bracket expressions.
// It carries enough information for the compiler package to build a
// located CompileError without parser depending on compiler.
type SyntaxError struct {
	Range   bool // true: REGEX_RANGE, false: REGEX_SYNTAX
	Loc     position.Location
	Message string
}

func (e *SyntaxError) Error() string { return e.Message }

// Result is the output of a successful parse: the start positions of
// the whole pattern, the followpos relation, the modifier scope map,
// and the lookahead scope map (one Ranges per 1-based rule).
type Result struct {
	Start     *position.Set
	Follow    *position.Follow
	Modifiers *cursor.ModMap
	Lookahead *cursor.LookaheadMap
	Rules     int
}

// Parse compiles src's firstpos/lastpos/nullable/followpos relation.
// Top-level '|'-separated alternatives each become a distinct
// accepting rule (1-based), mirroring pattern.cpp's Pattern::parse.
func Parse(src string, flags Flags) (*Result, error) {
	p := &parser{
		cur:       cursor.New(src, flags.Escape),
		flags:     flags,
		modifiers: cursor.NewModMap(),
		lookahead: cursor.NewLookaheadMap(),
		follow:    position.NewFollow(),
	}
	start := position.NewSet()
	var loc position.Location
	choice := position.Index(1)
	var err error
	for {
		p.rule = choice
		lazypos := position.NewSet()
		firstpos, lastpos, nullable, _, perr := p.parse2(true, &loc, lazypos)
		if perr != nil {
			err = perr
			break
		}
		start.Union(firstpos)
		if nullable {
			if lazypos.Empty() {
				start.Insert(position.Accepting(choice))
			} else {
				for _, q := range lazypos.Items() {
					start.Insert(position.Accepting(choice).WithLazy(q.Loc()))
				}
			}
		}
		for _, pp := range lastpos.Items() {
			if lazypos.Empty() {
				p.follow.InsertOne(pp.Pos(), position.Accepting(choice))
			} else {
				for _, q := range lazypos.Items() {
					p.follow.InsertOne(pp.Pos(), position.Accepting(choice).WithLazy(q.Loc()))
				}
			}
		}
		choice++
		if p.cur.At(loc) != '|' {
			break
		}
		loc++
	}
	if err != nil {
		return nil, err
	}
	return &Result{
		Start:     start,
		Follow:    p.follow,
		Modifiers: p.modifiers,
		Lookahead: p.lookahead,
		Rules:     int(choice) - 1,
	}, nil
}

type parser struct {
	cur       *cursor.Cursor
	flags     Flags
	modifiers *cursor.ModMap
	lookahead *cursor.LookaheadMap
	follow    *position.Follow
	rule      position.Index // current top-level rule, for lookahead indexing
}

func syntaxErr(loc position.Location, msg string) error {
	return &SyntaxError{Loc: loc, Message: msg}
}

func rangeErr(loc position.Location, msg string) error {
	return &SyntaxError{Range: true, Loc: loc, Message: msg}
}

// parse1 handles top-level '|' alternation within a group, merging
// firstpos/lastpos/lazypos across branches without creating new rules.
func (p *parser) parse1(begin bool, loc *position.Location, lazypos *position.Set) (*position.Set, *position.Set, bool, position.Index, error) {
	firstpos, lastpos, nullable, iter, err := p.parse2(begin, loc, lazypos)
	if err != nil {
		return nil, nil, false, 0, err
	}
	for p.cur.At(*loc) == '|' {
		*loc++
		lazypos1 := position.NewSet()
		firstpos1, lastpos1, nullable1, iter1, err := p.parse2(begin, loc, lazypos1)
		if err != nil {
			return nil, nil, false, 0, err
		}
		firstpos.Union(firstpos1)
		lastpos.Union(lastpos1)
		lazypos.Union(lazypos1)
		if nullable1 {
			nullable = true
		}
		if iter1 > iter {
			iter = iter1
		}
	}
	return firstpos, lastpos, nullable, iter, nil
}

// parse2 handles anchors (^, \A, \b, ...) at the head of a sequence and
// lookahead ('/') within a sequence, concatenating parse3 terms.
func (p *parser) parse2(begin bool, loc *position.Location, lazypos *position.Set) (*position.Set, *position.Set, bool, position.Index, error) {
	aPos := position.NewSet()
	if begin {
		for {
			if p.flags.FreeSpacing {
				for isSpace(p.cur.At(*loc)) {
					*loc++
				}
			}
			if p.cur.At(*loc) == '^' {
				aPos.Insert(position.New(*loc))
				*loc++
			} else if l := p.cur.EscapesAt(*loc, "ABb<>"); l != 0 {
				aPos.Insert(position.New(*loc))
				*loc += 2
			} else {
				if l := p.cur.EscapesAt(*loc, "ij"); l != 0 {
					begin = false
				}
				break
			}
		}
	}

	firstpos, lastpos, nullable, iter, err := p.parse3(begin, loc, lazypos)
	if err != nil {
		return nil, nil, false, 0, err
	}

	lPos := position.NPOS
	for {
		c := p.cur.At(*loc)
		if c == 0 || c == '|' || c == ')' {
			break
		}
		if c == '/' && lPos.IsNPOS() && p.flags.Lookahead && (!p.flags.FreeSpacing || p.cur.At(*loc+1) != '*') {
			lPos = position.New(*loc)
			*loc++
		}
		lazypos1 := position.NewSet()
		firstpos1, lastpos1, nullable1, iter1, err := p.parse3(false, loc, lazypos1)
		if err != nil {
			return nil, nil, false, 0, err
		}
		if c == '/' && !lPos.IsNPOS() {
			firstpos1.Insert(lPos)
		}
		if !lazypos.Empty() {
			firstpos2 := lazyPositions(lazypos, firstpos1)
			firstpos1.Union(firstpos2)
		}
		if nullable {
			firstpos.Union(firstpos1)
		}
		for _, pp := range lastpos.Items() {
			p.follow.Insert(pp.Pos(), firstpos1)
		}
		if nullable1 {
			lastpos.Union(lastpos1)
		} else {
			lastpos = lastpos1
			nullable = false
		}
		lazypos.Union(lazypos1)
		if iter1 > iter {
			iter = iter1
		}
	}

	for _, a := range aPos.Items() {
		for _, k := range lastpos.Items() {
			kc := p.cur.At(k.Loc())
			if (kc == ')' || (p.flags.Lookahead && kc == '/')) {
				if _, ok := p.lookahead.Rule(p.rule).Find(k.Loc()); ok {
					p.follow.InsertOne(a.Pos(), k)
				}
			}
		}
		for _, k := range lastpos.Items() {
			p.follow.InsertOne(k.Pos(), a.WithAnchor(!nullable || k.Pos() != a.Pos()))
		}
		lastpos = position.NewSet()
		lastpos.Insert(a)
		if nullable {
			firstpos.Insert(a)
			nullable = false
		}
	}

	if !lPos.IsNPOS() {
		for _, pp := range lastpos.Items() {
			p.follow.InsertOne(pp.Pos(), position.New(*loc).WithTicked(true))
		}
		lastpos.Insert(position.New(*loc).WithTicked(true))
		p.lookahead.Rule(p.rule).Insert(lPos.Loc(), *loc)
	}

	return firstpos, lastpos, nullable, iter, nil
}

// parse3 handles postfix quantifiers: *, +, ?, and {n,m}.
func (p *parser) parse3(begin bool, loc *position.Location, lazypos *position.Set) (*position.Set, *position.Set, bool, position.Index, error) {
	bPos := *loc
	firstpos, lastpos, nullable, iter, err := p.parse4(begin, loc, lazypos)
	if err != nil {
		return nil, nil, false, 0, err
	}

	c := p.cur.At(*loc)
	if p.flags.FreeSpacing {
		for isSpace(c) {
			*loc++
			c = p.cur.At(*loc)
		}
	}

	switch {
	case c == '*' || c == '+' || c == '?':
		if c == '*' || c == '?' {
			nullable = true
		}
		*loc++
		if p.cur.At(*loc) == '?' {
			lazypos.Insert(position.New(*loc))
			if nullable {
				firstpos = applyLazy(lazypos, firstpos)
			}
			*loc++
		} else {
			firstpos = applyGreedy(firstpos)
		}
		if c == '+' && !nullable && !lazypos.Empty() {
			firstpos1 := lazyPositions(lazypos, firstpos)
			for _, pp := range lastpos.Items() {
				p.follow.Insert(pp.Pos(), firstpos1)
			}
			firstpos.Union(firstpos1)
		} else if c == '*' || c == '+' {
			for _, pp := range lastpos.Items() {
				p.follow.Insert(pp.Pos(), firstpos)
			}
		}

	case c == '{':
		firstpos, lastpos, nullable, iter, err = p.parseBound(bPos, loc, firstpos, lastpos, nullable, lazypos, iter)
		if err != nil {
			return nil, nil, false, 0, err
		}

	case c == '}':
		return nil, nil, false, 0, syntaxErr(*loc, "missing {")
	}

	return firstpos, lastpos, nullable, iter, nil
}

// parseBound handles the {n,m} bounded-repetition form, unrolling the
// sub-expression virtually by replicating its followpos entries across
// iteration indices rather than duplicating parse tree nodes.
func (p *parser) parseBound(bPos position.Location, loc *position.Location, firstpos, lastpos *position.Set, nullable bool, lazypos *position.Set, iter position.Index) (*position.Set, *position.Set, bool, position.Index, error) {
	// *loc points at '{'.
	cursorLoc := *loc + 1
	n, cursorLoc := scanDigits(p.cur, cursorLoc)
	if n > int(position.IMax) {
		return nil, nil, false, 0, rangeErr(cursorLoc, "{min,max} range overflow")
	}
	m := n
	unlimited := false
	if p.cur.At(cursorLoc) == ',' {
		if isDigit(p.cur.At(cursorLoc + 1)) {
			cursorLoc++
			m, cursorLoc = scanDigits(p.cur, cursorLoc)
		} else {
			unlimited = true
			cursorLoc++
		}
	}
	if p.cur.At(cursorLoc) != '}' {
		return nil, nil, false, 0, syntaxErr(cursorLoc, "malformed range {min,max}")
	}
	nullable1 := nullable
	if n == 0 {
		nullable = true
	}
	if n > m {
		return nil, nil, false, 0, rangeErr(cursorLoc, "min > max in range {min,max}")
	}
	cursorLoc++
	if p.cur.At(cursorLoc) == '?' {
		lazypos.Insert(position.New(cursorLoc))
		if nullable {
			firstpos = applyLazy(lazypos, firstpos)
		}
		cursorLoc++
	} else {
		if n < m && lazypos.Empty() {
			firstpos = applyGreedy(firstpos)
		}
	}
	*loc = cursorLoc

	pfirstpos := firstpos
	if !nullable && !lazypos.Empty() {
		pfirstpos = lazyPositions(lazypos, firstpos)
	}

	switch {
	case nullable && unlimited:
		for _, pp := range lastpos.Items() {
			p.follow.Insert(pp.Pos(), pfirstpos)
		}
	case m > 0:
		if int(iter)*m >= int(position.IMax) {
			return nil, nil, false, 0, rangeErr(cursorLoc, "{min,max} range overflow")
		}
		follow1 := position.NewFollow()
		for _, fk := range p.follow.Keys() {
			if fk.Loc() < bPos {
				continue
			}
			set := p.follow.Get(fk)
			if set == nil {
				continue
			}
			for i := 1; i < m; i++ {
				for _, pp := range set.Items() {
					follow1.InsertOne(fk.WithIter(position.Index(int(iter)*i)), pp.WithIter(position.Index(int(iter)*i)))
				}
			}
		}
		for _, fk := range follow1.Keys() {
			p.follow.Insert(fk, follow1.Get(fk))
		}
		for i := 0; i < m-1; i++ {
			for _, k := range lastpos.Items() {
				for _, j := range pfirstpos.Items() {
					p.follow.InsertOne(k.Pos().WithIter(position.Index(int(iter)*i)), j.WithIter(position.Index(int(iter)*i+int(iter))))
				}
			}
		}
		if unlimited {
			for _, k := range lastpos.Items() {
				for _, j := range pfirstpos.Items() {
					p.follow.InsertOne(k.Pos().WithIter(position.Index(int(iter)*m-int(iter))), j.WithIter(position.Index(int(iter)*m-int(iter))))
				}
			}
		}
		if nullable1 {
			snapshot := pfirstpos.Items()
			for i := 1; i <= m-1; i++ {
				for _, k := range snapshot {
					firstpos.Insert(k.WithIter(position.Index(int(iter) * i)))
				}
			}
		}
		lastpos1 := position.NewSet()
		from := n - 1
		if nullable {
			from = 0
		}
		for i := from; i <= m-1; i++ {
			for _, k := range lastpos.Items() {
				lastpos1.Insert(k.WithIter(position.Index(int(iter) * i)))
			}
		}
		lastpos = lastpos1
		iter = position.Index(int(iter) * m)
	default:
		firstpos = position.NewSet()
		lastpos = position.NewSet()
		lazypos.Clear()
	}

	return firstpos, lastpos, nullable, iter, nil
}

func scanDigits(c *cursor.Cursor, loc position.Location) (int, position.Location) {
	n := 0
	for i := 0; i < 7 && isDigit(c.At(loc)); i++ {
		n = 10*n + int(c.At(loc)-'0')
		loc++
	}
	return n, loc
}

// parse4 handles atoms: groups, bracket expressions, quoted literals,
// comments, and plain literal characters.
func (p *parser) parse4(begin bool, loc *position.Location, lazypos *position.Set) (*position.Set, *position.Set, bool, position.Index, error) {
	firstpos := position.NewSet()
	lastpos := position.NewSet()
	nullable := true
	lazypos.Clear()
	iter := position.Index(1)

	c := p.cur.At(*loc)
	switch {
	case c == '(':
		return p.parseGroup(begin, loc, lazypos)

	case c == '[':
		firstpos.Insert(position.New(*loc))
		lastpos.Insert(position.New(*loc))
		nullable = false
		*loc++
		c = p.cur.At(*loc)
		if c == '^' {
			*loc++
			c = p.cur.At(*loc)
		}
		for c != 0 {
			if c == '[' && p.cur.At(*loc+1) == ':' {
				cLoc := p.cur.FindAt(*loc+2, ':')
				if cLoc != position.NoLoc && p.cur.At(cLoc+1) == ']' {
					*loc = cLoc + 1
				}
			}
			*loc++
			c = p.cur.At(*loc)
			if c == ']' {
				*loc++
				break
			}
		}
		if c == 0 {
			return nil, nil, false, 0, syntaxErr(*loc, "missing ]")
		}

	case (c == '"' && p.flags.Quote) || p.cur.EscapeAt(*loc) == 'Q':
		return p.parseQuoted(loc)

	case c == '#' && p.flags.FreeSpacing:
		*loc++
		for c = p.cur.At(*loc); c != 0 && c != '\n'; c = p.cur.At(*loc) {
			*loc++
		}
		if c == '\n' {
			*loc++
		}

	case c == '/' && p.flags.Lookahead && p.flags.FreeSpacing && p.cur.At(*loc+1) == '*':
		*loc += 2
		for c = p.cur.At(*loc); c != 0 && !(c == '*' && p.cur.At(*loc+1) == '/'); c = p.cur.At(*loc) {
			*loc++
		}
		if c == 0 {
			return nil, nil, false, 0, syntaxErr(*loc, "missing */")
		}
		*loc += 2

	case isSpace(c) && p.flags.FreeSpacing:
		*loc++

	case c != 0 && c != '|' && c != ')' && c != '?' && c != '*' && c != '+':
		if begin && (c == '$' || p.cur.EscapesAt(*loc, "AZBb<>ij") != 0) {
			return nil, nil, false, 0, syntaxErr(*loc+1, "empty pattern")
		}
		firstpos.Insert(position.New(*loc))
		lastpos.Insert(position.New(*loc))
		nullable = false
		atom := *loc
		p.cur.ParseEsc(loc)
		if *loc == atom {
			*loc++
		}

	default:
		if !begin || c != 0 {
			return nil, nil, false, 0, syntaxErr(*loc, "empty pattern")
		}
	}

	return firstpos, lastpos, nullable, iter, nil
}

func (p *parser) parseQuoted(loc *position.Location) (*position.Set, *position.Set, bool, position.Index, error) {
	firstpos := position.NewSet()
	lastpos := position.NewSet()
	nullable := true
	quoted := p.cur.At(*loc) == '"'
	if !quoted {
		*loc++
	}
	qLoc := *loc
	*loc++
	c := p.cur.At(*loc)
	isEnd := func() bool {
		if quoted {
			return c == '"'
		}
		return c == p.flags.Escape && p.cur.At(*loc+1) == 'E'
	}
	if c != 0 && !isEnd() {
		firstpos.Insert(position.New(*loc))
		var pp position.Position
		first := true
		for {
			if c == '\\' && p.cur.At(*loc+1) == '"' && quoted {
				*loc++
			}
			if !first {
				p.follow.InsertOne(pp, position.New(*loc))
			}
			pp = position.New(*loc)
			first = false
			*loc++
			c = p.cur.At(*loc)
			if c == 0 || isEnd() {
				break
			}
		}
		lastpos.Insert(pp)
		nullable = false
	}
	p.modifiers.Record('q', qLoc, *loc)
	if c != 0 {
		if !quoted {
			*loc++
		}
		if p.cur.At(*loc) != 0 {
			*loc++
		}
	} else {
		msg := "missing \\E"
		if quoted {
			msg = "missing \""
		}
		return nil, nil, false, 0, syntaxErr(*loc, msg)
	}
	return firstpos, lastpos, nullable, 1, nil
}

// parseGroup handles every '(' form: plain groups, (?:...), (?=...),
// (?#...), (?^...), and (?imqsx...) modifier groups.
func (p *parser) parseGroup(begin bool, loc *position.Location, lazypos *position.Set) (*position.Set, *position.Set, bool, position.Index, error) {
	*loc++
	if p.cur.At(*loc) != '?' {
		firstpos, lastpos, nullable, iter, err := p.parse1(begin, loc, lazypos)
		if err != nil {
			return nil, nil, false, 0, err
		}
		if p.cur.At(*loc) == ')' {
			*loc++
		} else {
			return nil, nil, false, 0, syntaxErr(*loc, "missing )")
		}
		return firstpos, lastpos, nullable, iter, nil
	}

	*loc++
	c := p.cur.At(*loc)
	switch {
	case c == '#':
		for c = p.cur.At(*loc + 1); c != 0 && c != ')'; c = p.cur.At(*loc + 1) {
			*loc++
		}
		if c == ')' {
			*loc += 2
		}
		return position.NewSet(), position.NewSet(), true, 1, nil

	case c == '^':
		*loc++
		firstpos, lastpos, nullable, iter, err := p.parse1(begin, loc, lazypos)
		if err != nil {
			return nil, nil, false, 0, err
		}
		for _, pp := range lastpos.Items() {
			p.follow.InsertOne(pp.Pos(), position.Accepting(0))
		}
		if p.cur.At(*loc) == ')' {
			*loc++
		} else {
			return nil, nil, false, 0, syntaxErr(*loc, "missing )")
		}
		return firstpos, lastpos, nullable, iter, nil

	case c == '=':
		lPos := position.New(*loc - 2)
		*loc++
		firstpos, lastpos, nullable, iter, err := p.parse1(begin, loc, lazypos)
		if err != nil {
			return nil, nil, false, 0, err
		}
		firstpos.Insert(lPos)
		if nullable {
			lastpos.Insert(lPos)
		}
		if !p.lookahead.Rule(p.rule).Overlaps(lPos.Loc(), *loc) {
			p.lookahead.Rule(p.rule).Insert(lPos.Loc(), *loc)
		}
		for _, pp := range lastpos.Items() {
			p.follow.InsertOne(pp.Pos(), position.New(*loc).WithTicked(true))
		}
		lastpos.Insert(position.New(*loc).WithTicked(true))
		if nullable {
			firstpos.Insert(position.New(*loc).WithTicked(true))
			lastpos.Insert(lPos)
		}
		if p.cur.At(*loc) == ')' {
			*loc++
		} else {
			return nil, nil, false, 0, syntaxErr(*loc, "missing )")
		}
		return firstpos, lastpos, nullable, iter, nil

	case c == ':':
		*loc++
		firstpos, lastpos, nullable, iter, err := p.parse1(begin, loc, lazypos)
		if err != nil {
			return nil, nil, false, 0, err
		}
		if p.cur.At(*loc) == ')' {
			*loc++
		} else {
			return nil, nil, false, 0, syntaxErr(*loc, "missing )")
		}
		return firstpos, lastpos, nullable, iter, nil

	default:
		return p.parseModifierGroup(begin, loc, lazypos)
	}
}

func (p *parser) parseModifierGroup(begin bool, loc *position.Location, lazypos *position.Set) (*position.Set, *position.Set, bool, position.Index, error) {
	mLoc := *loc
	saved := p.flags
	c := p.cur.At(*loc)
	for {
		switch c {
		case 'i':
			p.flags.IgnoreCase = true
		case 'l':
			p.flags.Lookahead = true
		case 'm':
			p.flags.Multiline = true
		case 'q':
			p.flags.Quote = true
		case 's':
			p.flags.Dotall = true
		case 'x':
			p.flags.FreeSpacing = true
		default:
			return nil, nil, false, 0, syntaxErr(*loc, "unrecognized modifier")
		}
		*loc++
		c = p.cur.At(*loc)
		if c == 0 || c == ':' || c == ')' {
			break
		}
	}
	if c != 0 {
		*loc++
	}

	if mLoc == 2 && c == ')' {
		firstpos, lastpos, nullable, iter, err := p.parse2(begin, loc, lazypos)
		if err != nil {
			return nil, nil, false, 0, err
		}
		if c != ')' {
			if p.cur.At(*loc) == ')' {
				*loc++
			} else {
				return nil, nil, false, 0, syntaxErr(*loc, "missing )")
			}
		}
		return firstpos, lastpos, nullable, iter, nil
	}

	firstpos, lastpos, nullable, iter, err := p.parse1(begin, loc, lazypos)
	if err != nil {
		return nil, nil, false, 0, err
	}
	m := mLoc
	for {
		mc := p.cur.At(m)
		m++
		if mc != 0 && mc != 'q' && mc != 'x' && mc != ':' && mc != ')' {
			p.modifiers.Record(mc, m, *loc)
		}
		if mc == 0 || mc == ':' || mc == ')' {
			break
		}
	}
	p.flags = saved
	if c != ')' {
		if p.cur.At(*loc) == ')' {
			*loc++
		} else {
			return nil, nil, false, 0, syntaxErr(*loc, "missing )")
		}
	}
	return firstpos, lastpos, nullable, iter, nil
}

// lazyPositions returns the positions of pos re-tagged lazy with every
// location in lazypos, mirroring pattern.cpp's two-argument lazy().
func lazyPositions(lazypos, pos *position.Set) *position.Set {
	out := position.NewSet()
	for _, pp := range pos.Items() {
		for _, q := range lazypos.Items() {
			out.Insert(pp.WithLazy(q.Loc()))
		}
	}
	return out
}

// applyLazy re-tags pos lazy in place when lazypos is non-empty.
func applyLazy(lazypos, pos *position.Set) *position.Set {
	if lazypos.Empty() {
		return pos
	}
	return lazyPositions(lazypos, pos)
}

// applyGreedy marks every position in pos as greedy, clearing any lazy
// tag, mirroring pattern.cpp's Pattern::greedy.
func applyGreedy(pos *position.Set) *position.Set {
	out := position.NewSet()
	for _, pp := range pos.Items() {
		out.Insert(pp.WithLazy(0).WithGreedy(true))
	}
	return out
}

func isSpace(c byte) bool {
	return c != 0 && unicode.IsSpace(rune(c))
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
