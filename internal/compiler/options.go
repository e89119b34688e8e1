package compiler

import "strings"

// Options configures a single compilation, mirroring the classic
// reflex option-string mini-language (pattern.cpp's init_options):
// b i l m q r s w x, plus e= (escape character), f= (output files) and
// n= (generated table name).
type Options struct {
	ByteRaw     bool // b: disable escape processing inside character classes
	IgnoreCase  bool // i: case-insensitive
	Lookahead   bool // l: enable '/' lookahead syntax and l+x /* */ comments
	Multiline   bool // m: ^/$ match line boundaries
	Quote       bool // q: enable "..." literal strings
	Raise       bool // r: raise on error rather than warn
	Dotall      bool // s: '.' matches any byte
	Warn        bool // w: warn (display) on error
	FreeSpacing bool // x: ignore whitespace/#-comments
	Escape      byte // e=C: escape character, 0 disables escapes

	Files []string // f=a,b,c: output files to export to
	Name  string   // n=NAME: generated table name
}

// DefaultOptions returns Options with the classic default escape
// character and every flag clear.
func DefaultOptions() Options {
	return Options{Escape: '\\'}
}

// ParseOptionString decodes a reflex-style option string into Options,
// following the same single-pass scan as pattern.cpp's init_options.
func ParseOptionString(opt string) Options {
	o := DefaultOptions()
	if opt == "" {
		return o
	}
	i := 0
	for i < len(opt) {
		switch opt[i] {
		case 'b':
			o.ByteRaw = true
			i++
		case 'i':
			o.IgnoreCase = true
			i++
		case 'l':
			o.Lookahead = true
			i++
		case 'm':
			o.Multiline = true
			i++
		case 'q':
			o.Quote = true
			i++
		case 'r':
			o.Raise = true
			i++
		case 's':
			o.Dotall = true
			i++
		case 'w':
			o.Warn = true
			i++
		case 'x':
			o.FreeSpacing = true
			i++
		case 'e':
			i++
			if i < len(opt) && opt[i] == '=' {
				i++
			}
			if i < len(opt) {
				if opt[i] == ';' {
					o.Escape = 0
				} else {
					o.Escape = opt[i]
				}
				i++
			}
		case 'f', 'n':
			isFile := opt[i] == 'f'
			i++
			if i < len(opt) && opt[i] == '=' {
				i++
			}
			start := i
			for i < len(opt) && opt[i] != ';' {
				if opt[i] == ',' || opt[i] == ' ' {
					flushName(&o, opt[start:i], isFile)
					start = i + 1
				}
				i++
			}
			if i > start {
				flushName(&o, opt[start:i], isFile)
			}
		default:
			i++
		}
	}
	return o
}

func flushName(o *Options, name string, isFile bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if isFile || strings.Contains(name, ".") {
		o.Files = append(o.Files, name)
	} else {
		o.Name = name
	}
}
