package compiler

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// Logger traces compilation stages to an io.Writer when enabled. Each
// Section closes the timing of whatever section came before it, so a
// verbose compile reads as a sequence of named, timed passes rather
// than a flat message stream.
type Logger struct {
	enabled bool
	out     io.Writer

	section string
	started time.Time
}

var sectionHeading = color.New(color.Bold)

// NewLogger returns a Logger that writes to os.Stderr when enabled,
// and is otherwise a no-op.
func NewLogger(enabled bool) *Logger {
	return &Logger{enabled: enabled, out: os.Stderr}
}

// SetOutput redirects the logger away from os.Stderr.
func (l *Logger) SetOutput(w io.Writer) {
	l.out = w
}

// Enabled reports whether tracing is switched on.
func (l *Logger) Enabled() bool {
	return l.enabled
}

// Log writes a trace line scoped to the current section.
func (l *Logger) Log(format string, args ...interface{}) {
	if !l.enabled {
		return
	}
	fmt.Fprintf(l.out, "  %s\n", fmt.Sprintf(format, args...))
}

// Section closes the timing line of whatever section is open and opens
// name as the current one.
func (l *Logger) Section(name string) {
	if !l.enabled {
		return
	}
	l.closeSection()
	l.section = name
	l.started = time.Now()
	sectionHeading.Fprintf(l.out, "== %s ==\n", name)
}

// Close flushes the timing line of the section left open by the most
// recent Section call, if any. CompileWithLogger defers this so the
// final stage is timed the same as every other one.
func (l *Logger) Close() {
	if !l.enabled {
		return
	}
	l.closeSection()
	l.section = ""
}

func (l *Logger) closeSection() {
	if l.section == "" {
		return
	}
	fmt.Fprintf(l.out, "  (%s: %s)\n", l.section, time.Since(l.started).Round(time.Microsecond))
}
