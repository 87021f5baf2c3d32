// Package logger is a small ring-buffer logger used throughout the kernel
// for debug/trace output that the host may want to inspect (illegal
// instructions, unrecognised DMA chcr words, unknown CD-ROM commands and
// register accesses) without that output ever affecting control flow.
// CD-ROM interrupt arm/ack transitions are not logged.
//
// Unlike the standard library's log package, entries are held in memory
// (oldest entries fall off once the ring fills) and are only rendered to an
// io.Writer on demand via Write or Tail. This keeps hot paths (the CPU
// step loop) cheap even when nothing is draining the log.
package logger

import (
	"fmt"
	"io"
	"strings"
)

// Permission allows a caller to conditionally suppress logging, for example
// to mute a noisy tag under normal operation while still allowing it to be
// switched on. The zero value of any type satisfying this interface should
// generally allow logging, matching the package-level default below.
type Permission interface {
	AllowLogging() bool
}

// Allow is a Permission that always allows logging.
var Allow = alwaysAllow{}

type alwaysAllow struct{}

func (alwaysAllow) AllowLogging() bool { return true }

type entry struct {
	tag    string
	detail string
}

// Logger is a fixed-capacity ring of log entries.
type Logger struct {
	entries []entry
	head    int
	size    int
}

// NewLogger creates a Logger that retains at most capacity entries.
func NewLogger(capacity int) *Logger {
	if capacity <= 0 {
		capacity = 1
	}
	return &Logger{entries: make([]entry, capacity)}
}

func formatDetail(detail interface{}) string {
	switch d := detail.(type) {
	case error:
		return d.Error()
	case fmt.Stringer:
		return d.String()
	case string:
		return d
	default:
		return fmt.Sprintf("%v", d)
	}
}

// Log appends a single entry if perm allows logging.
func (l *Logger) Log(perm Permission, tag string, detail interface{}) {
	if perm != nil && !perm.AllowLogging() {
		return
	}
	l.append(tag, formatDetail(detail))
}

// Logf is like Log but formats detail with fmt.Sprintf.
func (l *Logger) Logf(perm Permission, tag string, format string, args ...interface{}) {
	if perm != nil && !perm.AllowLogging() {
		return
	}
	l.append(tag, fmt.Sprintf(format, args...))
}

func (l *Logger) append(tag, detail string) {
	cap := len(l.entries)
	idx := (l.head + l.size) % cap
	l.entries[idx] = entry{tag: tag, detail: detail}
	if l.size < cap {
		l.size++
	} else {
		l.head = (l.head + 1) % cap
	}
}

// Clear empties the logger.
func (l *Logger) Clear() {
	l.head = 0
	l.size = 0
}

// Write renders every retained entry, oldest first, to w.
func (l *Logger) Write(w io.Writer) {
	l.Tail(w, l.size)
}

// Tail renders the most recent n entries, oldest first, to w. Asking for
// more entries than are retained is not an error; it renders everything
// available.
func (l *Logger) Tail(w io.Writer, n int) {
	if n > l.size {
		n = l.size
	}
	if n <= 0 {
		return
	}

	cap := len(l.entries)
	start := (l.head + l.size - n + cap) % cap

	var b strings.Builder
	for i := 0; i < n; i++ {
		e := l.entries[(start+i)%cap]
		b.WriteString(e.tag)
		b.WriteString(": ")
		b.WriteString(e.detail)
		b.WriteString("\n")
	}
	io.WriteString(w, b.String())
}

// defaultLogger is the package-level instance used by the free functions
// below, for call sites that don't need a private ring.
var defaultLogger = NewLogger(1024)

// Log appends an entry to the package-level default logger.
func Log(tag string, detail interface{}) {
	defaultLogger.Log(Allow, tag, detail)
}

// Logf is like Log but formats detail with fmt.Sprintf.
func Logf(tag string, format string, args ...interface{}) {
	defaultLogger.Logf(Allow, tag, format, args...)
}

// Write renders the package-level default logger to w.
func Write(w io.Writer) {
	defaultLogger.Write(w)
}

// Tail renders the last n entries of the package-level default logger to w.
func Tail(w io.Writer, n int) {
	defaultLogger.Tail(w, n)
}

// Clear empties the package-level default logger. Intended for tests.
func Clear() {
	defaultLogger.Clear()
}
