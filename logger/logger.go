// Package logger provides a small ring-buffered log used throughout the
// engine for diagnostic trails: stuck-loop traces, shadow-stack dumps,
// interrupt dispatch warnings. It is not meant for end-user output.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const capacity = 1000

type entry struct {
	tag    string
	detail string
}

func (e entry) String() string {
	return e.tag + ": " + e.detail
}

var (
	mu      sync.Mutex
	entries []entry
)

func format(detail interface{}) string {
	switch d := detail.(type) {
	case string:
		return d
	case error:
		return d.Error()
	case fmt.Stringer:
		return d.String()
	default:
		return fmt.Sprintf("%v", d)
	}
}

// Log appends a tagged entry to the log. detail is rendered as a plain
// string, an error's message, a Stringer, or via the %v verb.
func Log(tag string, detail interface{}) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, entry{tag: tag, detail: format(detail)})
	if len(entries) > capacity {
		entries = entries[len(entries)-capacity:]
	}
}

// Logf appends a tagged entry built with fmt.Sprintf.
func Logf(tag string, format string, args ...interface{}) {
	Log(tag, fmt.Sprintf(format, args...))
}

// Write writes the entire log to w, one "tag: detail" line per entry.
// The entries stay in the log; Clear removes them.
func Write(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	io.WriteString(w, b.String())
}

// Tail writes the most recent n entries to w, or all entries if there
// are fewer than n.
func Tail(w io.Writer, n int) {
	mu.Lock()
	defer mu.Unlock()
	if n > len(entries) {
		n = len(entries)
	}
	var b strings.Builder
	for _, e := range entries[len(entries)-n:] {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	io.WriteString(w, b.String())
}

// Clear empties the log, used between test cases.
func Clear() {
	mu.Lock()
	defer mu.Unlock()
	entries = nil
}
