// Package memory holds a seat's conversation history and the budgeted
// view of it that is sent to the model.
//
// A [Log] is append-only: a fixed system entry followed by incoming and
// generated entries. [Window] derives the view that fits a token budget
// without ever mutating the log.
package memory

import "sync"

// Kind identifies who produced a log entry.
type Kind int

const (
	// KindSystem is the fixed instructions entry at index 0.
	KindSystem Kind = iota
	// KindIncoming is anything the seat was told.
	KindIncoming
	// KindGenerated is anything the seat's model produced.
	KindGenerated
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSystem:
		return "system"
	case KindIncoming:
		return "incoming"
	case KindGenerated:
		return "generated"
	default:
		return "unknown"
	}
}

// Entry is one log entry.
type Entry struct {
	Kind Kind
	Text string
}

// Log is a seat's append-only conversation history. It is safe for
// concurrent use.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewLog creates a log whose first entry is the system instructions.
func NewLog(system string) *Log {
	return &Log{entries: []Entry{{Kind: KindSystem, Text: system}}}
}

// Append adds an incoming or generated entry. A KindSystem entry is
// recorded as incoming; there is only ever one system entry.
func (l *Log) Append(kind Kind, text string) {
	if kind == KindSystem {
		kind = KindIncoming
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Kind: kind, Text: text})
}

// Entries returns a copy of every entry, system entry first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries, system entry included.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// System returns the system entry text.
func (l *Log) System() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[0].Text
}
