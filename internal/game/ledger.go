package game

import (
	"maps"
	"slices"
	"time"

	"github.com/Iron-Ham/werewolf/internal/event"
)

// Ledger is the append-only list of public facts every seat must treat as
// ground truth.
type Ledger struct {
	facts []string
}

// Append records a fact. Facts are never retracted.
func (l *Ledger) Append(fact string) {
	l.facts = append(l.facts, fact)
}

// Facts returns a copy of all facts in order.
func (l *Ledger) Facts() []string {
	return slices.Clone(l.facts)
}

// Len returns the number of facts.
func (l *Ledger) Len() int { return len(l.facts) }

// Record is one history entry. Turn never decreases along a history.
type Record struct {
	Turn      int            `json:"turn"`
	Kind      string         `json:"kind"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// History is the ordered event log of one game. Each appended record is
// also published on the bus.
type History struct {
	gameID  string
	bus     *event.Bus
	now     func() time.Time
	records []Record
}

// NewHistory creates a History. A nil bus publishes nothing.
func NewHistory(gameID string, bus *event.Bus) *History {
	return &History{gameID: gameID, bus: bus, now: time.Now}
}

// Append records an event and publishes it.
func (h *History) Append(turn int, kind string, payload map[string]any) {
	if n := len(h.records); n > 0 && turn < h.records[n-1].Turn {
		turn = h.records[n-1].Turn
	}
	rec := Record{Turn: turn, Kind: kind, Payload: maps.Clone(payload), Timestamp: h.now()}
	h.records = append(h.records, rec)
	if h.bus != nil {
		h.bus.Publish(event.NewGameEvent(h.gameID, rec.Turn, kind, payload, rec.Timestamp))
	}
}

// Records returns a copy of the log.
func (h *History) Records() []Record {
	return slices.Clone(h.records)
}

// Kinds returns the records of the given kind.
func (h *History) Kinds(kind string) []Record {
	var out []Record
	for _, r := range h.records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}
