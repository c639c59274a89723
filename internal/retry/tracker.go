// Package retry tracks inference retry accounting per seat.
//
// Every model call a seat makes is recorded here: how many calls were
// issued, how many attempts failed and were retried, and how many calls
// exhausted their retries and degraded to an error reply. The summary is
// logged and stored in the replay at game end so that an operator can tell
// a seat that played badly from a seat whose endpoint was failing.
package retry

import (
	"slices"
	"sync"
)

// SeatState tracks inference outcomes for one seat.
type SeatState struct {
	Seat  int `json:"seat"`
	Calls int `json:"calls"`
	// Failures counts failed attempts, including ones that were retried.
	Failures int `json:"failures"`
	// Degraded counts calls that exhausted their retries.
	Degraded  int    `json:"degraded"`
	LastError string `json:"last_error,omitempty"`
}

// Tracker records per-seat inference attempts.
// It is safe for concurrent use; votes fan out across seats.
type Tracker struct {
	mu     sync.RWMutex
	states map[int]*SeatState
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		states: make(map[int]*SeatState),
	}
}

func (t *Tracker) state(seat int) *SeatState {
	s, ok := t.states[seat]
	if !ok {
		s = &SeatState{Seat: seat}
		t.states[seat] = s
	}
	return s
}

// RecordCall records that a seat issued one logical call.
func (t *Tracker) RecordCall(seat int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state(seat).Calls++
}

// RecordFailure records a failed attempt and its error message.
func (t *Tracker) RecordFailure(seat int, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.state(seat)
	s.Failures++
	s.LastError = errMsg
}

// RecordDegraded records a call that gave up after its last retry.
func (t *Tracker) RecordDegraded(seat int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state(seat).Degraded++
}

// Get returns a copy of a seat's state and whether it exists.
func (t *Tracker) Get(seat int) (SeatState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.states[seat]
	if !ok {
		return SeatState{}, false
	}
	return *s, true
}

// DegradedSeats returns the ids of seats with at least one degraded call,
// in ascending order.
func (t *Tracker) DegradedSeats() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var seats []int
	for id, s := range t.states {
		if s.Degraded > 0 {
			seats = append(seats, id)
		}
	}
	slices.Sort(seats)
	return seats
}

// Summary returns a copy of every seat's state ordered by seat id.
func (t *Tracker) Summary() []SeatState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]SeatState, 0, len(t.states))
	for _, s := range t.states {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b SeatState) int { return a.Seat - b.Seat })
	return out
}

// Reset clears all recorded state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states = make(map[int]*SeatState)
}
