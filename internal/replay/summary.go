package replay

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/Iron-Ham/werewolf/internal/event"
)

// Death is one seat leaving the game, as recorded in the history.
type Death struct {
	Turn  int    `json:"turn"`
	Seat  int    `json:"seat"`
	Cause string `json:"cause"`
	Role  string `json:"role"`
}

// Summary is the short account printed by "replay show".
type Summary struct {
	GameID   string         `json:"game_id"`
	Winner   string         `json:"winner"`
	Turns    int            `json:"turns"`
	Duration time.Duration  `json:"duration"`
	Roles    map[int]string `json:"roles"`
	Deaths   []Death        `json:"deaths"`
	Events   int            `json:"events"`
	// Degraded lists seats that answered with an error reply at least once.
	Degraded []int `json:"degraded,omitempty"`
	Canceled bool  `json:"canceled,omitempty"`
}

// Summarize extracts the winner, turn count and death list of a record.
func Summarize(rec Record) Summary {
	s := Summary{
		GameID:   rec.GameID,
		Winner:   rec.Winner,
		Turns:    rec.Turns,
		Roles:    rec.Roles,
		Events:   len(rec.History),
		Canceled: rec.Canceled,
	}
	if !rec.StartedAt.IsZero() && rec.EndedAt.After(rec.StartedAt) {
		s.Duration = rec.EndedAt.Sub(rec.StartedAt)
	}

	for _, r := range rec.History {
		if r.Kind != event.KindSeatDied {
			continue
		}
		seat, ok := intValue(r.Payload["seat"])
		if !ok {
			continue
		}
		cause, _ := r.Payload["cause"].(string)
		role, _ := r.Payload["role"].(string)
		s.Deaths = append(s.Deaths, Death{Turn: r.Turn, Seat: seat, Cause: cause, Role: role})
	}

	for _, st := range rec.Inference {
		if st.Degraded > 0 {
			s.Degraded = append(s.Degraded, st.Seat)
		}
	}
	slices.Sort(s.Degraded)
	return s
}

// WriteText prints the summary in a human-readable layout.
func (s Summary) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Game:    %s\n", s.GameID)
	if s.Canceled {
		b.WriteString("Winner:  none (game canceled)\n")
	} else {
		fmt.Fprintf(&b, "Winner:  %s\n", s.Winner)
	}
	fmt.Fprintf(&b, "Turns:   %d\n", s.Turns)
	if s.Duration > 0 {
		fmt.Fprintf(&b, "Length:  %s\n", s.Duration.Round(time.Second))
	}
	fmt.Fprintf(&b, "Events:  %d\n", s.Events)

	if len(s.Roles) > 0 {
		b.WriteString("\nSeats:\n")
		seats := make([]int, 0, len(s.Roles))
		for id := range s.Roles {
			seats = append(seats, id)
		}
		slices.Sort(seats)
		for _, id := range seats {
			fmt.Fprintf(&b, "  %2d  %s\n", id, s.Roles[id])
		}
	}

	b.WriteString("\nDeaths:\n")
	if len(s.Deaths) == 0 {
		b.WriteString("  none\n")
	}
	for _, d := range s.Deaths {
		fmt.Fprintf(&b, "  turn %d: seat %d (%s) by %s\n", d.Turn, d.Seat, d.Role, d.Cause)
	}

	if len(s.Degraded) > 0 {
		fmt.Fprintf(&b, "\nDegraded seats: %v\n", s.Degraded)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON prints the summary as indented JSON.
func (s Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// intValue reads a payload number. In-process payloads hold ints; decoded
// ones hold float64.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}
