// Package narrator renders game events to a console as they happen.
//
// A Narrator subscribes to the event bus and prints one line per history
// record, plus streamed reply fragments when seats stream. Styling is
// applied only when the output is a terminal.
package narrator

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Iron-Ham/werewolf/internal/event"
	"github.com/Iron-Ham/werewolf/internal/util"
)

// Narrator writes a running account of a game.
type Narrator struct {
	mu     sync.Mutex
	w      io.Writer
	styled bool
	// secrets controls whether night actions and roles are shown.
	secrets bool
	// width clips roster and tally lines; 0 means unlimited.
	width int
	// streaming is the seat whose fragments are being printed, 0 if none.
	streaming int
	subs      []string
}

// Option configures a Narrator.
type Option func(*Narrator)

// WithStyle forces styling on or off.
func WithStyle(styled bool) Option {
	return func(n *Narrator) { n.styled = styled }
}

// WithSecrets shows the private night actions and the role deal.
func WithSecrets(show bool) Option {
	return func(n *Narrator) { n.secrets = show }
}

// WithWidth clips the long roster and tally lines to cols columns.
func WithWidth(cols int) Option {
	return func(n *Narrator) { n.width = cols }
}

// New creates a Narrator. Styling defaults to on when w is a terminal.
func New(w io.Writer, opts ...Option) *Narrator {
	n := &Narrator{w: w, styled: IsTerminal(w), secrets: true, width: TerminalWidth(w)}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the column count of the terminal behind w, or 0 when
// w is not a terminal.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return cols
}

// Attach subscribes the narrator to every event on the bus.
func (n *Narrator) Attach(bus *event.Bus) {
	id := bus.SubscribeAll(n.Handle)
	n.mu.Lock()
	n.subs = append(n.subs, id)
	n.mu.Unlock()
}

// Detach removes the narrator's subscriptions.
func (n *Narrator) Detach(bus *event.Bus) {
	n.mu.Lock()
	subs := n.subs
	n.subs = nil
	n.mu.Unlock()
	for _, id := range subs {
		bus.Unsubscribe(id)
	}
}

// Handle prints one event. Safe for concurrent use.
func (n *Narrator) Handle(ev event.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch e := ev.(type) {
	case event.StreamChunkEvent:
		if e.Public || n.secrets {
			n.chunk(e)
		}
	case event.InferenceRetryEvent:
		// The retry streams the reply again from the start.
		if n.streaming == e.Seat {
			_, _ = fmt.Fprint(n.w, n.paint(mutedStyle, " [interrupted]"))
			n.endStream()
		}
	case event.GameEvent:
		line := n.Render(e)
		if line == "" {
			return
		}
		n.endStream()
		_, _ = fmt.Fprintln(n.w, line)
	}
}

func (n *Narrator) chunk(e event.StreamChunkEvent) {
	if n.streaming != e.Seat {
		n.endStream()
		_, _ = fmt.Fprint(n.w, n.paint(speakerStyle, fmt.Sprintf("Seat %d> ", e.Seat)))
		n.streaming = e.Seat
	}
	_, _ = fmt.Fprint(n.w, e.Chunk)
}

func (n *Narrator) endStream() {
	if n.streaming != 0 {
		_, _ = fmt.Fprintln(n.w)
		n.streaming = 0
	}
}

// Render formats one game event, or returns "" for events that are not
// shown.
func (n *Narrator) Render(e event.GameEvent) string {
	p := e.Payload
	switch e.Kind {
	case event.KindGameStarted:
		line := n.paint(bannerStyle, "Werewolf game "+e.GameID)
		if roles, ok := p["roles"].(map[int]string); ok && n.secrets {
			var parts []string
			for _, id := range slices.Sorted(maps.Keys(roles)) {
				parts = append(parts, fmt.Sprintf("%d:%s", id, roles[id]))
			}
			line += "\n" + util.FitWidth(n.paint(mutedStyle, "Roles "+strings.Join(parts, " ")), n.width)
		}
		return line

	case event.KindPhaseChanged:
		switch p["phase"] {
		case "night":
			return "\n" + n.paint(nightHeader, fmt.Sprintf("=== Night %d ===", e.Turn))
		case "day":
			return "\n" + n.paint(dayHeader, fmt.Sprintf("=== Day %d ===", e.Turn))
		}
		return ""

	case event.KindNegotiation:
		if !n.secrets {
			return ""
		}
		target := number(p["target"])
		if target < 1 {
			return n.paint(wolfStyle, "Wolves agreed on no target.")
		}
		how := "after a forced vote"
		if consensus, _ := p["consensus"].(bool); consensus {
			how = "by consensus"
		}
		return n.paint(wolfStyle, fmt.Sprintf("Wolves chose seat %d %s.", target, how))

	case event.KindWitchActed:
		if !n.secrets {
			return ""
		}
		return n.paint(goodStyle, fmt.Sprintf("Witch saved %v, poisoned %v.", p["saved"], p["poisoned"]))

	case event.KindSeerChecked:
		if !n.secrets {
			return ""
		}
		return n.paint(goodStyle, fmt.Sprintf("Seer %d checked seat %d: %v.", number(p["seer"]), number(p["target"]), p["faction"]))

	case event.KindHunterShot:
		return n.paint(deathStyle, fmt.Sprintf("Hunter %d shot seat %d.", number(p["hunter"]), number(p["target"])))

	case event.KindSeatDied:
		return n.paint(deathStyle, fmt.Sprintf("Seat %d (%v) died: %v.", number(p["seat"]), p["role"], p["cause"]))

	case event.KindSeatSpoke:
		label := fmt.Sprintf("Seat %d", number(p["seat"]))
		if kind, _ := p["kind"].(string); kind != "" && kind != "discussion" {
			label += " (" + strings.ReplaceAll(kind, "_", " ") + ")"
		}
		return n.paint(speakerStyle, label+":") + " " + fmt.Sprint(p["text"])

	case event.KindVoteTallied:
		line := n.paint(mutedStyle, fmt.Sprintf("Vote (%v): %s, top %v", p["round"], formatCounts(p["counts"]), p["top"]))
		return util.FitWidth(line, n.width)

	case event.KindGameEnded:
		return "\n" + n.paint(bannerStyle, fmt.Sprintf("Game over: %v after %d turns", p["winner"], number(p["turns"])))
	}
	return ""
}

func (n *Narrator) paint(s lipgloss.Style, text string) string {
	if !n.styled {
		return text
	}
	return s.Render(text)
}

func number(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case float64:
		return int(x)
	}
	return 0
}

func formatCounts(v any) string {
	counts, ok := v.(map[int]int)
	if !ok || len(counts) == 0 {
		return "no valid votes"
	}
	parts := make([]string, 0, len(counts))
	for _, id := range slices.Sorted(maps.Keys(counts)) {
		parts = append(parts, fmt.Sprintf("seat %d=%d", id, counts[id]))
	}
	return strings.Join(parts, ", ")
}
