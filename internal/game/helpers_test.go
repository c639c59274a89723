package game

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/Iron-Ham/werewolf/internal/agent"
	"github.com/Iron-Ham/werewolf/internal/config"
	"github.com/Iron-Ham/werewolf/internal/decision"
)

// actFunc decides a scripted seat's answer. It may run concurrently.
type actFunc func(tb *table, seat int, req agent.ActRequest) int

func abstainAll(*table, int, agent.ActRequest) int { return decision.Abstain }

// scripted is a Participant driven by its table's actFunc.
type scripted struct {
	seat int
	tb   *table

	mu       sync.Mutex
	received []string
	private  []string
	speeches []agent.SpeakRequest
	actions  []agent.ActRequest
}

func (p *scripted) Receive(msg string, private bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if private {
		p.private = append(p.private, msg)
	} else {
		p.received = append(p.received, msg)
	}
}

func (p *scripted) Speak(_ context.Context, req agent.SpeakRequest) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speeches = append(p.speeches, req)
	return fmt.Sprintf("seat %d has nothing to hide", p.seat)
}

func (p *scripted) Act(_ context.Context, req agent.ActRequest) decision.Decision {
	p.mu.Lock()
	p.actions = append(p.actions, req)
	p.mu.Unlock()
	return decision.Decision{Choice: p.tb.act(p.tb, p.seat, req)}
}

func (p *scripted) actionsNamed(action string) []agent.ActRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []agent.ActRequest
	for _, a := range p.actions {
		if a.Action == action {
			out = append(out, a)
		}
	}
	return out
}

// table records the dealt roles so scripts can aim at them.
type table struct {
	act     actFunc
	roles   map[int]RoleType
	players map[int]*scripted
}

func newTable(act actFunc) *table {
	return &table{act: act, roles: map[int]RoleType{}, players: map[int]*scripted{}}
}

func (tb *table) factory(seat int, role Role, _ string) (Participant, error) {
	p := &scripted{seat: seat, tb: tb}
	tb.roles[seat] = role.Type
	tb.players[seat] = p
	return p, nil
}

// seatsOf returns the seats dealt role t, ascending.
func (tb *table) seatsOf(t RoleType) []int {
	var out []int
	for seat, r := range tb.roles {
		if r == t {
			out = append(out, seat)
		}
	}
	slices.Sort(out)
	return out
}

func (tb *table) first(t RoleType) int {
	s := tb.seatsOf(t)
	if len(s) == 0 {
		return 0
	}
	return s[0]
}

// good returns the good seats, ascending.
func (tb *table) good() []int {
	var out []int
	for seat, r := range tb.roles {
		if r != Werewolf {
			out = append(out, seat)
		}
	}
	slices.Sort(out)
	return out
}

func testConfig(roles config.RoleCounts, maxTurns int) config.GameConfig {
	seed := int64(7)
	return config.GameConfig{
		Roles:             roles,
		MaxTurns:          maxTurns,
		MaxMemoryTokens:   2000,
		EndgameThreshold:  4,
		NegotiationRounds: 3,
		LastWords:         config.LastWordsFirstNight,
		RandomSeed:        &seed,
	}
}

func newTestEngine(t *testing.T, cfg config.GameConfig, act actFunc) (*Engine, *table) {
	t.Helper()
	tb := newTable(act)
	e, err := New(cfg, tb.factory, Options{GameID: "test-game"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return e, tb
}

func recordsOf(e *Engine, kind string) []Record {
	var out []Record
	for _, r := range e.History() {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func mustSeat(t *testing.T, e *Engine, id int) *Seat {
	t.Helper()
	s, err := e.Seat(id)
	if err != nil {
		t.Fatalf("Seat(%d): %v", id, err)
	}
	return s
}

// wolfSeat builds a bare wolf seat around p for protocol tests.
func wolfSeat(id int, p Participant) *Seat {
	return &Seat{ID: id, Role: NewRole(Werewolf), Alive: true, p: p}
}
