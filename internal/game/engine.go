// Package game runs a Werewolf session between model-backed seats.
//
// The [Engine] owns all game state: seats, the public fact ledger and the
// history log. Seats are only consulted through the [Participant] interface.
// Concurrent solicitation (the wolves' blind round and the votes) is read
// only with respect to engine state; every effect of a step is applied by
// the engine on its own goroutine once the step has completed.
package game

import (
	"context"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"

	"github.com/Iron-Ham/werewolf/internal/agent"
	"github.com/Iron-Ham/werewolf/internal/config"
	"github.com/Iron-Ham/werewolf/internal/errors"
	"github.com/Iron-Ham/werewolf/internal/event"
	"github.com/Iron-Ham/werewolf/internal/logging"
)

// Phase is the engine's state.
type Phase string

// Phases.
const (
	PhaseNight    Phase = "night"
	PhaseDay      Phase = "day"
	PhaseGameOver Phase = "game_over"
)

// Winner is a game outcome.
type Winner string

// Outcomes. WinnerNone means the game is still running.
const (
	WinnerNone     Winner = ""
	WinnerGood     Winner = "good"
	WinnerWerewolf Winner = "werewolf"
	WinnerDraw     Winner = "draw"
)

// Cause is why a seat died.
type Cause string

// Causes of death.
const (
	CauseWolf   Cause = "wolf"
	CausePoison Cause = "poison"
	CauseShot   Cause = "shot"
	CauseVote   Cause = "vote"
)

// Death is a seat's death and its first-applied cause.
type Death struct {
	Seat  int   `json:"seat"`
	Cause Cause `json:"cause"`
}

// Options carries the engine's collaborators.
type Options struct {
	// GameID identifies the game in logs and events. Empty means a new UUID.
	GameID string
	// Bus receives every history record. Optional.
	Bus    *event.Bus
	Logger *logging.Logger
}

// Result is the outcome of Run.
type Result struct {
	GameID  string
	Winner  Winner
	Turns   int
	Roles   map[int]string
	Facts   []string
	History []Record
}

// Engine drives Night and Day phases until a faction wins or the turn cap is
// reached.
type Engine struct {
	cfg     config.GameConfig
	gameID  string
	seats   []*Seat
	ledger  Ledger
	history *History
	turn    int
	phase   Phase
	winner  Winner
	logger  *logging.Logger
}

// New deals roles and builds one participant per seat through factory.
// cfg must already be validated. Roles are shuffled with cfg.RandomSeed when
// set, so the same seed always yields the same seating.
func New(cfg config.GameConfig, factory Factory, opts Options) (*Engine, error) {
	gameID := opts.GameID
	if gameID == "" {
		gameID = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	e := &Engine{
		cfg:     cfg,
		gameID:  gameID,
		history: NewHistory(gameID, opts.Bus),
		turn:    1,
		phase:   PhaseNight,
		logger:  logger.WithGame(gameID),
	}

	roles := BuildRoles(cfg.Roles)
	newRand(cfg.RandomSeed).Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	assigned := make(map[int]string, len(roles))
	for i, role := range roles {
		id := i + 1
		p, err := factory(id, role, SystemPrompt(id, role))
		if err != nil {
			return nil, errors.Wrapf(err, "building participant for seat %d", id)
		}
		e.seats = append(e.seats, &Seat{ID: id, Role: role, Alive: true, p: p})
		assigned[id] = string(role.Type)
		e.logger.Info("role assigned", "seat", id, "role", string(role.Type))
	}

	wolves := e.aliveWolves()
	for _, w := range wolves {
		w.p.Receive(teammatesMessage(without(ids(wolves), w.ID)), true)
	}

	e.history.Append(e.turn, event.KindGameStarted, map[string]any{"roles": assigned})
	return e, nil
}

func newRand(seed *int64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s := uint64(*seed)
	return rand.New(rand.NewPCG(s, s))
}

// Run plays the game to the end. It returns an error only if ctx ends the
// game early or the game was already over; inference and decision failures
// never abort a game.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	if e.Over() {
		return e.result(), errors.ErrGameOver
	}
	e.logger.Info("game started", "seats", len(e.seats), "max_turns", e.cfg.MaxTurns)

	// A deal where the wolves already hold parity is decided before any night.
	e.CheckWin()

	for !e.Over() {
		if err := ctx.Err(); err != nil {
			return e.result(), errors.Wrapf(errors.ErrCanceled, "game interrupted on turn %d (%v)", e.turn, err)
		}

		e.enter(PhaseNight)
		deaths := e.runNight(ctx)

		e.enter(PhaseDay)
		e.runDay(ctx, deaths)
		if e.Over() {
			break
		}

		e.turn++
		if e.turn > e.cfg.MaxTurns {
			e.logger.Info("turn cap reached", "max_turns", e.cfg.MaxTurns)
			e.finish(WinnerDraw)
		}
	}

	e.history.Append(e.turn, event.KindGameEnded, map[string]any{
		"winner": string(e.winner),
		"turns":  e.turns(),
	})
	e.logger.Info("game ended", "winner", string(e.winner), "turns", e.turns())
	return e.result(), nil
}

// CheckWin evaluates the win rule and ends the game if it fires. Once the
// game is over it keeps returning the same winner.
func (e *Engine) CheckWin() (Winner, bool) {
	if e.Over() {
		return e.winner, true
	}

	wolves, good := 0, 0
	for _, s := range e.seats {
		if !s.Alive {
			continue
		}
		if s.Role.Faction() == FactionWerewolf {
			wolves++
		} else {
			good++
		}
	}

	switch {
	case wolves == 0:
		e.finish(WinnerGood)
	case wolves >= good:
		e.finish(WinnerWerewolf)
	default:
		return WinnerNone, false
	}
	return e.winner, true
}

// Over reports whether the game has ended.
func (e *Engine) Over() bool { return e.winner != WinnerNone }

// Winner returns the outcome so far.
func (e *Engine) Winner() Winner { return e.winner }

// Turn returns the current turn, starting at 1.
func (e *Engine) Turn() int { return e.turn }

// Phase returns the current phase.
func (e *Engine) Phase() Phase { return e.phase }

// GameID returns the game's identifier.
func (e *Engine) GameID() string { return e.gameID }

// Seat returns the seat with id.
func (e *Engine) Seat(id int) (*Seat, error) {
	if id < 1 || id > len(e.seats) {
		return nil, errors.Wrapf(errors.ErrSeatNotFound, "seat %d", id)
	}
	return e.seats[id-1], nil
}

// Seats returns all seats in id order.
func (e *Engine) Seats() []*Seat { return slices.Clone(e.seats) }

// Facts returns the public ledger.
func (e *Engine) Facts() []string { return e.ledger.Facts() }

// History returns the history log.
func (e *Engine) History() []Record { return e.history.Records() }

func (e *Engine) finish(w Winner) {
	e.winner = w
	e.phase = PhaseGameOver
	e.logger.Info("winner decided", "winner", string(w), "turn", e.turn)
}

func (e *Engine) enter(p Phase) {
	e.phase = p
	e.history.Append(e.turn, event.KindPhaseChanged, map[string]any{"phase": string(p)})
}

func (e *Engine) turns() int { return min(e.turn, e.cfg.MaxTurns) }

func (e *Engine) result() Result {
	roles := make(map[int]string, len(e.seats))
	for _, s := range e.seats {
		roles[s.ID] = string(s.Role.Type)
	}
	return Result{
		GameID:  e.gameID,
		Winner:  e.winner,
		Turns:   e.turns(),
		Roles:   roles,
		Facts:   e.ledger.Facts(),
		History: e.history.Records(),
	}
}

func (e *Engine) phaseLogger() *logging.Logger {
	return e.logger.WithTurn(e.turn).WithPhase(string(e.phase))
}

func (e *Engine) aliveSeats() []*Seat {
	var out []*Seat
	for _, s := range e.seats {
		if s.Alive {
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) aliveIDs() []int { return ids(e.aliveSeats()) }

func (e *Engine) aliveWolves() []*Seat { return e.aliveOf(Werewolf) }

func (e *Engine) aliveOf(t RoleType) []*Seat {
	return slices.DeleteFunc(e.aliveSeats(), func(s *Seat) bool { return s.Role.Type != t })
}

// broadcast delivers a public message to every living seat except skip.
func (e *Engine) broadcast(msg string, skip ...int) {
	for _, s := range e.aliveSeats() {
		if !slices.Contains(skip, s.ID) {
			s.p.Receive(msg, false)
		}
	}
}

// recordFact appends to the ledger and announces the fact.
func (e *Engine) recordFact(fact string) {
	e.ledger.Append(fact)
	e.broadcast(fact)
	e.history.Append(e.turn, event.KindFactRecorded, map[string]any{"fact": fact})
}

// kill flips a seat to dead. It returns false if the seat was already dead.
func (e *Engine) kill(id int, cause Cause) bool {
	s := e.seats[id-1]
	if !s.Alive {
		return false
	}
	s.Alive = false
	e.history.Append(e.turn, event.KindSeatDied, map[string]any{
		"seat":  id,
		"cause": string(cause),
		"role":  string(s.Role.Type),
	})
	e.phaseLogger().Info("seat died", "seat", id, "cause", string(cause), "role", string(s.Role.Type))
	return true
}

// speak asks a seat for a statement and records it.
func (e *Engine) speak(ctx context.Context, s *Seat, kind, situation, hint string) string {
	text := s.p.Speak(ctx, agent.SpeakRequest{Context: situation, Facts: e.ledger.Facts(), Hint: hint})
	e.history.Append(e.turn, event.KindSeatSpoke, map[string]any{
		"seat": s.ID,
		"kind": kind,
		"text": text,
	})
	return text
}
