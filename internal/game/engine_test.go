package game

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/Iron-Ham/werewolf/internal/agent"
	"github.com/Iron-Ham/werewolf/internal/config"
	"github.com/Iron-Ham/werewolf/internal/decision"
	werrors "github.com/Iron-Ham/werewolf/internal/errors"
	"github.com/Iron-Ham/werewolf/internal/event"
)

var sixSeats = config.RoleCounts{Werewolf: 2, Witch: 1, Seer: 1, Villager: 2}

var sevenWithHunter = config.RoleCounts{Werewolf: 2, Witch: 1, Seer: 1, Hunter: 1, Villager: 2}

func TestNew(t *testing.T) {
	e, tb := newTestEngine(t, testConfig(sixSeats, 3), abstainAll)

	if got := len(e.Seats()); got != 6 {
		t.Fatalf("len(Seats) = %d, want 6", got)
	}
	if len(tb.seatsOf(Werewolf)) != 2 || len(tb.seatsOf(Witch)) != 1 || len(tb.seatsOf(Villager)) != 2 {
		t.Errorf("dealt roles = %v, want 2 wolves, 1 witch, 2 villagers", tb.roles)
	}
	if e.Turn() != 1 || e.Phase() != PhaseNight || e.Over() {
		t.Errorf("initial state = turn %d, phase %s, over %v", e.Turn(), e.Phase(), e.Over())
	}

	wolves := tb.seatsOf(Werewolf)
	for i, w := range wolves {
		mate := wolves[1-i]
		msgs := tb.players[w].private
		if len(msgs) != 1 || !strings.Contains(msgs[0], seatList([]int{mate})) {
			t.Errorf("wolf %d private messages = %q, want teammate %d", w, msgs, mate)
		}
	}
	for _, g := range tb.good() {
		if len(tb.players[g].private) != 0 {
			t.Errorf("good seat %d received private messages %q", g, tb.players[g].private)
		}
	}

	started := recordsOf(e, event.KindGameStarted)
	if len(started) != 1 {
		t.Fatalf("game.started records = %d, want 1", len(started))
	}
	if roles := started[0].Payload["roles"].(map[int]string); len(roles) != 6 {
		t.Errorf("started roles = %v", roles)
	}
}

func TestNew_SeedIsDeterministic(t *testing.T) {
	_, a := newTestEngine(t, testConfig(sevenWithHunter, 3), abstainAll)
	_, b := newTestEngine(t, testConfig(sevenWithHunter, 3), abstainAll)

	for seat, role := range a.roles {
		if b.roles[seat] != role {
			t.Fatalf("seat %d: %s vs %s with the same seed", seat, role, b.roles[seat])
		}
	}
}

func TestNew_FactoryError(t *testing.T) {
	boom := errors.New("no model for seat")
	factory := func(seat int, _ Role, _ string) (Participant, error) {
		if seat == 3 {
			return nil, boom
		}
		return &scripted{seat: seat, tb: newTable(abstainAll)}, nil
	}

	_, err := New(testConfig(sixSeats, 3), factory, Options{})
	if !errors.Is(err, boom) {
		t.Errorf("New() error = %v, want factory error", err)
	}
}

func TestRun_AllAbstainDraws(t *testing.T) {
	e, _ := newTestEngine(t, testConfig(sixSeats, 3), abstainAll)

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if res.Winner != WinnerDraw {
		t.Errorf("Winner = %q, want draw", res.Winner)
	}
	if res.Turns != 3 {
		t.Errorf("Turns = %d, want 3", res.Turns)
	}
	if deaths := recordsOf(e, event.KindSeatDied); len(deaths) != 0 {
		t.Errorf("seat.died records = %d, want 0", len(deaths))
	}
	for _, s := range e.Seats() {
		if !s.Alive {
			t.Errorf("seat %d died", s.ID)
		}
	}

	tallies := recordsOf(e, event.KindVoteTallied)
	if len(tallies) != 3 {
		t.Fatalf("vote.tallied records = %d, want one per day", len(tallies))
	}
	for _, r := range tallies {
		if r.Payload["round"] != VoteRoundDay {
			t.Errorf("unexpected %v round with no valid votes", r.Payload["round"])
		}
	}
	if e.Phase() != PhaseGameOver {
		t.Errorf("Phase = %s, want game_over", e.Phase())
	}
}

func TestRun_HistoryTurnsNeverDecrease(t *testing.T) {
	e, _ := newTestEngine(t, testConfig(sixSeats, 4), abstainAll)
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(res.History); i++ {
		if res.History[i].Turn < res.History[i-1].Turn {
			t.Fatalf("record %d turn %d after turn %d", i, res.History[i].Turn, res.History[i-1].Turn)
		}
	}
	if last := res.History[len(res.History)-1]; last.Kind != event.KindGameEnded {
		t.Errorf("last record = %s, want game.ended", last.Kind)
	}
}

// wolvesTarget makes the wolves attack target(tb) and everyone else abstain
// unless other overrides.
func wolvesTarget(target func(tb *table) int, other actFunc) actFunc {
	return func(tb *table, seat int, req agent.ActRequest) int {
		if req.Action == ActionWolfKill {
			return target(tb)
		}
		if other != nil {
			return other(tb, seat, req)
		}
		return decision.Abstain
	}
}

func TestRun_WitchSavesTarget(t *testing.T) {
	act := wolvesTarget(func(tb *table) int { return tb.first(Villager) },
		func(tb *table, seat int, req agent.ActRequest) int {
			if req.Action == ActionAntidote {
				return req.Options[0]
			}
			return decision.Abstain
		})
	e, tb := newTestEngine(t, testConfig(sixSeats, 1), act)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if deaths := recordsOf(e, event.KindSeatDied); len(deaths) != 0 {
		t.Errorf("deaths = %v, want none after the save", deaths)
	}
	witch := mustSeat(t, e, tb.first(Witch))
	if witch.Role.HasAntidote {
		t.Error("antidote should be spent")
	}
	if !witch.Role.HasPoison {
		t.Error("poison should be untouched")
	}

	antidote := tb.players[witch.ID].actionsNamed(ActionAntidote)
	if len(antidote) != 1 || !strings.Contains(antidote[0].Note, "seat "+strconv.Itoa(tb.first(Villager))) {
		t.Errorf("witch antidote requests = %+v, want one naming the target", antidote)
	}
}

func TestRun_PoisonedHunterDoesNotShoot(t *testing.T) {
	act := func(tb *table, seat int, req agent.ActRequest) int {
		switch req.Action {
		case ActionPoison:
			return tb.first(Hunter)
		case ActionHunterShot:
			return req.Options[0]
		}
		return decision.Abstain
	}
	e, tb := newTestEngine(t, testConfig(sevenWithHunter, 1), act)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	hunter := mustSeat(t, e, tb.first(Hunter))
	if hunter.Alive {
		t.Fatal("hunter should be dead")
	}
	deaths := recordsOf(e, event.KindSeatDied)
	if len(deaths) != 1 || deaths[0].Payload["cause"] != string(CausePoison) {
		t.Errorf("deaths = %v, want only the poisoned hunter", deaths)
	}
	if shots := recordsOf(e, event.KindHunterShot); len(shots) != 0 {
		t.Errorf("hunter.shot records = %v, want none", shots)
	}
	if asked := tb.players[hunter.ID].actionsNamed(ActionHunterShot); len(asked) != 0 {
		t.Errorf("poisoned hunter was asked to shoot %d times", len(asked))
	}
	if mustSeat(t, e, tb.first(Witch)).Role.HasPoison {
		t.Error("poison should be spent")
	}
}

func TestRun_WolfKilledHunterShoots(t *testing.T) {
	act := wolvesTarget(func(tb *table) int { return tb.first(Hunter) },
		func(tb *table, seat int, req agent.ActRequest) int {
			if req.Action == ActionHunterShot {
				return tb.seatsOf(Werewolf)[0]
			}
			return decision.Abstain
		})
	e, tb := newTestEngine(t, testConfig(sevenWithHunter, 1), act)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	hunter := mustSeat(t, e, tb.first(Hunter))
	wolf := mustSeat(t, e, tb.seatsOf(Werewolf)[0])
	if hunter.Alive || wolf.Alive {
		t.Errorf("hunter alive = %v, shot wolf alive = %v, want both dead", hunter.Alive, wolf.Alive)
	}
	if hunter.Role.CanShoot {
		t.Error("shot should be spent")
	}

	deaths := recordsOf(e, event.KindSeatDied)
	if len(deaths) != 2 {
		t.Fatalf("deaths = %v, want hunter and wolf", deaths)
	}
	if deaths[1].Payload["cause"] != string(CauseShot) {
		t.Errorf("second death cause = %v, want shot", deaths[1].Payload["cause"])
	}
	// The shot came at night, before any day statement.
	if shots := recordsOf(e, event.KindHunterShot); len(shots) != 1 || shots[0].Turn != 1 {
		t.Errorf("hunter.shot records = %v", shots)
	}
}

func TestRun_DayPluralityEliminates(t *testing.T) {
	act := func(tb *table, seat int, req agent.ActRequest) int {
		if req.Action != ActionDayVote {
			return decision.Abstain
		}
		villagers := tb.seatsOf(Villager)
		if seat == villagers[0] {
			return villagers[1]
		}
		return villagers[0]
	}
	e, tb := newTestEngine(t, testConfig(sevenWithHunter, 1), act)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	out := tb.seatsOf(Villager)[0]
	if mustSeat(t, e, out).Alive {
		t.Fatalf("seat %d should be eliminated", out)
	}
	alive := 0
	for _, s := range e.Seats() {
		if s.Alive {
			alive++
		}
	}
	if alive != 6 {
		t.Errorf("alive = %d, want exactly one elimination", alive)
	}

	facts := e.Facts()
	if len(facts) != 1 || !strings.Contains(facts[0], "Revealed role: Villager") {
		t.Errorf("facts = %q, want the reveal", facts)
	}
	for _, s := range e.Seats() {
		if s.Alive && !slices.Contains(tb.players[s.ID].received, facts[0]) {
			t.Errorf("seat %d did not receive the reveal", s.ID)
		}
	}

	var lastWords int
	for _, r := range recordsOf(e, event.KindSeatSpoke) {
		if r.Payload["kind"] == SpeechLastWords {
			lastWords++
			if r.Payload["seat"] != out {
				t.Errorf("last words from seat %v, want %d", r.Payload["seat"], out)
			}
		}
	}
	if lastWords != 1 {
		t.Errorf("last words = %d, want 1", lastWords)
	}
	if pk := tb.players[out].actionsNamed(ActionPKVote); len(pk) != 0 {
		t.Error("no tie-break expected")
	}
}

// splitVote makes two seats of a and b tie on the day vote, then resolves the
// tie-break with pk.
func splitVote(pk func(tb *table, seat int, tied []int) int) actFunc {
	return func(tb *table, seat int, req agent.ActRequest) int {
		good := tb.good()
		a, b := good[0], good[1]
		switch req.Action {
		case ActionDayVote:
			switch seat {
			case good[2], good[3]:
				return a
			case tb.seatsOf(Werewolf)[0], tb.seatsOf(Werewolf)[1]:
				return b
			}
		case ActionPKVote:
			return pk(tb, seat, req.Options)
		}
		return decision.Abstain
	}
}

func TestRun_TieGoesToPK(t *testing.T) {
	act := splitVote(func(_ *table, _ int, tied []int) int { return tied[1] })
	e, tb := newTestEngine(t, testConfig(sevenWithHunter, 1), act)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	good := tb.good()
	tied := []int{good[0], good[1]}

	tallies := recordsOf(e, event.KindVoteTallied)
	if len(tallies) != 2 || tallies[1].Payload["round"] != VoteRoundPK {
		t.Fatalf("tallies = %v, want day then pk", tallies)
	}

	var defenders []int
	for _, r := range recordsOf(e, event.KindSeatSpoke) {
		if r.Payload["kind"] == SpeechDefense {
			defenders = append(defenders, r.Payload["seat"].(int))
		}
	}
	if !slices.Equal(defenders, tied) {
		t.Errorf("defenders = %v, want %v in seat order", defenders, tied)
	}

	for _, s := range e.Seats() {
		if !s.Alive {
			continue
		}
		pk := tb.players[s.ID].actionsNamed(ActionPKVote)
		if len(pk) != 1 || !slices.Equal(pk[0].Options, tied) {
			t.Errorf("seat %d pk requests = %+v, want options %v", s.ID, pk, tied)
		}
	}

	if mustSeat(t, e, tied[1]).Alive {
		t.Errorf("seat %d should lose the tie-break", tied[1])
	}
	if !mustSeat(t, e, tied[0]).Alive {
		t.Errorf("seat %d should survive", tied[0])
	}
	if !strings.Contains(e.Facts()[0], "tie-break") {
		t.Errorf("fact = %q, want tie-break elimination", e.Facts()[0])
	}
}

func TestRun_SecondTieEliminatesNobody(t *testing.T) {
	act := splitVote(func(tb *table, seat int, tied []int) int {
		if slices.Contains(tb.seatsOf(Werewolf), seat) {
			return tied[0]
		}
		if seat == tb.good()[2] || seat == tb.good()[3] {
			return tied[1]
		}
		return decision.Abstain
	})
	e, _ := newTestEngine(t, testConfig(sevenWithHunter, 1), act)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, s := range e.Seats() {
		if !s.Alive {
			t.Errorf("seat %d eliminated after a second tie", s.ID)
		}
	}
	if tallies := recordsOf(e, event.KindVoteTallied); len(tallies) != 2 {
		t.Errorf("tallies = %d, want exactly one tie-break round", len(tallies))
	}
}

func TestRun_LastWordsModes(t *testing.T) {
	tests := []struct {
		mode string
		want int
	}{
		{config.LastWordsFirstNight, 1},
		{config.LastWordsEveryNight, 2},
		{config.LastWordsNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			// Wolves kill the lowest living villager each night.
			var e *Engine
			act := wolvesTarget(func(tb *table) int {
				for _, v := range tb.seatsOf(Villager) {
					if s, _ := e.Seat(v); s.Alive {
						return v
					}
				}
				return decision.Abstain
			}, nil)

			cfg := testConfig(sevenWithHunter, 2)
			cfg.LastWords = tt.mode
			e, _ = newTestEngine(t, cfg, act)
			if _, err := e.Run(context.Background()); err != nil {
				t.Fatal(err)
			}

			got := 0
			for _, r := range recordsOf(e, event.KindSeatSpoke) {
				if r.Payload["kind"] == SpeechLastWords {
					got++
				}
			}
			if got != tt.want {
				t.Errorf("night last words = %d, want %d", got, tt.want)
			}
			if deaths := recordsOf(e, event.KindSeatDied); len(deaths) != 2 {
				t.Errorf("deaths = %d, want 2", len(deaths))
			}
		})
	}
}

func TestRun_EndgameHint(t *testing.T) {
	e, tb := newTestEngine(t, testConfig(config.RoleCounts{Werewolf: 1, Villager: 3}, 1), abstainAll)
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	for seat, p := range tb.players {
		if len(p.speeches) != 1 {
			t.Fatalf("seat %d spoke %d times, want 1", seat, len(p.speeches))
		}
		want := endgameHint(FactionGood)
		if tb.roles[seat] == Werewolf {
			want = endgameHint(FactionWerewolf)
		}
		if got := p.speeches[0].Hint; got != want {
			t.Errorf("seat %d hint = %q, want %q", seat, got, want)
		}
	}
}

func TestRun_DiscussionSeesEarlierStatements(t *testing.T) {
	e, tb := newTestEngine(t, testConfig(sixSeats, 1), abstainAll)
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	for seat := 1; seat <= 6; seat++ {
		situation := tb.players[seat].speeches[0].Context
		for earlier := 1; earlier < seat; earlier++ {
			if !strings.Contains(situation, "Seat "+strconv.Itoa(earlier)+":") {
				t.Errorf("seat %d context misses seat %d's statement", seat, earlier)
			}
		}
		if strings.Contains(situation, "Seat "+strconv.Itoa(seat)+":") {
			t.Errorf("seat %d sees its own statement", seat)
		}
		if tb.players[seat].speeches[0].Hint != "" {
			t.Errorf("seat %d got an endgame hint with 6 alive", seat)
		}
	}
}

func TestRun_Canceled(t *testing.T) {
	e, _ := newTestEngine(t, testConfig(sixSeats, 3), abstainAll)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx)
	if !errors.Is(err, werrors.ErrCanceled) {
		t.Errorf("Run() error = %v, want ErrCanceled", err)
	}
}

func TestRun_AfterGameOver(t *testing.T) {
	e, _ := newTestEngine(t, testConfig(sixSeats, 1), abstainAll)
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Run(context.Background()); !errors.Is(err, werrors.ErrGameOver) {
		t.Errorf("second Run() error = %v, want ErrGameOver", err)
	}
}

func TestCheckWin(t *testing.T) {
	tests := []struct {
		name       string
		deadWolves int
		deadGood   int
		want       Winner
		over       bool
	}{
		{"start", 0, 0, WinnerNone, false},
		{"no wolves left", 2, 0, WinnerGood, true},
		{"wolves equal good", 0, 3, WinnerWerewolf, true},
		{"wolves outnumber good", 0, 4, WinnerWerewolf, true},
		{"one wolf short of parity", 1, 2, WinnerNone, false},
		{"one wolf at parity", 1, 4, WinnerWerewolf, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, tb := newTestEngine(t, testConfig(config.RoleCounts{Werewolf: 2, Villager: 5}, 5), abstainAll)
			for _, id := range tb.seatsOf(Werewolf)[:tt.deadWolves] {
				mustSeat(t, e, id).Alive = false
			}
			for _, id := range tb.good()[:tt.deadGood] {
				mustSeat(t, e, id).Alive = false
			}

			got, over := e.CheckWin()
			if got != tt.want || over != tt.over {
				t.Errorf("CheckWin() = %q, %v, want %q, %v", got, over, tt.want, tt.over)
			}
		})
	}
}

func TestCheckWin_Idempotent(t *testing.T) {
	e, tb := newTestEngine(t, testConfig(config.RoleCounts{Werewolf: 1, Villager: 3}, 5), abstainAll)
	for _, id := range tb.good()[:2] {
		mustSeat(t, e, id).Alive = false
	}

	first, _ := e.CheckWin()
	if first != WinnerWerewolf {
		t.Fatalf("CheckWin() = %q, want werewolf", first)
	}

	// Later state changes do not move a decided winner.
	mustSeat(t, e, tb.first(Werewolf)).Alive = false
	for range 3 {
		if got, over := e.CheckWin(); got != first || !over {
			t.Errorf("CheckWin() = %q, %v after game over, want %q", got, over, first)
		}
	}
}

func TestSeat_NotFound(t *testing.T) {
	e, _ := newTestEngine(t, testConfig(sixSeats, 1), abstainAll)
	for _, id := range []int{0, 7, -1} {
		if _, err := e.Seat(id); !errors.Is(err, werrors.ErrSeatNotFound) {
			t.Errorf("Seat(%d) error = %v, want ErrSeatNotFound", id, err)
		}
	}
}

func TestRun_PublishesHistoryOnBus(t *testing.T) {
	bus := event.NewBus(nil)
	var got []event.GameEvent
	bus.SubscribeAll(func(ev event.Event) {
		if ge, ok := ev.(event.GameEvent); ok {
			got = append(got, ge)
		}
	})

	tb := newTable(abstainAll)
	e, err := New(testConfig(sixSeats, 1), tb.factory, Options{GameID: "g-bus", Bus: bus})
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != len(res.History) {
		t.Fatalf("published %d events, history has %d", len(got), len(res.History))
	}
	for i, ge := range got {
		if ge.GameID != "g-bus" || ge.Kind != res.History[i].Kind || !ge.Timestamp().Equal(res.History[i].Timestamp) {
			t.Errorf("event %d = %+v, want history record %+v", i, ge, res.History[i])
		}
	}
}

func TestRun_DominanceAtStart(t *testing.T) {
	tests := []struct {
		name  string
		roles config.RoleCounts
	}{
		{"one wolf one witch", config.RoleCounts{Werewolf: 1, Witch: 1}},
		{"two wolves two villagers", config.RoleCounts{Werewolf: 2, Villager: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The witch would poison a wolf if a night were played.
			act := func(tb *table, _ int, req agent.ActRequest) int {
				if req.Action == ActionPoison {
					return tb.first(Werewolf)
				}
				return decision.Abstain
			}
			e, tb := newTestEngine(t, testConfig(tt.roles, 3), act)

			res, err := e.Run(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if res.Winner != WinnerWerewolf {
				t.Errorf("Winner = %q, want werewolf", res.Winner)
			}
			if phases := recordsOf(e, event.KindPhaseChanged); len(phases) != 0 {
				t.Errorf("phase.changed records = %v, want none", phases)
			}
			if len(res.Facts) != 0 {
				t.Errorf("facts = %q, want none", res.Facts)
			}
			for seat, p := range tb.players {
				if len(p.actions) != 0 || len(p.speeches) != 0 {
					t.Errorf("seat %d was consulted", seat)
				}
			}
		})
	}
}

func TestRun_NightScenarios(t *testing.T) {
	tests := []struct {
		name  string
		act   actFunc
		check func(t *testing.T, e *Engine, tb *table)
	}{
		{
			name: "wolf kill and poison on one seat",
			act: wolvesTarget(func(tb *table) int { return tb.first(Villager) },
				func(tb *table, _ int, req agent.ActRequest) int {
					if req.Action == ActionPoison {
						return tb.first(Villager)
					}
					return decision.Abstain
				}),
			check: func(t *testing.T, e *Engine, tb *table) {
				deaths := recordsOf(e, event.KindSeatDied)
				if len(deaths) != 1 {
					t.Fatalf("deaths = %v, want one", deaths)
				}
				if deaths[0].Payload["seat"] != tb.first(Villager) || deaths[0].Payload["cause"] != string(CauseWolf) {
					t.Errorf("death = %v, want seat %d by wolf", deaths[0].Payload, tb.first(Villager))
				}
				if mustSeat(t, e, tb.first(Witch)).Role.HasPoison {
					t.Error("poison should be spent")
				}
			},
		},
		{
			name: "antidote and poison in one night",
			act: wolvesTarget(func(tb *table) int { return tb.first(Villager) },
				func(tb *table, _ int, req agent.ActRequest) int {
					switch req.Action {
					case ActionAntidote:
						return req.Options[0]
					case ActionPoison:
						return tb.seatsOf(Villager)[1]
					}
					return decision.Abstain
				}),
			check: func(t *testing.T, e *Engine, tb *table) {
				target, victim := tb.seatsOf(Villager)[0], tb.seatsOf(Villager)[1]
				witch := tb.first(Witch)

				poison := tb.players[witch].actionsNamed(ActionPoison)
				if len(poison) != 1 {
					t.Fatalf("poison requests = %d, want 1", len(poison))
				}
				if slices.Contains(poison[0].Options, target) || slices.Contains(poison[0].Options, witch) {
					t.Errorf("poison options = %v, want neither saved seat %d nor witch %d", poison[0].Options, target, witch)
				}

				deaths := recordsOf(e, event.KindSeatDied)
				if len(deaths) != 1 || deaths[0].Payload["seat"] != victim || deaths[0].Payload["cause"] != string(CausePoison) {
					t.Errorf("deaths = %v, want seat %d by poison", deaths, victim)
				}
				if !mustSeat(t, e, target).Alive {
					t.Errorf("saved seat %d died", target)
				}
				role := mustSeat(t, e, witch).Role
				if role.HasAntidote || role.HasPoison {
					t.Errorf("witch potions = %+v, want both spent", role)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, tb := newTestEngine(t, testConfig(sixSeats, 1), tt.act)
			if _, err := e.Run(context.Background()); err != nil {
				t.Fatal(err)
			}
			tt.check(t, e, tb)
		})
	}
}

func lastWordsFrom(e *Engine) []int {
	var out []int
	for _, r := range recordsOf(e, event.KindSeatSpoke) {
		if r.Payload["kind"] == SpeechLastWords {
			out = append(out, r.Payload["seat"].(int))
		}
	}
	return out
}

func TestRun_EliminatedHunterShoots(t *testing.T) {
	// Every seat but the hunter votes the hunter out; the hunter shoots the
	// first wolf.
	voteHunter := func(tb *table, seat int, req agent.ActRequest) int {
		hunter := tb.first(Hunter)
		switch req.Action {
		case ActionDayVote:
			if seat != hunter {
				return hunter
			}
		case ActionHunterShot:
			return tb.first(Werewolf)
		}
		return decision.Abstain
	}
	// Wolves and villagers split against witch and seer, then the tie-break
	// sends the hunter out.
	pkHunter := func(tb *table, seat int, req agent.ActRequest) int {
		hunter := tb.first(Hunter)
		switch req.Action {
		case ActionDayVote:
			switch tb.roles[seat] {
			case Werewolf:
				return hunter
			case Witch, Seer:
				return tb.first(Villager)
			}
		case ActionPKVote:
			if seat == hunter {
				return tb.first(Villager)
			}
			return hunter
		case ActionHunterShot:
			return tb.first(Werewolf)
		}
		return decision.Abstain
	}

	tests := []struct {
		name       string
		roles      config.RoleCounts
		act        actFunc
		pk         bool
		winner     Winner
		lastWords  bool
		tallyCount int
	}{
		{"day vote", sevenWithHunter, voteHunter, false, WinnerDraw, true, 1},
		{"tie-break", sevenWithHunter, pkHunter, true, WinnerDraw, true, 2},
		{"shot ends the game", config.RoleCounts{Werewolf: 1, Hunter: 1, Villager: 2}, voteHunter, false, WinnerGood, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, tb := newTestEngine(t, testConfig(tt.roles, 1), tt.act)
			res, err := e.Run(context.Background())
			if err != nil {
				t.Fatal(err)
			}

			hunter, wolf := tb.first(Hunter), tb.first(Werewolf)
			if mustSeat(t, e, hunter).Alive || mustSeat(t, e, wolf).Alive {
				t.Fatalf("hunter %d and wolf %d should both be dead", hunter, wolf)
			}
			if res.Winner != tt.winner {
				t.Errorf("Winner = %q, want %q", res.Winner, tt.winner)
			}
			if got := len(recordsOf(e, event.KindVoteTallied)); got != tt.tallyCount {
				t.Errorf("tallies = %d, want %d", got, tt.tallyCount)
			}

			facts := res.Facts
			if len(facts) != 2 {
				t.Fatalf("facts = %q, want reveal then shot", facts)
			}
			if want := voteFact(1, hunter, NewRole(Hunter), tt.pk); facts[0] != want {
				t.Errorf("facts[0] = %q, want %q", facts[0], want)
			}
			if want := shotFact(hunter, wolf, NewRole(Werewolf)); facts[1] != want {
				t.Errorf("facts[1] = %q, want %q", facts[1], want)
			}

			deaths := recordsOf(e, event.KindSeatDied)
			if len(deaths) != 2 || deaths[1].Payload["cause"] != string(CauseShot) {
				t.Errorf("deaths = %v, want vote then shot", deaths)
			}

			got := lastWordsFrom(e)
			if tt.lastWords && !slices.Equal(got, []int{hunter}) {
				t.Errorf("last words from %v, want the hunter", got)
			}
			if !tt.lastWords && len(got) != 0 {
				t.Errorf("last words from %v after the game ended", got)
			}
		})
	}
}
