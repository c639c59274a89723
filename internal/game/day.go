package game

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/werewolf/internal/agent"
	"github.com/Iron-Ham/werewolf/internal/config"
	"github.com/Iron-Ham/werewolf/internal/event"
)

// Kinds of statement recorded in seat.spoke events.
const (
	SpeechDiscussion = "discussion"
	SpeechLastWords  = "last_words"
	SpeechDefense    = "defense"
)

// Vote rounds recorded in vote.tallied events.
const (
	VoteRoundDay = "day"
	VoteRoundPK  = "pk"
)

// runDay applies the night's deaths, then runs last words, discussion and
// the vote. It stops as soon as the game is over.
func (e *Engine) runDay(ctx context.Context, deaths []Death) {
	e.applyNightDeaths(deaths)
	if _, over := e.CheckWin(); over {
		return
	}

	if e.nightLastWords() {
		for _, d := range deaths {
			e.lastWords(ctx, e.seats[d.Seat-1], lastWordsNight)
		}
	}

	if ctx.Err() != nil {
		return
	}
	e.discuss(ctx)

	if ctx.Err() != nil {
		return
	}
	e.dayVote(ctx)
}

func (e *Engine) applyNightDeaths(deaths []Death) {
	dead := make([]int, len(deaths))
	for i, d := range deaths {
		dead[i] = d.Seat
		e.kill(d.Seat, d.Cause)
	}
	e.broadcast(nightAnnouncement(dead))
	for _, d := range deaths {
		e.recordFact(nightDeathFact(e.turn, d.Seat, e.seats[d.Seat-1].Role))
	}
}

func (e *Engine) nightLastWords() bool {
	switch e.cfg.LastWords {
	case config.LastWordsNone:
		return false
	case config.LastWordsEveryNight:
		return true
	default:
		return e.turn == 1
	}
}

// lastWords lets a dead seat address the living.
func (e *Engine) lastWords(ctx context.Context, s *Seat, situation string) {
	text := e.speak(ctx, s, SpeechLastWords, situation, "")
	e.broadcast(fmt.Sprintf("Seat %d (last words): %s", s.ID, text))
}

// discuss gives every living seat one statement in seat order. Each speaker
// sees all earlier statements of the day.
func (e *Engine) discuss(ctx context.Context) {
	alive := e.aliveSeats()
	endgame := len(alive) <= e.cfg.EndgameThreshold
	var earlier []string

	for _, s := range alive {
		if ctx.Err() != nil {
			return
		}
		hint := ""
		if endgame {
			hint = endgameHint(s.Role.Faction())
		}
		text := e.speak(ctx, s, SpeechDiscussion, discussionContext(ids(alive), earlier), hint)
		line := fmt.Sprintf("Seat %d: %s", s.ID, text)
		e.broadcast(line, s.ID)
		earlier = append(earlier, line)
	}
}

// vote collects one ballot from every voter concurrently.
func (e *Engine) vote(ctx context.Context, voters []*Seat, action, note string, options func(s *Seat) []int) []Ballot {
	facts := e.ledger.Facts()
	targets := fanOut(voters, func(s *Seat) int {
		return s.choose(ctx, agent.ActRequest{
			Action:    action,
			Options:   options(s),
			Facts:     facts,
			Note:      note,
			AskReason: true,
		})
	})

	ballots := make([]Ballot, len(voters))
	for i, s := range voters {
		ballots[i] = Ballot{Voter: s.ID, Target: targets[i]}
	}
	return ballots
}

func (e *Engine) recordTally(round string, ballots []Ballot, res TallyResult) {
	e.history.Append(e.turn, event.KindVoteTallied, map[string]any{
		"round":   round,
		"ballots": ballots,
		"counts":  res.Counts,
		"top":     res.Top,
	})
	e.phaseLogger().Info("vote tallied", "round", round, "valid", res.Valid, "top", res.Top)
}

// dayVote runs the elimination vote and, on a tie, one tie-break round.
func (e *Engine) dayVote(ctx context.Context) {
	alive := e.aliveSeats()
	aliveIDs := ids(alive)
	ballots := e.vote(ctx, alive, ActionDayVote, "", func(s *Seat) []int {
		return without(aliveIDs, s.ID)
	})
	res := Tally(ballots)
	e.recordTally(VoteRoundDay, ballots, res)

	if seat, ok := res.Eliminated(); ok {
		e.eliminate(ctx, seat, false)
		return
	}
	if !res.Tied() {
		e.broadcast("Nobody voted. Nobody is eliminated today.")
		return
	}

	tied := res.Top
	e.broadcast(fmt.Sprintf("The vote tied between seats %s. Tie-break speeches follow.", seatList(tied)))
	for _, id := range tied {
		if ctx.Err() != nil {
			return
		}
		s := e.seats[id-1]
		text := e.speak(ctx, s, SpeechDefense, defenseContext(tied), "")
		e.broadcast(fmt.Sprintf("Seat %d (defense): %s", id, text), id)
	}

	pkBallots := e.vote(ctx, e.aliveSeats(), ActionPKVote, pkNote(tied), func(*Seat) []int {
		return tied
	})
	pk := Tally(pkBallots)
	e.recordTally(VoteRoundPK, pkBallots, pk)

	if seat, ok := pk.Eliminated(); ok {
		e.eliminate(ctx, seat, true)
		return
	}
	e.broadcast("The tie-break vote did not decide. Nobody is eliminated today.")
}

// eliminate removes a voted-out seat: reveal, ledger, hunter shots, win
// check, then last words.
func (e *Engine) eliminate(ctx context.Context, id int, pk bool) {
	s := e.seats[id-1]
	e.kill(id, CauseVote)
	e.recordFact(voteFact(e.turn, id, s.Role, pk))

	queue := []Death{{Seat: id, Cause: CauseVote}}
	for i := 0; i < len(queue); i++ {
		hunter := e.seats[queue[i].Seat-1]
		if !hunter.Role.CanShoot || queue[i].Cause == CausePoison {
			continue
		}
		target := e.shoot(ctx, hunter, queue[i].Cause, e.aliveIDs(), e.ledger.Facts())
		if target < 1 || !e.kill(target, CauseShot) {
			continue
		}
		e.recordFact(shotFact(hunter.ID, target, e.seats[target-1].Role))
		queue = append(queue, Death{Seat: target, Cause: CauseShot})
	}

	if _, over := e.CheckWin(); over {
		return
	}
	e.lastWords(ctx, s, lastWordsVote)
}
