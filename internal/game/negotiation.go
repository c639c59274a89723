package game

import (
	"context"

	"github.com/Iron-Ham/werewolf/internal/agent"
	"github.com/Iron-Ham/werewolf/internal/decision"
)

// DefaultNegotiationRounds is the sequential round cap when none is configured.
const DefaultNegotiationRounds = 3

// WolfVote is one wolf's valid answer in a negotiation round.
type WolfVote struct {
	Seat   int `json:"seat"`
	Target int `json:"target"`
}

// NegotiationRound holds the valid answers of one round, in wolf order.
// Round 0 is the blind round.
type NegotiationRound struct {
	Index int        `json:"index"`
	Votes []WolfVote `json:"votes"`
}

// NegotiationResult is the outcome of a night's target selection.
type NegotiationResult struct {
	// Target is the agreed seat, or decision.Abstain for no kill.
	Target    int
	Rounds    []NegotiationRound
	Consensus bool
	// Forced is set when the round cap ran out and plurality decided.
	Forced bool
}

// Sighting is what one wolf can see of a teammate's choice while voting in a
// sequential round: the teammate's answer from this round if they already
// voted, otherwise their answer from the previous round.
type Sighting struct {
	Seat    int
	Target  int
	Current bool
}

// Negotiate picks the wolves' kill target among options.
//
// Every wolf first answers blind and concurrently; unanimity ends it. Then up
// to rounds sequential rounds run in wolf order, each wolf seeing the
// sightings of its teammates. If no round is unanimous the plurality of the
// last round's answers wins, ties going to the target voted first. Answers
// that are not legal count as abstentions.
func Negotiate(ctx context.Context, wolves []*Seat, options []int, rounds int, facts []string) NegotiationResult {
	res := NegotiationResult{Target: decision.Abstain}
	if len(wolves) == 0 || len(options) == 0 {
		return res
	}

	blind := fanOut(wolves, func(w *Seat) int {
		return w.choose(ctx, agent.ActRequest{
			Action:  ActionWolfKill,
			Options: options,
			Facts:   facts,
			Note:    blindNote(w.ID, ids(wolves)),
		})
	})
	votes := validVotes(wolves, blind)
	res.Rounds = append(res.Rounds, NegotiationRound{Index: 0, Votes: votes})
	if t, ok := unanimous(votes); ok {
		res.Target, res.Consensus = t, true
		return res
	}

	for r := 1; r <= rounds; r++ {
		if ctx.Err() != nil {
			break
		}
		prev := votesBySeat(votes)
		current := map[int]int{}
		votes = nil

		for k, w := range wolves {
			view := sightings(wolves, k, current, prev)
			target := w.choose(ctx, agent.ActRequest{
				Action:  ActionWolfKill,
				Options: options,
				Facts:   facts,
				Note:    negotiationNote(r, view),
			})
			if target == decision.Abstain {
				continue
			}
			current[w.ID] = target
			votes = append(votes, WolfVote{Seat: w.ID, Target: target})
		}

		res.Rounds = append(res.Rounds, NegotiationRound{Index: r, Votes: votes})
		if t, ok := unanimous(votes); ok {
			res.Target, res.Consensus = t, true
			return res
		}
	}

	if t, ok := firstPlurality(votes); ok {
		res.Target, res.Forced = t, true
	}
	return res
}

// sightings builds wolf k's view: teammates before k show this round's
// answer, teammates after k show the previous round's.
func sightings(wolves []*Seat, k int, current, prev map[int]int) []Sighting {
	var view []Sighting
	for i, w := range wolves {
		switch {
		case i < k:
			if t, ok := current[w.ID]; ok {
				view = append(view, Sighting{Seat: w.ID, Target: t, Current: true})
			}
		case i > k:
			if t, ok := prev[w.ID]; ok {
				view = append(view, Sighting{Seat: w.ID, Target: t})
			}
		}
	}
	return view
}

func validVotes(wolves []*Seat, answers []int) []WolfVote {
	var votes []WolfVote
	for i, t := range answers {
		if t != decision.Abstain {
			votes = append(votes, WolfVote{Seat: wolves[i].ID, Target: t})
		}
	}
	return votes
}

func votesBySeat(votes []WolfVote) map[int]int {
	m := make(map[int]int, len(votes))
	for _, v := range votes {
		m[v.Seat] = v.Target
	}
	return m
}

func unanimous(votes []WolfVote) (int, bool) {
	if len(votes) == 0 {
		return 0, false
	}
	for _, v := range votes[1:] {
		if v.Target != votes[0].Target {
			return 0, false
		}
	}
	return votes[0].Target, true
}

// firstPlurality returns the most voted target; among equals the one that
// received a vote first wins.
func firstPlurality(votes []WolfVote) (int, bool) {
	counts := map[int]int{}
	var order []int
	for _, v := range votes {
		if counts[v.Target] == 0 {
			order = append(order, v.Target)
		}
		counts[v.Target]++
	}
	if len(order) == 0 {
		return 0, false
	}
	best := order[0]
	for _, t := range order[1:] {
		if counts[t] > counts[best] {
			best = t
		}
	}
	return best, true
}
