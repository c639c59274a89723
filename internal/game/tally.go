package game

import (
	"slices"

	"github.com/Iron-Ham/werewolf/internal/decision"
)

// Ballot is one seat's vote. Target is decision.Abstain for an abstention.
type Ballot struct {
	Voter  int `json:"voter"`
	Target int `json:"target"`
}

// TallyResult summarises a vote.
type TallyResult struct {
	Counts map[int]int
	// Top holds the seats sharing the highest count, in ascending seat order.
	Top []int
	// Valid is the number of non-abstaining ballots.
	Valid int
}

// Eliminated returns the seat with a strict plurality.
func (r TallyResult) Eliminated() (int, bool) {
	if len(r.Top) != 1 {
		return 0, false
	}
	return r.Top[0], true
}

// Tied reports whether two or more seats share the plurality.
func (r TallyResult) Tied() bool { return len(r.Top) > 1 }

// Tally counts ballots. Abstentions are ignored; with no valid ballot there
// is no top seat at all.
func Tally(ballots []Ballot) TallyResult {
	res := TallyResult{Counts: map[int]int{}}
	best := 0
	for _, b := range ballots {
		if b.Target == decision.Abstain {
			continue
		}
		res.Valid++
		res.Counts[b.Target]++
		best = max(best, res.Counts[b.Target])
	}
	for seat, n := range res.Counts {
		if n == best {
			res.Top = append(res.Top, seat)
		}
	}
	slices.Sort(res.Top)
	return res
}
