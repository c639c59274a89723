package game

import (
	"context"
	"slices"

	"github.com/sourcegraph/conc/iter"

	"github.com/Iron-Ham/werewolf/internal/agent"
	"github.com/Iron-Ham/werewolf/internal/decision"
)

// Participant is the model-backed player in a seat. *agent.Agent
// implements it; tests use scripted participants.
type Participant interface {
	Receive(msg string, private bool)
	Speak(ctx context.Context, req agent.SpeakRequest) string
	Act(ctx context.Context, req agent.ActRequest) decision.Decision
}

// Factory builds the participant for a seat once roles are dealt. system is
// the seat's fixed instruction text.
type Factory func(seat int, role Role, system string) (Participant, error)

// Seat is one playing position.
type Seat struct {
	ID    int
	Role  Role
	Alive bool

	p Participant
}

// choose asks the seat for a choice from options. Anything outside options
// comes back as decision.Abstain.
func (s *Seat) choose(ctx context.Context, req agent.ActRequest) int {
	d := s.p.Act(ctx, req)
	if !decision.IsLegal(d.Choice, req.Options) {
		return decision.Abstain
	}
	return d.Choice
}

// ids returns the ids of seats in order.
func ids(seats []*Seat) []int {
	out := make([]int, len(seats))
	for i, s := range seats {
		out[i] = s.ID
	}
	return out
}

// without returns ids minus the excluded values, preserving order.
func without(ids []int, exclude ...int) []int {
	return slices.DeleteFunc(slices.Clone(ids), func(id int) bool {
		return slices.Contains(exclude, id)
	})
}

// fanOut runs f for every seat concurrently and returns results aligned with
// seats by index, regardless of completion order. f must not mutate engine
// state.
func fanOut[T any](seats []*Seat, f func(s *Seat) T) []T {
	return iter.Map(seats, func(s **Seat) T {
		return f(*s)
	})
}
