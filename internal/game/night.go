package game

import (
	"context"
	"slices"

	"github.com/Iron-Ham/werewolf/internal/agent"
	"github.com/Iron-Ham/werewolf/internal/decision"
	"github.com/Iron-Ham/werewolf/internal/event"
)

// runNight resolves the night and returns the deaths to apply at daybreak.
// Nothing changes liveness here, so every night decision sees the world as
// it was at dusk.
func (e *Engine) runNight(ctx context.Context) []Death {
	log := e.phaseLogger()
	alive := e.aliveIDs()
	facts := e.ledger.Facts()

	neg := Negotiate(ctx, e.aliveWolves(), alive, e.cfg.NegotiationRounds, facts)
	e.history.Append(e.turn, event.KindNegotiation, map[string]any{
		"target":    neg.Target,
		"consensus": neg.Consensus,
		"forced":    neg.Forced,
		"rounds":    neg.Rounds,
	})
	log.Info("wolves chose target",
		"target", neg.Target,
		"consensus", neg.Consensus,
		"forced", neg.Forced,
		"rounds", len(neg.Rounds),
	)

	saved, poisoned := e.witchActs(ctx, neg.Target, alive, facts)
	e.seerActs(ctx, alive, facts)

	var deaths []Death
	if neg.Target != decision.Abstain && !slices.Contains(saved, neg.Target) {
		deaths = append(deaths, Death{Seat: neg.Target, Cause: CauseWolf})
	}
	for _, p := range poisoned {
		if slices.ContainsFunc(deaths, func(d Death) bool { return d.Seat == p }) {
			// One death, first-applied cause kept.
			log.Warn("poison target already dying", "seat", p)
			continue
		}
		deaths = append(deaths, Death{Seat: p, Cause: CausePoison})
	}

	return e.nightShots(ctx, deaths, facts)
}

// witchActs lets every living witch, in seat order, consider her antidote
// for the wolves' target and then her poison. It returns the saved and
// poisoned seats.
func (e *Engine) witchActs(ctx context.Context, target int, alive []int, facts []string) (saved, poisoned []int) {
	for _, w := range e.aliveOf(Witch) {
		if target != decision.Abstain && w.Role.HasAntidote && !slices.Contains(saved, target) {
			choice := w.choose(ctx, agent.ActRequest{
				Action:  ActionAntidote,
				Options: []int{target},
				Facts:   facts,
				Note:    antidoteNote(target),
			})
			if choice == target {
				w.Role.HasAntidote = false
				saved = append(saved, target)
			}
		}

		if w.Role.HasPoison {
			options := without(alive, append([]int{w.ID}, saved...)...)
			choice := w.choose(ctx, agent.ActRequest{
				Action:  ActionPoison,
				Options: options,
				Facts:   facts,
				Note:    poisonNote,
			})
			if choice != decision.Abstain {
				w.Role.HasPoison = false
				poisoned = append(poisoned, choice)
			}
		}
	}

	if len(saved) > 0 || len(poisoned) > 0 {
		e.history.Append(e.turn, event.KindWitchActed, map[string]any{
			"saved":    saved,
			"poisoned": poisoned,
		})
		e.phaseLogger().Info("witch acted", "saved", saved, "poisoned", poisoned)
	}
	return saved, poisoned
}

// seerActs lets every living seer learn one other seat's faction privately.
func (e *Engine) seerActs(ctx context.Context, alive []int, facts []string) {
	for _, s := range e.aliveOf(Seer) {
		choice := s.choose(ctx, agent.ActRequest{
			Action:  ActionSeerCheck,
			Options: without(alive, s.ID),
			Facts:   facts,
			Note:    seerNote,
		})
		if choice == decision.Abstain {
			continue
		}

		faction := e.seats[choice-1].Role.Faction()
		s.p.Receive(seerResult(choice, faction), true)
		e.history.Append(e.turn, event.KindSeerChecked, map[string]any{
			"seer":    s.ID,
			"target":  choice,
			"faction": string(faction),
		})
	}
}

// nightShots walks the death list as a queue. A hunter who dies by any cause
// other than poison shoots one seat that is neither already dying nor
// himself; the victim joins the queue and may shoot in turn.
func (e *Engine) nightShots(ctx context.Context, deaths []Death, facts []string) []Death {
	for i := 0; i < len(deaths); i++ {
		d := deaths[i]
		s := e.seats[d.Seat-1]
		if !s.Role.CanShoot {
			continue
		}
		if d.Cause == CausePoison {
			e.phaseLogger().Info("poisoned hunter cannot shoot", "seat", s.ID)
			continue
		}

		dying := make([]int, len(deaths))
		for j, dd := range deaths {
			dying[j] = dd.Seat
		}
		if target := e.shoot(ctx, s, d.Cause, without(e.aliveIDs(), dying...), facts); target != decision.Abstain {
			deaths = append(deaths, Death{Seat: target, Cause: CauseShot})
		}
	}
	return deaths
}

// shoot offers a hunter his single shot and records it.
func (e *Engine) shoot(ctx context.Context, hunter *Seat, cause Cause, options []int, facts []string) int {
	hunter.Role.CanShoot = false
	if len(options) == 0 {
		return decision.Abstain
	}

	target := hunter.choose(ctx, agent.ActRequest{
		Action:  ActionHunterShot,
		Options: options,
		Facts:   facts,
		Note:    shotNote(cause),
	})
	if target == decision.Abstain {
		return target
	}

	e.history.Append(e.turn, event.KindHunterShot, map[string]any{
		"hunter": hunter.ID,
		"target": target,
	})
	e.phaseLogger().Info("hunter shot", "hunter", hunter.ID, "target", target)
	return target
}
