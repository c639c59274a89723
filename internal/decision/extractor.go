// Package decision turns a free-text agent reply into one choice from a
// closed option set.
//
// An [Extractor] runs an ordered chain of [Strategy] values. Each strategy
// either produces a candidate or falls through to the next one. The first
// candidate is then parsed and checked against the legal set; anything that
// is not a legal id becomes [Abstain]. A rationale found along the way is
// logged for the operator and never becomes game state.
package decision

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/Iron-Ham/werewolf/internal/errors"
	"github.com/Iron-Ham/werewolf/internal/logging"
	"github.com/Iron-Ham/werewolf/internal/util"
)

// Abstain is the choice meaning "no target". It is legal in every option set.
const Abstain = -1

// Stage names reported in Decision.Stage.
const (
	StageStructured  = "structured"
	StageArbitration = "arbitration"
	StagePattern     = "pattern"
	StageNone        = "none"
)

// Decision is the outcome of one extraction.
type Decision struct {
	Choice int
	// Rationale is whatever reasoning the reply carried. Operator-only.
	Rationale string
	// Stage names the strategy that produced the candidate.
	Stage string
	// Legal is false when the candidate was rejected and Choice fell back to Abstain.
	Legal bool
}

// Candidate is a strategy's proposed answer before validation.
type Candidate struct {
	Text      string
	Rationale string
}

// Strategy is one link of the extraction chain. Extract reports false to
// fall through to the next strategy.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, raw string, legal []int) (Candidate, bool)
}

// Extractor runs strategies in order; the first success wins.
type Extractor struct {
	strategies []Strategy
	logger     *logging.Logger
}

// NewExtractor creates an Extractor over strategies. A nil logger discards logs.
func NewExtractor(logger *logging.Logger, strategies ...Strategy) *Extractor {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Extractor{strategies: strategies, logger: logger}
}

// Chain builds the standard strategy order. The structured stage is included
// only when the model emits structured objects, and the arbitration stage only
// when an arbiter is configured. The pattern stage always closes the chain.
func Chain(structured bool, arbiter Arbiter) []Strategy {
	var chain []Strategy
	if structured {
		chain = append(chain, StructuredStrategy{})
	}
	if arbiter != nil {
		chain = append(chain, ArbitrationStrategy{Arbiter: arbiter})
	}
	return append(chain, PatternStrategy{})
}

// WithLogger returns a copy of the extractor that logs to logger.
func (e *Extractor) WithLogger(logger *logging.Logger) *Extractor {
	return &Extractor{strategies: e.strategies, logger: logger}
}

// Extract resolves raw into a legal choice or Abstain. It never fails.
func (e *Extractor) Extract(ctx context.Context, raw string, legal []int) Decision {
	options := WithAbstain(legal)

	cand, stage := Candidate{Text: raw}, StageNone
	for _, s := range e.strategies {
		if c, ok := s.Extract(ctx, raw, options); ok {
			cand, stage = c, s.Name()
			break
		}
	}

	if cand.Rationale != "" {
		e.logger.Debug("decision rationale", "stage", stage, "rationale", cand.Rationale)
	}

	choice, err := Resolve(cand.Text, legal)
	if err != nil {
		decErr := errors.NewDecisionError("reply treated as abstention", err).WithRaw(raw)
		e.logger.Info("decision rejected",
			"stage", stage,
			"candidate", util.Excerpt(cand.Text, 80),
			"raw", util.Excerpt(raw, 200),
			"error", decErr.Error(),
		)
		return Decision{Choice: Abstain, Rationale: cand.Rationale, Stage: stage}
	}

	e.logger.Debug("decision extracted", "stage", stage, "choice", choice)
	return Decision{Choice: choice, Rationale: cand.Rationale, Stage: stage, Legal: true}
}

// Resolve parses a candidate and checks it against legal plus Abstain.
func Resolve(candidate string, legal []int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(candidate))
	if err != nil {
		return Abstain, errors.Wrapf(errors.ErrMalformedDecision, "candidate %q is not an integer", candidate)
	}
	if !IsLegal(n, legal) {
		return Abstain, errors.Wrapf(errors.ErrIllegalChoice, "choice %d", n)
	}
	return n, nil
}

// IsLegal reports whether choice is Abstain or a member of legal.
func IsLegal(choice int, legal []int) bool {
	return choice == Abstain || slices.Contains(legal, choice)
}

// WithAbstain returns legal with Abstain appended unless already present.
func WithAbstain(legal []int) []int {
	if slices.Contains(legal, Abstain) {
		return slices.Clone(legal)
	}
	return append(slices.Clone(legal), Abstain)
}
