// Package agent wraps one seat's model: its private conversation log, the
// context window applied before every generation, and the pipeline that turns
// replies into statements or legal choices.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/Iron-Ham/werewolf/internal/decision"
	"github.com/Iron-Ham/werewolf/internal/event"
	"github.com/Iron-Ham/werewolf/internal/llm"
	"github.com/Iron-Ham/werewolf/internal/logging"
	"github.com/Iron-Ham/werewolf/internal/memory"
	"github.com/Iron-Ham/werewolf/internal/util"
)

// Generator produces a reply for a request and never fails; errors arrive as
// llm.ErrorPrefix text. *llm.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) string
}

// Message prefixes marking how a received message reached the seat.
const (
	PublicPrefix  = "[System] "
	PrivatePrefix = "[Private] "
)

// DefaultBudget is the context window size when none is configured.
const DefaultBudget = 2000

// Agent is one seat's model wrapper. An Agent is used by one goroutine at a
// time; the engine never solicits the same seat twice concurrently.
type Agent struct {
	seat       int
	log        *memory.Log
	client     Generator
	extractor  *decision.Extractor
	counter    memory.Counter
	budget     int
	reasoning  bool
	structured bool
	bus        *event.Bus
	stream     bool
	logger     *logging.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithBudget sets the context window budget and the counter that measures it.
func WithBudget(tokens int, counter memory.Counter) Option {
	return func(a *Agent) {
		a.budget = tokens
		if counter != nil {
			a.counter = counter
		}
	}
}

// WithReasoning enables two-step generation: an analysis turn, then the answer.
func WithReasoning(enabled bool) Option {
	return func(a *Agent) { a.reasoning = enabled }
}

// WithStructured asks the model for JSON object replies to actions.
func WithStructured(enabled bool) Option {
	return func(a *Agent) { a.structured = enabled }
}

// WithExtractor sets the decision pipeline used by Act.
func WithExtractor(e *decision.Extractor) Option {
	return func(a *Agent) { a.extractor = e }
}

// WithStream publishes statement fragments to bus as they arrive. Act replies
// are never streamed; they are short and often solicited concurrently.
func WithStream(bus *event.Bus, enabled bool) Option {
	return func(a *Agent) {
		a.bus = bus
		a.stream = enabled
	}
}

// WithLogger sets the agent's logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// New creates the agent for seat with its fixed system instructions.
func New(seat int, system string, client Generator, opts ...Option) *Agent {
	a := &Agent{
		seat:    seat,
		log:     memory.NewLog(system),
		client:  client,
		counter: memory.EstimateCounter{},
		budget:  DefaultBudget,
		logger:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.WithSeat(seat)
	if a.extractor == nil {
		a.extractor = decision.NewExtractor(a.logger, decision.Chain(a.structured, nil)...)
	} else {
		a.extractor = a.extractor.WithLogger(a.logger)
	}
	return a
}

// Seat returns the agent's seat id.
func (a *Agent) Seat() int { return a.seat }

// History returns a copy of the full private log.
func (a *Agent) History() []memory.Entry { return a.log.Entries() }

// Receive records a message without generating a reply.
func (a *Agent) Receive(msg string, private bool) {
	prefix := PublicPrefix
	if private {
		prefix = PrivatePrefix
	}
	a.log.Append(memory.KindIncoming, prefix+msg)
}

// SpeakRequest is a request for one public statement.
type SpeakRequest struct {
	// Context describes the situation, e.g. living seats and earlier statements.
	Context string
	Facts   []string
	// Hint is appended for endgame play. Empty means none.
	Hint string
}

// Speak produces a public statement.
func (a *Agent) Speak(ctx context.Context, req SpeakRequest) string {
	var b strings.Builder
	b.WriteString(factsBlock(req.Facts))
	b.WriteString("It is the day discussion.\n")
	if req.Context != "" {
		fmt.Fprintf(&b, "Context: %s\n", req.Context)
	}
	if req.Hint != "" {
		fmt.Fprintf(&b, "%s\n", req.Hint)
	}
	b.WriteString("Give your statement in under 100 words:")

	out := strings.TrimSpace(a.respond(ctx, b.String(), "Based on the analysis above, give your short final statement without the analysis:", false, publicStream))
	a.logger.Debug("statement generated", "chars", len(out))
	return out
}

// ActRequest is a request for one choice from a closed option set.
type ActRequest struct {
	// Action names the decision, e.g. "day vote".
	Action  string
	Options []int
	Facts   []string
	// Note is extra guidance shown above the options.
	Note string
	// AskReason asks for a one-line reason before the number.
	AskReason bool
}

// Act produces a choice from req.Options or decision.Abstain.
func (a *Agent) Act(ctx context.Context, req ActRequest) decision.Decision {
	options := llm.FormatOptions(req.Options)

	var b strings.Builder
	b.WriteString(factsBlock(req.Facts))
	fmt.Fprintf(&b, "Action: %s.\n", req.Action)
	if req.Note != "" {
		fmt.Fprintf(&b, "%s\n", req.Note)
	}
	fmt.Fprintf(&b, "%s\n", options)
	fmt.Fprintf(&b, "If you are unsure or want to abstain or skip, answer %d.\n", decision.Abstain)
	switch {
	case a.structured:
		b.WriteString(`Answer with a JSON object: {"reasoning": "<one short sentence>", "action": <number>}`)
	case req.AskReason:
		b.WriteString("First state your reason in one sentence, then give the number alone on the next line. Example:\n" +
			"Seat 1 avoided every question.\n1")
	default:
		b.WriteString("Answer with a single number only, no other words or punctuation. Example:\n3")
	}

	final := "Based on the analysis above, give your final answer. " + options
	raw := strings.TrimSpace(a.respond(ctx, b.String(), final, a.structured, noStream))

	if llm.IsErrorReply(raw) {
		a.logger.Warn("action abstained after failed inference", "action", req.Action)
		return decision.Decision{Choice: decision.Abstain, Stage: decision.StageNone}
	}

	d := a.extractor.Extract(ctx, raw, req.Options)
	a.logger.Info("action decided",
		"action", req.Action,
		"choice", d.Choice,
		"stage", d.Stage,
		"legal", d.Legal,
	)
	return d
}

// streamKind says whether a generation's fragments are published and to whom.
type streamKind int

const (
	noStream streamKind = iota
	privateStream
	publicStream
)

// respond records prompt and returns the reply, running the analysis turn
// first when reasoning is enabled. The analysis is never public.
func (a *Agent) respond(ctx context.Context, prompt, finalPrompt string, structured bool, stream streamKind) string {
	if !a.reasoning {
		return a.exchange(ctx, prompt, structured, stream)
	}

	analysisStream := noStream
	if stream != noStream {
		analysisStream = privateStream
	}
	analysis := a.exchange(ctx, prompt+"\n"+llm.ReasoningCue+" Write out your analysis only; do not give the final answer yet.", false, analysisStream)
	a.logger.Debug("reasoning turn", "analysis", util.Excerpt(analysis, 500))
	return a.exchange(ctx, finalPrompt, structured, stream)
}

// exchange appends prompt, generates against the current window and appends
// the reply.
func (a *Agent) exchange(ctx context.Context, prompt string, structured bool, stream streamKind) string {
	a.log.Append(memory.KindIncoming, prompt)

	window := memory.Window(a.log.Entries(), a.budget, a.counter)
	if last := window[len(window)-1]; last.Kind == memory.KindSystem || last.Text != prompt {
		a.logger.Warn("prompt trimmed to fit memory budget", "budget", a.budget, "chars", len(prompt))
	}
	req := llm.Request{Messages: toMessages(window), Structured: structured}
	if a.stream && a.bus != nil && stream != noStream {
		seat, bus, public := a.seat, a.bus, stream == publicStream
		req.Stream = func(chunk string) {
			bus.Publish(event.NewStreamChunkEvent(seat, chunk, public))
		}
	}

	reply := a.client.Generate(ctx, req)
	if llm.IsErrorReply(reply) {
		a.logger.Warn("generation degraded", "reply", util.Excerpt(reply, 200))
	}
	a.log.Append(memory.KindGenerated, reply)
	return reply
}

func toMessages(entries []memory.Entry) []llm.Message {
	msgs := make([]llm.Message, len(entries))
	for i, e := range entries {
		role := llm.RoleUser
		switch e.Kind {
		case memory.KindSystem:
			role = llm.RoleSystem
		case memory.KindGenerated:
			role = llm.RoleAssistant
		}
		msgs[i] = llm.Message{Role: role, Content: e.Text}
	}
	return msgs
}

// factsBlock renders the public ledger as ground truth.
func factsBlock(facts []string) string {
	if len(facts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Confirmed facts (these are true; never contradict them):\n")
	for _, f := range facts {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return b.String()
}
