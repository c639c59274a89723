package llm

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
)

var mockStatements = []string{
	"I have been listening carefully and nothing about last night adds up yet.",
	"I am a plain villager. Watch who is pushing votes without giving reasons.",
	"I will follow the public facts. Whoever contradicts them is my suspect.",
	"Too early to accuse anyone, but I am keeping notes on every claim.",
}

// MockProvider plays offline. Action prompts get a random choice from
// their option set, statements get canned text. With a fixed seed its
// choices are reproducible.
type MockProvider struct {
	name string
	mu   sync.Mutex
	rng  *rand.Rand
}

// NewMockProvider creates a mock seeded with seed.
func NewMockProvider(name string, seed uint64) *MockProvider {
	return &MockProvider{
		name: name,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Name returns the configured model name.
func (p *MockProvider) Name() string { return p.name }

// Generate answers from the final prompt.
func (p *MockProvider) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reply := p.reply(req)
	if req.Stream != nil {
		for _, word := range strings.SplitAfter(reply, " ") {
			req.Stream(word)
		}
	}
	return reply, nil
}

func (p *MockProvider) reply(req Request) string {
	last := req.Last()

	if strings.Contains(last, ReasoningCue) {
		return "[mock reasoning] 1. Review the public facts. 2. Weigh each claim. 3. Decide."
	}

	options := ParseOptions(last)
	if options == nil {
		p.mu.Lock()
		defer p.mu.Unlock()
		return mockStatements[p.rng.IntN(len(mockStatements))]
	}

	p.mu.Lock()
	choice := options[p.rng.IntN(len(options))]
	p.mu.Unlock()

	if req.Structured {
		b, _ := json.Marshal(map[string]any{
			"reasoning": "mock choice",
			"action":    choice,
		})
		return string(b)
	}
	return strconv.Itoa(choice)
}

// ScriptedProvider answers with a caller-supplied function and records
// every request. It stands in for a model in tests.
type ScriptedProvider struct {
	Fn func(req Request) (string, error)

	mu    sync.Mutex
	calls []Request
}

// NewScriptedProvider creates a ScriptedProvider.
func NewScriptedProvider(fn func(req Request) (string, error)) *ScriptedProvider {
	return &ScriptedProvider{Fn: fn}
}

// Replies returns a ScriptedProvider that answers with replies in order,
// repeating the last one when they run out.
func Replies(replies ...string) *ScriptedProvider {
	var mu sync.Mutex
	i := 0
	return NewScriptedProvider(func(Request) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(replies) == 0 {
			return "", nil
		}
		r := replies[min(i, len(replies)-1)]
		i++
		return r, nil
	})
}

// Name returns "scripted".
func (p *ScriptedProvider) Name() string { return "scripted" }

// Generate records req and calls Fn.
func (p *ScriptedProvider) Generate(ctx context.Context, req Request) (string, error) {
	p.mu.Lock()
	msgs := make([]Message, len(req.Messages))
	copy(msgs, req.Messages)
	p.calls = append(p.calls, Request{Messages: msgs, Structured: req.Structured})
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.Fn(req)
}

// Calls returns the recorded requests.
func (p *ScriptedProvider) Calls() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Request, len(p.calls))
	copy(out, p.calls)
	return out
}
