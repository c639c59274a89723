package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const arbiterSystemPrompt = "You read a game player's reply and report the single final numeric choice it " +
	"makes. Ignore any reasoning or numbers mentioned along the way. Answer with the number only."

// Arbiter asks a secondary model to pull one clean number out of a noisy reply.
type Arbiter struct {
	client *Client
}

// NewArbiter creates an Arbiter backed by client.
func NewArbiter(client *Client) *Arbiter {
	return &Arbiter{client: client}
}

// Name returns the backing model's name.
func (a *Arbiter) Name() string { return a.client.Name() }

// Arbitrate returns the integer the arbitration model reports for raw.
// It reports false if the model's answer is not a syntactically valid
// integer; membership in legal is the caller's concern.
func (a *Arbiter) Arbitrate(ctx context.Context, raw string, legal []int) (int, bool) {
	prompt := fmt.Sprintf("Player reply:\n<<<\n%s\n>>>\n\nLegal choices, -1 meaning abstain. %s\n"+
		"Which single number did the player finally choose? Reply -1 if none.",
		raw, FormatOptions(legal))

	reply := a.client.Generate(ctx, Request{Messages: []Message{
		{Role: RoleSystem, Content: arbiterSystemPrompt},
		{Role: RoleUser, Content: prompt},
	}})
	if IsErrorReply(reply) {
		return 0, false
	}

	n, err := strconv.Atoi(strings.Trim(strings.TrimSpace(reply), "."))
	if err != nil {
		return 0, false
	}
	return n, true
}
