// Package llm is the inference capability the game engine consumes.
//
// A [Provider] turns a conversation into generated text and may fail.
// A [Client] wraps a provider with a per-call timeout and retries with
// exponential backoff; once retries are exhausted it degrades to an
// "Error: ..." reply instead of returning an error, so a failing endpoint
// costs a seat its turn but never aborts the game.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Role is the author of a conversation message.
type Role string

// Message roles, matching chat-completion conventions.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation.
type Message struct {
	Role    Role
	Content string
}

// Request is one generation call.
type Request struct {
	Messages []Message
	// Stream, when set, receives reply fragments as they arrive.
	Stream func(chunk string)
	// Structured asks the provider for a JSON object reply.
	Structured bool
}

// Last returns the content of the final message, or "" for an empty request.
func (r Request) Last() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Content
}

// Provider generates a reply for a conversation.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	// Name identifies the provider in logs.
	Name() string
}

// ReasoningCue opens the first step of two-step reasoning generation.
// Providers that simulate models recognise it.
const ReasoningCue = "Think step by step before answering."

// FormatOptions renders a closed option set the way every action prompt
// presents it, e.g. "Options: [1, 3, 5]".
func FormatOptions(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return fmt.Sprintf("Options: [%s]", strings.Join(parts, ", "))
}

var optionsPattern = regexp.MustCompile(`Options: \[([-\d,\s]*)\]`)

// ParseOptions reads back the last option set rendered by FormatOptions.
// It returns nil if text contains none.
func ParseOptions(text string) []int {
	matches := optionsPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	var ids []int
	for _, field := range strings.Split(matches[len(matches)-1][1], ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(field)); err == nil {
			ids = append(ids, n)
		}
	}
	return ids
}
