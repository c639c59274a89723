package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "game.max_turns")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLastWordsModes returns the list of valid last-words modes
func ValidLastWordsModes() []string {
	return []string{LastWordsFirstNight, LastWordsEveryNight, LastWordsNone}
}

// ValidProviders returns the list of supported inference providers
func ValidProviders() []string {
	return []string{ProviderOpenAI, ProviderMock}
}

// checks accumulates failures so Validate can report all of them at once.
type checks []ValidationError

func (c *checks) require(ok bool, field string, value any, message string) {
	if !ok {
		*c = append(*c, ValidationError{Field: field, Value: value, Message: message})
	}
}

func (c *checks) oneOf(field, value string, allowed []string) {
	c.require(slices.Contains(allowed, value), field, value,
		"must be one of: "+strings.Join(allowed, ", "))
}

func (c *checks) nonNegative(field string, value int) {
	c.require(value >= 0, field, value, "must be non-negative")
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var v checks
	c.validateGame(&v)
	c.validateModels(&v)
	c.validateOutputs(&v)
	return v
}

func (c *Config) validateGame(v *checks) {
	g := c.Game

	v.nonNegative("game.roles.werewolf", g.Roles.Werewolf)
	v.nonNegative("game.roles.witch", g.Roles.Witch)
	v.nonNegative("game.roles.seer", g.Roles.Seer)
	v.nonNegative("game.roles.hunter", g.Roles.Hunter)
	v.nonNegative("game.roles.villager", g.Roles.Villager)
	v.require(g.Roles.Werewolf >= 1, "game.roles.werewolf", g.Roles.Werewolf, "at least one werewolf is required")
	v.require(g.Roles.Good() >= 1, "game.roles", g.Roles.Good(), "at least one good-faction seat is required")

	v.require(g.MaxTurns >= 1, "game.max_turns", g.MaxTurns, "must be at least 1")
	v.require(g.MaxMemoryTokens >= 1, "game.max_memory_tokens", g.MaxMemoryTokens, "must be positive")
	v.nonNegative("game.endgame_threshold", g.EndgameThreshold)
	v.nonNegative("game.negotiation_rounds", g.NegotiationRounds)
	v.oneOf("game.last_words", g.LastWords, ValidLastWordsModes())
	v.require(strings.TrimSpace(g.Tokenizer) != "", "game.tokenizer", g.Tokenizer, "must not be empty")
}

// validateModels checks every enabled model and the optional judge.
func (c *Config) validateModels(v *checks) {
	v.require(len(c.ActiveModels()) > 0, "models", len(c.Models), "at least one enabled model is required")

	for i, m := range c.Models {
		if !m.Disabled {
			validateModel(v, fmt.Sprintf("models[%d]", i), m)
		}
	}
	if c.JudgeModel != nil {
		validateModel(v, "judge_model", *c.JudgeModel)
	}
}

func validateModel(v *checks, field string, m ModelConfig) {
	v.oneOf(field+".provider", m.Provider, ValidProviders())
	v.require(strings.TrimSpace(m.Model) != "", field+".model", m.Model, "must not be empty")
	v.require(m.Provider == ProviderMock || m.APIKey != "", field+".api_key", m.Name,
		"missing api key (set it directly or as env:VAR)")
	v.require(m.Temperature >= 0 && m.Temperature <= 2, field+".temperature", m.Temperature, "must be between 0 and 2")
	v.require(m.TimeoutSeconds >= 1, field+".timeout_seconds", m.TimeoutSeconds, "must be at least 1")
	v.nonNegative(field+".max_retries", m.MaxRetries)
}

// validateOutputs checks the log and replay destinations.
func (c *Config) validateOutputs(v *checks) {
	l := c.Logging
	if l.Level != "" {
		v.oneOf("logging.level", strings.ToLower(l.Level), ValidLogLevels())
	}
	v.nonNegative("logging.max_size_mb", l.MaxSizeMB)
	v.nonNegative("logging.max_backups", l.MaxBackups)
	v.require(!l.Enabled || strings.TrimSpace(l.Dir) != "", "logging.dir", l.Dir, "required when logging is enabled")

	r := c.Replay
	v.require(!r.Enabled || strings.TrimSpace(r.Dir) != "", "replay.dir", r.Dir, "required when replay is enabled")
}
